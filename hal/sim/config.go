package sim

import "fmt"

// Config controls the simulated machine.
type Config struct {
	// MaxTicks powers the machine off after this many clock ticks.
	MaxTicks int `json:"maxTicks" yaml:"maxTicks"`
	// Programs is the URL of a directory with *.asm programs.
	Programs string `json:"programs,omitempty" yaml:"programs,omitempty"`
	// Input is fed to the terminal one byte per InputInterval ticks.
	Input         string `json:"input,omitempty" yaml:"input,omitempty"`
	InputInterval int    `json:"inputInterval,omitempty" yaml:"inputInterval,omitempty"`
}

// DefaultConfig returns the stock machine settings.
func DefaultConfig() Config {
	return Config{MaxTicks: 10000, InputInterval: 7}
}

// Validate checks the machine settings.
func (c *Config) Validate() error {
	if c.MaxTicks <= 0 {
		return fmt.Errorf("machine.maxTicks must be > 0")
	}
	if c.InputInterval < 0 {
		return fmt.Errorf("machine.inputInterval must be >= 0")
	}
	return nil
}
