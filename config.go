package minikernel

import (
	"context"
	"errors"
	"fmt"

	"github.com/Solero93/OperatingSystems1/hal/sim"
	"github.com/Solero93/OperatingSystems1/internal/env"
	"github.com/Solero93/OperatingSystems1/runtime/kernel"
	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"gopkg.in/yaml.v3"
)

// Config is a serialisable representation of the whole system
// configuration. Fields missing from a loaded document keep their defaults.
type Config struct {
	Kernel     kernel.Config    `json:"kernel" yaml:"kernel"`
	Machine    sim.Config       `json:"machine" yaml:"machine"`
	Events     EventsConfig     `json:"events" yaml:"events"`
	Accounting AccountingConfig `json:"accounting" yaml:"accounting"`
	Tracing    TracingConfig    `json:"tracing" yaml:"tracing"`
}

type EventsConfig struct {
	// Buffer is the transition queue size; events beyond it are dropped.
	Buffer int `json:"buffer" yaml:"buffer"`
}

type AccountingConfig struct {
	// URL of the record store; empty keeps records in memory.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

type TracingConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Output is the span file; empty writes to stdout.
	Output string `json:"output,omitempty" yaml:"output,omitempty"`
}

// DefaultConfig returns the stock settings.
func DefaultConfig() *Config {
	return &Config{
		Kernel:  kernel.DefaultConfig(),
		Machine: sim.DefaultConfig(),
		Events:  EventsConfig{Buffer: 1024},
	}
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	var errs []error
	if err := c.Kernel.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Machine.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Events.Buffer <= 0 {
		errs = append(errs, fmt.Errorf("events.buffer must be > 0"))
	}
	return errors.Join(errs...)
}

// LoadConfig reads a YAML document from URL over the defaults. ${env.KEY}
// references are replaced with environment variables before decoding.
func LoadConfig(ctx context.Context, fs afs.Service, URL string, options ...storage.Option) (*Config, error) {
	data, err := fs.DownloadWithURL(ctx, URL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %v: %w", URL, err)
	}
	ret := DefaultConfig()
	if err = yaml.Unmarshal([]byte(env.Expand(string(data))), ret); err != nil {
		return nil, fmt.Errorf("failed to decode config %v: %w", URL, err)
	}
	if err = ret.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %v: %w", URL, err)
	}
	return ret, nil
}
