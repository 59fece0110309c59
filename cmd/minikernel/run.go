package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	minikernel "github.com/Solero93/OperatingSystems1"
	"github.com/Solero93/OperatingSystems1/tracing"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

type options struct {
	configURL   string
	programsURL string
	accounting  string
	maxTicks    int
	quantum     int
	input       string
	trace       string
	expectURL   string
	format      string
	verbose     bool
}

func parse(args []string, stderr io.Writer) (*options, error) {
	ret := &options{}
	flags := flag.NewFlagSet("minikernel", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&ret.configURL, "config", "", "YAML config URL")
	flags.StringVar(&ret.programsURL, "programs", "", "URL of a directory with *.asm programs (default: embedded demo)")
	flags.StringVar(&ret.accounting, "accounting", "", "URL to store accounting records at")
	flags.IntVar(&ret.maxTicks, "ticks", 0, "tick budget")
	flags.IntVar(&ret.quantum, "quantum", 0, "scheduling quantum in ticks")
	flags.StringVar(&ret.input, "input", "", "terminal input")
	flags.StringVar(&ret.trace, "trace", "", "write spans to this file ('-' for stdout)")
	flags.StringVar(&ret.expectURL, "expect", "", "URL of the expected console output")
	flags.StringVar(&ret.format, "format", "text", "report format: text, json or yaml")
	flags.BoolVar(&ret.verbose, "v", false, "debug logging")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	switch ret.format {
	case "text", "json", "yaml":
	default:
		err := fmt.Errorf("unsupported format %q", ret.format)
		fmt.Fprintln(stderr, err)
		return nil, err
	}
	return ret, nil
}

func (o *options) config(ctx context.Context, fs afs.Service) (*minikernel.Config, error) {
	ret := minikernel.DefaultConfig()
	if o.configURL != "" {
		var err error
		if ret, err = minikernel.LoadConfig(ctx, fs, o.configURL); err != nil {
			return nil, err
		}
	}
	if o.programsURL != "" {
		ret.Machine.Programs = o.programsURL
	}
	if o.accounting != "" {
		ret.Accounting.URL = o.accounting
	}
	if o.maxTicks > 0 {
		ret.Machine.MaxTicks = o.maxTicks
	}
	if o.quantum > 0 {
		ret.Kernel.Quantum = o.quantum
	}
	if o.input != "" {
		ret.Machine.Input = o.input
	}
	switch o.trace {
	case "":
	case "-":
		ret.Tracing.Enabled, ret.Tracing.Output = true, ""
	default:
		ret.Tracing.Enabled, ret.Tracing.Output = true, o.trace
	}
	return ret, ret.Validate()
}

// run returns the process exit code: 0 on success, 1 on a failed run or an
// output mismatch, 2 on bad usage.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parse(args, stderr)
	if err != nil {
		return 2
	}
	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	fs := afs.New()
	config, err := opts.config(ctx, fs)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	srv, err := minikernel.New(minikernel.WithConfig(config), minikernel.WithFs(fs), minikernel.WithLogger(logger))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	defer func() { _ = tracing.Shutdown(context.Background()) }()

	report, runErr := srv.Run(ctx)
	if report != nil {
		if err = printReport(stdout, opts.format, report); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
	}
	if runErr != nil {
		fmt.Fprintln(stderr, runErr)
		return 1
	}
	if opts.expectURL == "" {
		return 0
	}
	expected, err := fs.DownloadWithURL(ctx, opts.expectURL)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	diff, err := report.Diff(string(expected))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if diff != "" {
		fmt.Fprint(stderr, diff)
		return 1
	}
	return 0
}

func printReport(w io.Writer, format string, report *minikernel.Report) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		return encoder.Encode(report)
	}
	fmt.Fprint(w, report.Output)
	fmt.Fprintf(w, "\n--- boot %s: %d ticks (%d idle), %d live\n", report.BootID, report.Ticks, report.IdleTicks, report.Live)
	if report.Halted != "" {
		fmt.Fprintf(w, "halted: %s\n", report.Halted)
	}
	if report.DeadLettered > 0 {
		fmt.Fprintf(w, "dead-lettered events: %d\n", report.DeadLettered)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tPID\tPROGRAM\tPPID\tCPU\tCREATED\tENDED\tEXIT")
	for _, record := range report.Records {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%d\t%d\t%d\t%d\t%s\n", record.Seq, record.PID, record.Program,
			record.ParentID, record.CPUTicks, record.CreatedTick, record.TerminatedTick, record.ExitReason)
	}
	return tw.Flush()
}
