package minikernel_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	minikernel "github.com/Solero93/OperatingSystems1"
	"github.com/Solero93/OperatingSystems1/hal"
	"github.com/Solero93/OperatingSystems1/hal/sim/asm"
	"github.com/Solero93/OperatingSystems1/internal/idgen"
	"github.com/Solero93/OperatingSystems1/model/process"
	"github.com/Solero93/OperatingSystems1/progress"
	"github.com/Solero93/OperatingSystems1/service/dao"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestService_RunDefaultPrograms(t *testing.T) {
	defer idgen.Sequence("boot")()
	srv, err := minikernel.New(minikernel.WithLogger(discard()))
	require.NoError(t, err)
	ctx := context.Background()
	report, err := srv.Run(ctx)
	require.NoError(t, err)

	assert.Empty(t, report.Halted)
	assert.Equal(t, 0, report.Live)
	assert.Less(t, report.Ticks, minikernel.DefaultConfig().Machine.MaxTicks)
	assert.True(t, strings.HasPrefix(report.Output, "init: booting\n"))
	assert.True(t, strings.HasSuffix(report.Output, "init: all children done\n"))
	assert.Contains(t, report.Output, "sleeper woke, parent 0\n")
	assert.Contains(t, report.Output, "orphan adopted by 0\n")
	assert.NotContains(t, report.Output, "unreachable")
	assert.Equal(t, 2, strings.Count(report.Output, "worker "))

	require.Len(t, report.Records, 7)
	last := report.Records[len(report.Records)-1]
	assert.Equal(t, "init", last.Program)
	assert.Equal(t, process.NoParent, last.ParentID)
	assert.Equal(t, "boot-1", srv.BootID())
	assert.Equal(t, "boot-1", last.BootID)

	failed, err := srv.Records(ctx, dao.NewParameter("ExitReason", string(process.ExitArithmetic)))
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "divider", failed[0].Program)

	assert.Equal(t, 1, report.Stats.Exceptions)
	assert.Equal(t, 6, report.Stats.Syscalls[hal.ServiceCreateProcess])
	assert.Zero(t, report.DroppedEvents)
	assert.Equal(t, 7, report.Progress.Created)
	assert.Equal(t, 7, report.Progress.Terminated)
	assert.Equal(t, 0, report.Progress.Live())
	assert.GreaterOrEqual(t, report.Progress.PeakLive, 6)
	assert.Greater(t, report.Progress.Dispatched, 7)
	assert.Equal(t, 0, srv.Machine().LiveImages())
}

func TestService_Run(t *testing.T) {
	var testCases = []struct {
		description string
		maxTicks    int
		programs    map[string]string
		expectOut   string
		expectLive  int
		expectTicks int
		records     int
	}{
		{
			description: "powers off when the last process ends",
			maxTicks:    500,
			programs: map[string]string{
				"init":  "create \"child\"\nwait\nprint\nexit",
				"child": "compute 3\nwrite \"child\\n\"",
			},
			expectOut:  "child\n0\n",
			expectLive: 0,
			records:    2,
		},
		{
			description: "stops at the tick budget",
			maxTicks:    50,
			programs: map[string]string{
				"init": "compute 1000",
			},
			expectLive:  1,
			expectTicks: 50,
			records:     0,
		},
	}

	for _, testCase := range testCases {
		config := minikernel.DefaultConfig()
		config.Machine.MaxTicks = testCase.maxTicks
		var programs []*asm.Program
		for name, source := range testCase.programs {
			programs = append(programs, asm.MustAssemble(name, source))
		}
		updates := 0
		srv, err := minikernel.New(minikernel.WithConfig(config), minikernel.WithLogger(discard()), minikernel.WithPrograms(programs...),
			minikernel.WithProgressListener(func(progress.Counters) { updates++ }))
		require.NoError(t, err, testCase.description)
		report, err := srv.Run(context.Background())
		require.NoError(t, err, testCase.description)
		assert.Positive(t, updates, testCase.description)
		assert.Equal(t, testCase.expectOut, report.Output, testCase.description)
		assert.Equal(t, testCase.expectLive, report.Live, testCase.description)
		if testCase.expectTicks > 0 {
			assert.Equal(t, testCase.expectTicks, report.Ticks, testCase.description)
		}
		assert.Len(t, report.Records, testCase.records, testCase.description)
	}
}

func TestService_BootFailure(t *testing.T) {
	srv, err := minikernel.New(minikernel.WithLogger(discard()), minikernel.WithPrograms(asm.MustAssemble("other", "exit")))
	require.NoError(t, err)
	report, err := srv.Run(context.Background())
	assert.Error(t, err)
	require.NotNil(t, report)
	assert.Contains(t, report.Halted, "initial process not found")
	assert.Empty(t, report.Records)
}

func TestService_ProgramsAndAccountingOnStorage(t *testing.T) {
	ctx := context.Background()
	fs := afs.New()
	programsURL := "mem://localhost/minikernel/programs"
	accountingURL := "mem://localhost/minikernel/accounting"
	require.NoError(t, fs.Upload(ctx, programsURL+"/init.asm", file.DefaultFileOsMode, strings.NewReader("create \"leaf\"\nwait\nexit\n")))
	require.NoError(t, fs.Upload(ctx, programsURL+"/leaf.asm", file.DefaultFileOsMode, strings.NewReader("fault\n")))

	config := minikernel.DefaultConfig()
	config.Machine.Programs = programsURL
	config.Accounting.URL = accountingURL

	var bootIDs []string
	for run := 1; run <= 2; run++ {
		srv, err := minikernel.New(minikernel.WithConfig(config), minikernel.WithFs(fs), minikernel.WithLogger(discard()))
		require.NoError(t, err)
		report, err := srv.Run(ctx)
		require.NoError(t, err, "run %d", run)
		require.Len(t, report.Records, 2, "run %d", run)
		assert.Equal(t, process.ExitMemory, report.Records[0].ExitReason)
		assert.Equal(t, process.ExitNormal, report.Records[1].ExitReason)
		for _, record := range report.Records {
			assert.Equal(t, srv.BootID(), record.BootID, "run %d", run)
		}
		assert.Zero(t, report.DeadLettered)
		bootIDs = append(bootIDs, srv.BootID())
	}
	require.NotEqual(t, bootIDs[0], bootIDs[1])

	for _, bootID := range bootIDs {
		for _, name := range []string{"000001.json", "000002.json"} {
			exists, err := fs.Exists(ctx, accountingURL+"/"+bootID+"/"+name)
			require.NoError(t, err)
			assert.True(t, exists, bootID+"/"+name)
		}
	}
}

func TestService_InvalidConfig(t *testing.T) {
	config := minikernel.DefaultConfig()
	config.Kernel.Quantum = 0
	_, err := minikernel.New(minikernel.WithConfig(config))
	assert.Error(t, err)
}

func TestReport_Diff(t *testing.T) {
	report := &minikernel.Report{Output: "a\nb\n"}
	diff, err := report.Diff("a\nb\n")
	require.NoError(t, err)
	assert.Empty(t, diff)

	diff, err = report.Diff("a\nc\n")
	require.NoError(t, err)
	assert.Contains(t, diff, "-c")
	assert.Contains(t, diff, "+b")
}
