// Command minikernel boots the kernel on the simulated machine and prints
// the console output followed by a run report.
//
//	minikernel -config mem.yaml -programs ./programs -expect golden.txt
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
