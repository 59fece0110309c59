// Package minikernel boots a small multiprogramming kernel on a simulated
// machine.
//
// The kernel runs user programs as processes under round-robin scheduling
// with a fixed quantum and an anti-starvation penalty, supports sleeping and
// waiting for children, and services six system calls. The root package
// wires the kernel, the interrupt dispatcher, transition events, process
// accounting and tracing into one Service:
//
//	srv, _ := minikernel.New(minikernel.WithConfig(cfg))
//	report, err := srv.Run(ctx)
//	fmt.Print(report.Output)
//
// Programs are assembled from text (see package hal/sim/asm). Without a
// configured program location the embedded demo programs are used.
package minikernel
