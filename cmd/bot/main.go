package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"silentping/internal/app"
)

func main() {
	var (
		cfgPath   string
		blastName string
	)
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config file (yaml or json)")
	flag.StringVar(&blastName, "blast", "", "run the named blast once and exit")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}

	if blastName != "" {
		runOnce(ctx, a, blastName)
		return
	}

	if err := a.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "fatal start:", err)
		os.Exit(1)
	}

	<-ctx.Done()
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	_ = a.Stop(stopCtx)
}

func runOnce(ctx context.Context, a *app.App, name string) {
	rep, err := a.RunBlast(ctx, name)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
	fmt.Printf("blast %s: %d/%d payloads delivered\n", name, rep.Sent, rep.Total)
	for _, e := range rep.Errors {
		fmt.Printf("  payload %d: %s\n", e.Index, e.Err)
	}
	if !rep.OK {
		os.Exit(1)
	}
}
