// Command backlot runs the night-time film lot, records diagnostics traces
// and renders still frames.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// BuildDate can be set at build time via ldflags
var (
	Version   = "0.0.1"
	BuildDate = "unknown"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `backlot %s (%s)

Usage:
  backlot [-config dir] run
  backlot [-config dir] soak <seconds>
  backlot [-config dir] snapshot <hour> <out.png>

Flags:
`, Version, BuildDate)
	flag.PrintDefaults()
}

func main() {
	configDir := flag.String("config", ".", "directory holding backlot.cfg.json")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	a, err := newApp(*configDir, time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = dispatch(ctx, a, args)
	stop()
	a.Close()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, a *app, args []string) error {
	switch strings.ToLower(args[0]) {
	case "run":
		return a.run(ctx)

	case "soak":
		if len(args) < 2 {
			return fmt.Errorf("soak: missing <seconds>")
		}
		seconds, err := strconv.ParseFloat(args[1], 64)
		if err != nil || seconds <= 0 {
			return fmt.Errorf("soak: invalid duration %q", args[1])
		}
		_, err = a.soak(ctx, seconds)
		return err

	case "snapshot":
		if len(args) < 3 {
			return fmt.Errorf("snapshot: usage snapshot <hour> <out.png>")
		}
		hour, err := strconv.ParseFloat(args[1], 64)
		if err != nil || hour < 0 || hour >= 24 {
			return fmt.Errorf("snapshot: invalid hour %q", args[1])
		}
		return a.snapshot(hour, args[2])

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}
