package base

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
)

// Command contains the common state for all CLI commands.
type Command struct {
	// Log is the logger to use.
	Log hclog.Logger

	// UI is the terminal UI for input and output.
	UI cli.Ui

	// ShutdownCh is closed when the process receives an interrupt.
	ShutdownCh chan struct{}
}

// MakeShutdownCh returns a channel that is closed on SIGINT or SIGTERM.
func MakeShutdownCh() chan struct{} {
	resultCh := make(chan struct{})

	signalCh := make(chan os.Signal, 4)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalCh
		close(resultCh)
	}()

	return resultCh
}

// FlagSet wraps a standard flag set with help rendering.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet creates a new wrapped flag set.
func NewFlagSet(f *flag.FlagSet) *FlagSet {
	return &FlagSet{FlagSet: f}
}

// Help returns the usage text for all defined flags.
func (f *FlagSet) Help() string {
	var buf bytes.Buffer

	buf.WriteString("\nOptions:\n")
	f.VisitAll(func(fl *flag.Flag) {
		buf.WriteString(fmt.Sprintf("  -%s\n      %s", fl.Name, fl.Usage))
		if fl.DefValue != "" {
			buf.WriteString(fmt.Sprintf(" (default: %s)", fl.DefValue))
		}
		buf.WriteString("\n")
	})

	return buf.String()
}
