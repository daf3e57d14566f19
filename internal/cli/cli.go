// Package cli holds the plumbing shared by the stage commands: flags,
// positional arguments, config, logger and the final report.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/electronjoe/traveldraft/internal/config"
	"github.com/electronjoe/traveldraft/internal/layout"
	"github.com/electronjoe/traveldraft/internal/logging"
	"github.com/electronjoe/traveldraft/internal/report"
)

// ErrUsage marks a command line that cannot be run.
var ErrUsage = errors.New("usage error")

// Exit codes.
const (
	ExitFailure     = 1
	ExitUsage       = 2
	ExitInterrupted = 130
)

// Flags are the options every stage accepts.
type Flags struct {
	ConfigPath string
	URLRoot    string
	Verbose    bool
}

// Register adds the common flags to fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", "", "path to the config file (default ~/"+config.DefaultConfigPath+")")
	fs.StringVar(&f.URLRoot, "url-root", "", "prefix of generated URLs (default: name of the data directory)")
	fs.BoolVar(&f.Verbose, "verbose", false, "log debug output")
}

// Args are the positional arguments of a stage: the data root and an
// optional single travel directory.
type Args struct {
	Root string
	Only string
}

// ParseArgs validates the positional arguments.
func ParseArgs(args []string) (Args, error) {
	switch len(args) {
	case 0:
		return Args{}, fmt.Errorf("%w: the data root directory is required", ErrUsage)
	case 1:
		return Args{Root: args[0]}, nil
	case 2:
		return Args{Root: args[0], Only: args[1]}, nil
	default:
		return Args{}, fmt.Errorf("%w: too many arguments", ErrUsage)
	}
}

// Session is everything a stage needs to run.
type Session struct {
	Root   layout.Root
	Only   string
	Config config.Config
	Log    *zap.Logger
}

// Open reads the config, resolves the data root and builds the logger.
func Open(f Flags, a Args) (*Session, error) {
	cfg, err := config.Read(f.ConfigPath)
	if err != nil {
		return nil, err
	}
	urlRoot := f.URLRoot
	if urlRoot == "" {
		urlRoot = cfg.URLRoot
	}
	root, err := layout.NewRoot(a.Root, urlRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	logger, err := logging.New(f.Verbose)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return &Session{Root: root, Only: a.Only, Config: cfg, Log: logger}, nil
}

// Context is cancelled on interrupt or termination.
func Context() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// Usage returns a flag.FlagSet usage function for a stage.
func Usage(fs *flag.FlagSet, synopsis, description string) func() {
	return func() {
		w := fs.Output()
		fmt.Fprintf(w, "Usage: %s %s\n\n%s\n\nFlags:\n", fs.Name(), synopsis, description)
		fs.PrintDefaults()
	}
}

// Fail prints err and returns the exit code matching it.
func Fail(w io.Writer, err error) int {
	fmt.Fprintf(w, "Error: %v\n", err)
	switch {
	case errors.Is(err, ErrUsage):
		return ExitUsage
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	default:
		return ExitFailure
	}
}

// Render prints the reports of a run.
func Render(w io.Writer, reps ...*report.Report) {
	for _, r := range reps {
		if r == nil {
			continue
		}
		if err := r.Render(w); err != nil {
			fmt.Fprintf(os.Stderr, "Error: render report: %v\n", err)
		}
	}
}
