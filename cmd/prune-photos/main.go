// Command prune-photos removes the photos that were never uploaded from an
// itinerary document, and the clusters left empty.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/electronjoe/traveldraft/internal/backfill"
	"github.com/electronjoe/traveldraft/internal/cli"
	"github.com/electronjoe/traveldraft/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("prune-photos", flag.ExitOnError)
	verbose := fs.Bool("verbose", false, "log debug output")
	fs.Usage = cli.Usage(fs, "[flags] <itinerary.json>",
		"Removes photos without a cloudinary block from an itinerary document.")
	fs.Parse(os.Args[1:])

	if fs.NArg() != 1 {
		fs.Usage()
		return cli.Fail(os.Stderr, fmt.Errorf("%w: expected exactly one itinerary file", cli.ErrUsage))
	}
	path, err := filepath.Abs(fs.Arg(0))
	if err != nil {
		return cli.Fail(os.Stderr, err)
	}

	logger, err := logging.New(*verbose)
	if err != nil {
		return cli.Fail(os.Stderr, err)
	}
	defer logger.Sync()

	ctx, stop := cli.Context()
	defer stop()

	if _, err := os.Stat(path); err != nil {
		return cli.Fail(os.Stderr, fmt.Errorf("%w: %v", cli.ErrUsage, err))
	}
	if _, err := backfill.Prune(ctx, path, logger); err != nil {
		return cli.Fail(os.Stderr, err)
	}
	return 0
}
