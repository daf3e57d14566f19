// Command generate-drafts builds itinerary and travel documents from the
// metadata sidecars and updates the travel index.
package main

import (
	"flag"
	"os"

	"github.com/electronjoe/traveldraft/internal/cli"
	"github.com/electronjoe/traveldraft/internal/draft"
	"github.com/electronjoe/traveldraft/internal/index"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("generate-drafts", flag.ExitOnError)
	var f cli.Flags
	f.Register(fs)
	workers := fs.Int("workers", 0, "itineraries built concurrently per travel (default from config)")
	fs.Usage = cli.Usage(fs, "[flags] <data-root> [travel]",
		"Generates <itinerary>.json and travel.json drafts.")
	fs.Parse(os.Args[1:])

	args, err := cli.ParseArgs(fs.Args())
	if err != nil {
		fs.Usage()
		return cli.Fail(os.Stderr, err)
	}
	s, err := cli.Open(f, args)
	if err != nil {
		return cli.Fail(os.Stderr, err)
	}
	defer s.Log.Sync()

	ctx, stop := cli.Context()
	defer stop()

	opts := draft.Options{Threshold: s.Config.ClusterDistance, Workers: s.Config.Workers}
	if *workers > 0 {
		opts.Workers = *workers
	}
	b := draft.NewBuilder(s.Root, index.NewStore(s.Root, s.Log), opts, s.Log)

	rep, err := b.GenerateAll(ctx, s.Only)
	cli.Render(os.Stdout, rep)
	if err != nil {
		return cli.Fail(os.Stderr, err)
	}
	return 0
}
