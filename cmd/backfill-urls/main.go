// Command backfill-urls points itinerary photos at their Cloudinary copies,
// using the upload manifest of each itinerary directory.
package main

import (
	"flag"
	"os"

	"github.com/electronjoe/traveldraft/internal/backfill"
	"github.com/electronjoe/traveldraft/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("backfill-urls", flag.ExitOnError)
	var f cli.Flags
	f.Register(fs)
	fs.Usage = cli.Usage(fs, "[flags] <data-root> [travel]",
		"Attaches uploaded renditions to the photos of every itinerary.")
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

	rep, err := backfill.New(s.Root, s.Log).All(ctx, s.Only)
	cli.Render(os.Stdout, rep)
	if err != nil {
		return cli.Fail(os.Stderr, err)
	}
	return 0
}
