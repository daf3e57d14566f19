// Command extract-metadata writes a <dir>-metadata.json sidecar with the GPS
// position and capture time of every photo in each directory of a data root.
package main

import (
	"flag"
	"os"

	"github.com/electronjoe/traveldraft/internal/cli"
	"github.com/electronjoe/traveldraft/internal/photo"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("extract-metadata", flag.ExitOnError)
	var f cli.Flags
	f.Register(fs)
	fs.Usage = cli.Usage(fs, "[flags] <data-root> [travel]",
		"Extracts photo metadata into one sidecar per directory.")
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

	rep, err := photo.NewExtractor(s.Root.Dir, photo.ExifDecoder{}, s.Log).Run(ctx, s.Only)
	cli.Render(os.Stdout, rep)
	if err != nil {
		return cli.Fail(os.Stderr, err)
	}
	return 0
}
