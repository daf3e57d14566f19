// Command update-index rebuilds root/index.json from the travel.json files
// found under the data root, or refreshes the entry of one travel.
package main

import (
	"flag"
	"os"

	"github.com/electronjoe/traveldraft/internal/cli"
	"github.com/electronjoe/traveldraft/internal/index"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("update-index", flag.ExitOnError)
	var f cli.Flags
	f.Register(fs)
	fs.Usage = cli.Usage(fs, "[flags] <data-root> [travel]",
		"Rebuilds the travel index from every travel.json under the data root,\nor refreshes only the named travel's entry.")
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

	rep, err := index.NewStore(s.Root, s.Log).Rebuild(ctx, s.Only)
	cli.Render(os.Stdout, rep)
	if err != nil {
		return cli.Fail(os.Stderr, err)
	}
	return 0
}
