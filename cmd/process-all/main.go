// Command process-all runs the local pipeline over a data root: metadata
// extraction, draft generation and the index rebuild. The run stops at the
// first stage that returns an error.
package main

import (
	"flag"
	"os"

	"go.uber.org/zap"

	"github.com/electronjoe/traveldraft/internal/cli"
	"github.com/electronjoe/traveldraft/internal/draft"
	"github.com/electronjoe/traveldraft/internal/geocode"
	"github.com/electronjoe/traveldraft/internal/index"
	"github.com/electronjoe/traveldraft/internal/photo"
	"github.com/electronjoe/traveldraft/internal/report"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("process-all", flag.ExitOnError)
	var f cli.Flags
	f.Register(fs)
	nameClusters := fs.Bool("geocode", false, "name clusters with the reverse geocoder after generating drafts")
	fs.Usage = cli.Usage(fs, "[flags] <data-root>",
		"Extracts metadata, generates drafts and rebuilds the index.")
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

	var reps []*report.Report
	fail := func(err error) int {
		cli.Render(os.Stdout, reps...)
		return cli.Fail(os.Stderr, err)
	}

	// 1. Extract metadata
	s.Log.Info("step 1: extracting image metadata", zap.String("root", s.Root.Dir))
	rep, err := photo.NewExtractor(s.Root.Dir, photo.ExifDecoder{}, s.Log).Run(ctx, s.Only)
	reps = append(reps, rep)
	if err != nil {
		return fail(err)
	}

	// 2. Generate drafts
	s.Log.Info("step 2: generating travel drafts")
	store := index.NewStore(s.Root, s.Log)
	b := draft.NewBuilder(s.Root, store, draft.Options{
		Threshold: s.Config.ClusterDistance,
		Workers:   s.Config.Workers,
	}, s.Log)
	rep, err = b.GenerateAll(ctx, s.Only)
	reps = append(reps, rep)
	if err != nil {
		return fail(err)
	}

	// 3. Optionally name clusters
	if *nameClusters {
		s.Log.Info("step 3: naming clusters")
		namer := geocode.NewNamer(geocode.NewNominatim(s.Config.Geocode), s.Log)
		rep, err = namer.All(ctx, s.Root, s.Only)
		reps = append(reps, rep)
		if err != nil {
			return fail(err)
		}
	}

	// 4. Rebuild the index
	s.Log.Info("step 4: updating travel index")
	rep, err = store.Rebuild(ctx, "")
	reps = append(reps, rep)
	if err != nil {
		return fail(err)
	}

	cli.Render(os.Stdout, reps...)
	s.Log.Info("travel data processing complete")
	return 0
}
