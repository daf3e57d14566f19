// Command geocode names the photo clusters of generated itineraries after the
// place they were taken, using the Nominatim reverse geocoder.
package main

import (
	"flag"
	"os"

	"github.com/electronjoe/traveldraft/internal/cli"
	"github.com/electronjoe/traveldraft/internal/geocode"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("geocode", flag.ExitOnError)
	var f cli.Flags
	f.Register(fs)
	endpoint := fs.String("endpoint", "", "reverse geocoding endpoint (default from config)")
	fs.Usage = cli.Usage(fs, "[flags] <data-root> [travel]",
		"Fills in missing cluster names in every itinerary document.")
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

	cfg := s.Config.Geocode
	if *endpoint != "" {
		cfg.Endpoint = *endpoint
	}

	ctx, stop := cli.Context()
	defer stop()

	namer := geocode.NewNamer(geocode.NewNominatim(cfg), s.Log)
	rep, err := namer.All(ctx, s.Root, s.Only)
	cli.Render(os.Stdout, rep)
	if err != nil {
		return cli.Fail(os.Stderr, err)
	}
	return 0
}
