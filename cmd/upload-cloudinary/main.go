// Command upload-cloudinary uploads itinerary images to Cloudinary and
// records the results in each itinerary's cloudinary-upload-results.json.
//
// Credentials are read from CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and
// CLOUDINARY_API_SECRET, after loading .env.dev and .env when present.
package main

import (
	"flag"
	"os"

	"github.com/electronjoe/traveldraft/internal/cdn"
	"github.com/electronjoe/traveldraft/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("upload-cloudinary", flag.ExitOnError)
	var f cli.Flags
	f.Register(fs)
	force := fs.Bool("force", false, "upload files already listed in the manifest again")
	fs.Usage = cli.Usage(fs, "[flags] <data-root> [travel]",
		"Uploads itinerary images to Cloudinary.")
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

	creds, err := cdn.LoadCredentials(s.Config.EnvFiles)
	if err != nil {
		return cli.Fail(os.Stderr, err)
	}
	up, err := cdn.NewCloudinaryUploader(creds)
	if err != nil {
		return cli.Fail(os.Stderr, err)
	}

	ctx, stop := cli.Context()
	defer stop()

	svc := cdn.NewService(up, cdn.OptionsFromConfig(s.Config), s.Log)
	rep, err := svc.UploadAll(ctx, s.Root, s.Only, *force)
	cli.Render(os.Stdout, rep)
	if err != nil {
		return cli.Fail(os.Stderr, err)
	}
	return 0
}
