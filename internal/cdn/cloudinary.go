package cdn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/joho/godotenv"
)

// Credential environment variables.
const (
	EnvCloudName = "CLOUDINARY_CLOUD_NAME"
	EnvAPIKey    = "CLOUDINARY_API_KEY"
	EnvAPISecret = "CLOUDINARY_API_SECRET"
)

var (
	ErrMissingCredentials = errors.New("missing Cloudinary credentials")
	// ErrFileTooLarge is returned when the store rejects a payload by size.
	ErrFileTooLarge = errors.New("file size too large")
)

// Credentials identify a Cloudinary account.
type Credentials struct {
	CloudName string
	APIKey    string
	APISecret string
}

// LoadCredentials loads the dotfiles that exist among envFiles, then reads
// the credentials from the environment. Variables already set in the
// environment take precedence over the dotfiles.
func LoadCredentials(envFiles []string) (Credentials, error) {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return Credentials{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	c := Credentials{
		CloudName: os.Getenv(EnvCloudName),
		APIKey:    os.Getenv(EnvAPIKey),
		APISecret: os.Getenv(EnvAPISecret),
	}
	var missing []string
	for _, kv := range [][2]string{{EnvCloudName, c.CloudName}, {EnvAPIKey, c.APIKey}, {EnvAPISecret, c.APISecret}} {
		if kv[1] == "" {
			missing = append(missing, kv[0])
		}
	}
	if len(missing) > 0 {
		return Credentials{}, fmt.Errorf("%w: %s not set", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return c, nil
}

// Upload profiles, as Cloudinary transformation strings.
var profiles = map[Profile]struct {
	transformation string
	eager          string
}{
	ProfileStandard: {
		transformation: "q_auto:good",
		eager:          "c_limit,h_600,q_auto:good,w_800|c_limit,h_300,q_auto:eco,w_400",
	},
	ProfileAggressive: {
		transformation: "c_limit,h_1500,w_2000/q_auto:low",
		eager:          "c_limit,h_600,q_auto:eco,w_800|c_limit,h_300,q_auto:eco,w_400",
	},
	ProfileMaximum: {
		transformation: "c_limit,h_1200,w_1500/q_30",
	},
}

// CloudinaryUploader is the Uploader backed by the Cloudinary upload API.
type CloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinaryUploader configures a client for the account in c.
func NewCloudinaryUploader(c Credentials) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromParams(c.CloudName, c.APIKey, c.APISecret)
	if err != nil {
		return nil, fmt.Errorf("configure cloudinary: %w", err)
	}
	return &CloudinaryUploader{cld: cld}, nil
}

// Upload implements Uploader.
func (u *CloudinaryUploader) Upload(ctx context.Context, body io.Reader, req Request) (*Result, error) {
	p := profiles[req.Profile]
	res, err := u.cld.Upload.Upload(ctx, body, uploader.UploadParams{
		PublicID:       req.PublicID,
		ResourceType:   "image",
		Transformation: p.transformation,
		Eager:          p.eager,
	})
	if err != nil {
		return nil, classify(err.Error(), err)
	}
	if res.Error.Message != "" {
		return nil, classify(res.Error.Message, errors.New(res.Error.Message))
	}

	out := &Result{
		PublicID:  res.PublicID,
		SecureURL: res.SecureURL,
		Bytes:     int64(res.Bytes),
	}
	for _, e := range res.Eager {
		out.EagerURLs = append(out.EagerURLs, e.SecureURL)
	}
	return out, nil
}

func classify(msg string, err error) error {
	if strings.Contains(msg, "File size too large") {
		return fmt.Errorf("%w: %v", ErrFileTooLarge, err)
	}
	return err
}
