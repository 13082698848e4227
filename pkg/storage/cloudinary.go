package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// CloudinaryConfig contains credentials required to talk to Cloudinary.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Cloudinary stores files in a Cloudinary folder. References are secure URLs.
type Cloudinary struct {
	client *cloudinary.Cloudinary
	folder string
	http   *http.Client
	logger zerolog.Logger
}

// NewCloudinary constructs a Cloudinary-backed store.
func NewCloudinary(cfg CloudinaryConfig, logger zerolog.Logger) (*Cloudinary, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Cloudinary{
		client: cld,
		folder: cfg.Folder,
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: logger.With().Str("component", "cloudinary_storage").Logger(),
	}, nil
}

// Upload sends the file to Cloudinary and returns its secure URL.
func (c *Cloudinary) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	folder := strings.Trim(c.folder, "/")
	publicID := buildPublicID(name)

	params := uploader.UploadParams{
		Folder:       folder,
		PublicID:     publicID,
		ResourceType: "auto",
	}

	result, err := c.client.Upload.Upload(ctx, reader, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload asset: %w", err)
	}

	c.logger.Info().Str("public_id", result.PublicID).Msg("file uploaded to cloudinary")

	return result.SecureURL, nil
}

// Download fetches the stored asset by its secure URL.
func (c *Cloudinary) Download(ctx context.Context, ref string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid storage reference: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch asset: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to fetch asset: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// Remove destroys the stored asset.
func (c *Cloudinary) Remove(ctx context.Context, ref string) error {
	publicID := publicIDFromURL(ref, c.folder)
	if publicID == "" {
		return fmt.Errorf("invalid storage reference")
	}

	_, err := c.client.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("failed to destroy asset: %w", err)
	}
	return nil
}

func buildPublicID(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, base)

	base = strings.Trim(base, "-")
	if base == "" {
		base = fmt.Sprintf("upload-%d", time.Now().Unix())
	}

	return fmt.Sprintf("%s-%d", base, time.Now().Unix())
}

// publicIDFromURL recovers the folder-qualified public id from a delivery
// URL. Cloudinary delivery paths end with .../<folder>/<public_id>.<ext>.
func publicIDFromURL(ref, folder string) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return ""
	}

	idx := strings.Index(ref, "/"+folder+"/")
	if idx < 0 {
		return ""
	}

	tail := ref[idx+1:]
	if ext := filepath.Ext(tail); ext != "" {
		tail = strings.TrimSuffix(tail, ext)
	}
	return tail
}
