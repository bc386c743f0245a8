package report

import (
	"context"

	"attendancetracker/internal/cloudinary"
	"attendancetracker/internal/config"
)

// NewUploader returns the archive configured in cfg: S3 when a bucket is set, otherwise
// Cloudinary when a cloud name and credentials are set. It returns nil when archiving is off.
func NewUploader(ctx context.Context, cfg config.App) (Uploader, error) {
	if cfg.S3.Bucket != "" {
		u, err := NewS3Uploader(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return u, nil
	}
	c := cfg.Cloudinary
	if c.CloudName != "" && c.APIKey != "" && c.APISecret != "" {
		return cloudinary.New(c.CloudName, c.APIKey, c.APISecret, c.Folder), nil
	}
	return nil, nil
}
