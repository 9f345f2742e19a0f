package media

import (
	"context"
	"errors"
	"fmt"
	"io"

	"coursehub/internal/domain"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const thumbnailFolder = "coursehub/thumbnails"

type CloudinaryUploader struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryUploader(cloudName, apiKey, apiSecret string) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	return &CloudinaryUploader{cld: cld}, nil
}

// Upload stores the image and returns its public https URL.
func (u *CloudinaryUploader) Upload(ctx context.Context, file io.Reader) (string, error) {
	resp, err := u.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder: thumbnailFolder,
	})
	if err != nil {
		return "", fmt.Errorf("upload thumbnail: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("upload thumbnail: %s", resp.Error.Message)
	}
	if resp.SecureURL == "" {
		return "", errors.New("upload thumbnail: empty url")
	}
	return resp.SecureURL, nil
}

// Disabled is used when no image host is configured.
type Disabled struct{}

func (Disabled) Upload(context.Context, io.Reader) (string, error) {
	return "", domain.ErrUploadUnavailable
}
