package twitter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// Uploader is the classic v1.1 handle. It is only used to upload media;
// posts are created through a Session.
type Uploader struct {
	client *client
}

// NewUploader builds a media upload handle from the factory's credentials.
// It makes no network call.
func (f *Factory) NewUploader(ctx context.Context) (*Uploader, error) {
	c, err := newClient(ctx, f.cfg, f.limiter)
	if err != nil {
		return nil, err
	}
	return &Uploader{client: c}, nil
}

// UploadMedia uploads the file at path and returns the media handle.
func (u *Uploader) UploadMedia(ctx context.Context, path string) (*Media, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open media: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("media", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("read media: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	var media Media
	url := u.client.cfg.UploadBaseURL + "/1.1/media/upload.json"
	if err := u.client.send(ctx, authUser, http.MethodPost, url, buf.Bytes(), w.FormDataContentType(), &media); err != nil {
		return nil, fmt.Errorf("upload media %s: %w", filepath.Base(path), err)
	}
	if media.MediaID == "" {
		return nil, fmt.Errorf("upload media %s: response has no media id", filepath.Base(path))
	}
	return &media, nil
}
