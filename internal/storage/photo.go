// Package storage validates uploaded photos. Photos are kept as bytes plus a MIME
// type in the owning row and served back through a URL built by PhotoURL.
package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gabriel-vasile/mimetype"
	"github.com/yukikurage/civic-proposals-api/internal/constants"
)

var (
	ErrPhotoTooLarge       = fmt.Errorf("photo exceeds %d MB", constants.MaxPhotoBytes>>20)
	ErrPhotoTypeNotAllowed = errors.New("photo must be JPEG, PNG, GIF or WebP")
	ErrPhotoEmpty          = errors.New("photo is empty")
)

// AllowedPhotoTypes applies to account and proposal photos alike.
var AllowedPhotoTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Photo is an opaque blob tagged with its detected MIME type.
type Photo struct {
	Data []byte
	MIME string
}

// NewPhoto validates size and detects the type from the content, ignoring any
// client-declared content type.
func NewPhoto(data []byte) (*Photo, error) {
	if len(data) == 0 {
		return nil, ErrPhotoEmpty
	}
	if len(data) > constants.MaxPhotoBytes {
		return nil, ErrPhotoTooLarge
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), AllowedPhotoTypes...) {
		return nil, ErrPhotoTypeNotAllowed
	}

	return &Photo{Data: data, MIME: mtype.String()}, nil
}

// ReadPhoto reads an uploaded multipart file.
func ReadPhoto(fh *multipart.FileHeader) (*Photo, error) {
	if fh.Size > constants.MaxPhotoBytes {
		return nil, ErrPhotoTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open photo: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, constants.MaxPhotoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read photo: %w", err)
	}
	return NewPhoto(data)
}

// IsPhotoError reports whether err is a client-side photo validation failure.
func IsPhotoError(err error) bool {
	return errors.Is(err, ErrPhotoTooLarge) || errors.Is(err, ErrPhotoTypeNotAllowed) || errors.Is(err, ErrPhotoEmpty)
}

// PhotoURL is the path a stored photo is served from, e.g. /proposte/<id>/photo.
func PhotoURL(resource, id string) string {
	return "/" + resource + "/" + id + "/photo"
}
