package intake

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// MaxUploadBytes is the size ceiling for uploaded photos (20 MiB).
const MaxUploadBytes = 20 << 20

// base64Marker separates the data-URL header from the encoded payload.
const base64Marker = ";base64,"

var (
	// ErrInvalidType is returned when the declared media type is not an image type.
	ErrInvalidType = errors.New("file is not an image")
	// ErrTooLarge is returned when the upload exceeds MaxUploadBytes.
	ErrTooLarge = fmt.Errorf("image exceeds the %d MiB size limit", MaxUploadBytes>>20)
	// ErrReadFailure is returned when the upload could not be read.
	ErrReadFailure = errors.New("failed to read image data")
)

// AcceptedTypes lists the declared media types an upload may carry.
var AcceptedTypes = []string{"image/jpeg", "image/png", "image/jpg", "image/webp"}

// Image is an immutable uploaded photo held as a base64 data URL together
// with its declared media type. A new upload replaces it wholesale.
type Image struct {
	dataURL   string
	mediaType string
}

// FromReader validates and reads an uploaded file into an Image.
// mediaType is the type declared by the client, size the declared byte size.
func FromReader(r io.Reader, mediaType string, size int64) (Image, error) {
	if !slices.Contains(AcceptedTypes, mediaType) {
		return Image{}, fmt.Errorf("%w (got %q)", ErrInvalidType, mediaType)
	}
	if size > MaxUploadBytes {
		return Image{}, ErrTooLarge
	}

	// LimitReader enforces the cap even when the declared size is wrong.
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrReadFailure, err)
	}
	if len(data) > MaxUploadBytes {
		return Image{}, ErrTooLarge
	}
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%w: empty file", ErrReadFailure)
	}

	return FromBytes(data, mediaType), nil
}

// FromBytes encodes raw image bytes into an Image without validation.
func FromBytes(data []byte, mediaType string) Image {
	return Image{
		dataURL:   fmt.Sprintf("data:%s%s%s", mediaType, base64Marker, base64.StdEncoding.EncodeToString(data)),
		mediaType: mediaType,
	}
}

// DataURL returns the image as a base64 data URL.
func (i Image) DataURL() string { return i.dataURL }

// MediaType returns the declared media type of the image.
func (i Image) MediaType() string { return i.mediaType }

// IsZero reports whether no image has been set.
func (i Image) IsZero() bool { return i.dataURL == "" }

// Payload decodes the raw image bytes back out of the data URL.
func (i Image) Payload() ([]byte, error) {
	_, encoded, ok := strings.Cut(i.dataURL, base64Marker)
	if !ok || encoded == "" {
		return nil, fmt.Errorf("%w: missing base64 payload", ErrReadFailure)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFailure, err)
	}
	return data, nil
}
