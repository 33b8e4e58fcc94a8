package intake

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromReaderRejectsNonImageType(t *testing.T) {
	_, err := FromReader(strings.NewReader("hello"), "text/plain", 5)
	assert.ErrorIs(t, err, ErrInvalidType)
}

func TestFromReaderRejectsUnsupportedImageType(t *testing.T) {
	// Only the four declared types pass; other image/* subtypes do not.
	for _, mediaType := range []string{"image/gif", "image/tiff", "image/svg+xml", "image/"} {
		_, err := FromReader(strings.NewReader("data"), mediaType, 4)
		assert.ErrorIs(t, err, ErrInvalidType, mediaType)
	}
}

func TestFromReaderRejectsOversizedDeclaredSize(t *testing.T) {
	_, err := FromReader(strings.NewReader(""), "image/jpeg", 21<<20)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestFromReaderRejectsOversizedActualData(t *testing.T) {
	// Declared size lies; the reader still exceeds the cap.
	data := bytes.Repeat([]byte{0xff}, MaxUploadBytes+1)
	_, err := FromReader(bytes.NewReader(data), "image/jpeg", 100)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestFromReaderRejectsEmptyFile(t *testing.T) {
	_, err := FromReader(strings.NewReader(""), "image/png", 0)
	assert.ErrorIs(t, err, ErrReadFailure)
}

func TestFromReaderEncodesDataURL(t *testing.T) {
	data := []byte{0xff, 0xd8, 0xff, 0xe0} // JPEG magic
	img, err := FromReader(bytes.NewReader(data), "image/jpeg", int64(len(data)))
	require.NoError(t, err)

	assert.False(t, img.IsZero())
	assert.Equal(t, "image/jpeg", img.MediaType())
	assert.True(t, strings.HasPrefix(img.DataURL(), "data:image/jpeg;base64,"))

	payload, err := img.Payload()
	require.NoError(t, err)
	assert.Equal(t, data, payload)
}

func TestPayloadOnZeroImage(t *testing.T) {
	var img Image
	_, err := img.Payload()
	assert.ErrorIs(t, err, ErrReadFailure)
}

func TestAllAcceptedTypesPassValidation(t *testing.T) {
	for _, mediaType := range AcceptedTypes {
		img, err := FromReader(strings.NewReader("data"), mediaType, 4)
		require.NoError(t, err, mediaType)
		assert.Equal(t, mediaType, img.MediaType())
	}
}
