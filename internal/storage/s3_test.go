package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDataURI(t *testing.T) {
	contentType, data, err := decodeDataURI("data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, []byte("hello"), data)
}

func TestDecodeDataURIDefaultsContentType(t *testing.T) {
	contentType, data, err := decodeDataURI("data:;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, []byte("hello"), data)
}

func TestDecodeDataURIRejectsBadInput(t *testing.T) {
	_, _, err := decodeDataURI("https://cdn.example.com/a.png")
	assert.Error(t, err)

	_, _, err = decodeDataURI("data:image/png;base64")
	assert.Error(t, err)

	_, _, err = decodeDataURI("data:image/png;base64,!!!not-base64!!!")
	assert.Error(t, err)
}

func TestExtensionForContentType(t *testing.T) {
	assert.Equal(t, ".jpg", extensionForContentType("image/jpeg"))
	assert.Equal(t, ".png", extensionForContentType("image/png"))
	assert.Equal(t, ".gif", extensionForContentType("image/gif"))
	assert.Equal(t, ".webp", extensionForContentType("image/webp"))
	assert.Equal(t, "", extensionForContentType("application/pdf"))
}
