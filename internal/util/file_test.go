package util

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectMimeTypeReplaysContent(t *testing.T) {
	content := append([]byte("%PDF-1.7\n"), bytes.Repeat([]byte("x"), 2000)...)

	mime, r, err := DetectMimeType(bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, MimePDF, mime)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestDetectMimeTypeShortInput(t *testing.T) {
	mime, r, err := DetectMimeType(strings.NewReader("hello"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(mime, "text/plain"))

	got, _ := io.ReadAll(r)
	assert.Equal(t, "hello", string(got))
}

func TestValidateMimeType(t *testing.T) {
	assert.NoError(t, ValidateMimeType("audio/mpeg", []string{MimeAudio}))
	assert.NoError(t, ValidateMimeType(MimePDF, []string{MimePDF}))
	assert.ErrorIs(t, ValidateMimeType("text/html; charset=utf-8", []string{MimeAudio, MimeVideo}), ErrUnsupportedMedia)
}

func TestHasExtension(t *testing.T) {
	assert.True(t, HasExtension("Answer.MP3", AllowedAudioExtensions))
	assert.False(t, HasExtension("answer.exe", AllowedFileExtensions))
	assert.False(t, HasExtension("noext", AllowedVideoExtensions))
}
