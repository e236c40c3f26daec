package media

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader is enough for http.DetectContentType to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hamlet":                  "hamlet",
		"  The Cherry Orchard!  ": "the-cherry-orchard",
		"Waiting--for   Godot":    "waiting-for-godot",
		"???":                     "play",
		"Три сестры":              "play",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestSavePlayImage(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root, 1<<20)

	rel, err := s.SavePlayImage("King Lear", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "uploads/plays/king-lear-"), rel)
	assert.True(t, strings.HasSuffix(rel, ".png"), rel)

	got, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, got)

	require.NoError(t, s.Remove(rel))
	require.NoError(t, s.Remove(rel), "removing twice is not an error")
}

func TestSavePlayImageRejects(t *testing.T) {
	s := NewStore(t.TempDir(), 8)

	_, err := s.SavePlayImage("x", bytes.NewReader(pngHeader))
	assert.ErrorIs(t, err, ErrTooLarge)

	s.MaxBytes = 1 << 20
	_, err = s.SavePlayImage("x", strings.NewReader("just some text"))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}
