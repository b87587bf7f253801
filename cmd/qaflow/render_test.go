package main

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/qaflow/pkg/render"
)

func TestRenderFileSVG(t *testing.T) {
	sess := newSampleSession(t)
	path := filepath.Join(t.TempDir(), "flow.svg")

	require.NoError(t, renderFile(sess, path, render.DefaultOptions()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
	assert.Contains(t, string(data), "Coffee or tea?")
}

func TestRenderFilePNG(t *testing.T) {
	sess := newSampleSession(t)
	path := filepath.Join(t.TempDir(), "flow.PNG")
	opts := render.DefaultOptions()
	opts.Width, opts.Height = 400, 300

	require.NoError(t, renderFile(sess, path, opts))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
}

func TestRenderFileUnsupported(t *testing.T) {
	sess := newSampleSession(t)
	path := filepath.Join(t.TempDir(), "flow.gif")

	err := renderFile(sess, path, render.DefaultOptions())

	assert.ErrorContains(t, err, "unsupported output format")
	assert.NoFileExists(t, path)
}
