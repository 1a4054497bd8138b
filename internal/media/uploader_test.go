package media

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskUploadDataURI(t *testing.T) {
	dir := t.TempDir()
	d := &Disk{Dir: dir, BaseURL: "/uploads"}

	data := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes"))
	url, err := d.Upload(context.Background(), data, "identity")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "/uploads/identity/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	b, err := os.ReadFile(filepath.Join(dir, "identity", filepath.Base(url)))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(b))
}

func TestDiskUploadRejectsGarbage(t *testing.T) {
	d := &Disk{Dir: t.TempDir(), BaseURL: "/uploads"}

	_, err := d.Upload(context.Background(), "data:text/plain;base64,aGk=", "x")
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = d.Upload(context.Background(), "%%%not-base64", "x")
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestDiskUploadKeepsURL(t *testing.T) {
	d := &Disk{Dir: t.TempDir()}
	url, err := d.Upload(context.Background(), "https://cdn.example.com/a.png", "products")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.png", url)
}

func TestDiskUploadStaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	d := &Disk{Dir: dir, BaseURL: "/uploads"}
	data := base64.StdEncoding.EncodeToString([]byte("x"))

	url, err := d.Upload(context.Background(), data, "../../etc")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/etc/"))
	_, err = os.Stat(filepath.Join(dir, "etc"))
	assert.NoError(t, err)
}
