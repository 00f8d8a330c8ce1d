package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-result-service/internal/config"
)

func TestLocalPutAndDelete(t *testing.T) {
	root := t.TempDir()
	store := NewLocal(root, "https://cdn.example.com/reports/")

	url, err := store.Put(context.Background(), "quiz-results-basics-r1.pdf", []byte("%PDF-1.3"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/reports/quiz-results-basics-r1.pdf", url)

	data, err := os.ReadFile(filepath.Join(root, "quiz-results-basics-r1.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3", string(data))

	require.NoError(t, store.Delete(context.Background(), "quiz-results-basics-r1.pdf"))
	_, err = os.Stat(filepath.Join(root, "quiz-results-basics-r1.pdf"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalKeepsObjectsInsideRoot(t *testing.T) {
	root := t.TempDir()
	store := NewLocal(root, "")

	_, err := store.Put(context.Background(), "../../escape.pdf", []byte("x"), "application/pdf")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "escape.pdf"))
	assert.NoError(t, err, "traversal should be folded into the root")

	_, err = store.Put(context.Background(), "", []byte("x"), "application/pdf")
	assert.Error(t, err)
}

func TestNewPicksProvider(t *testing.T) {
	var cfg config.Config
	cfg.Storage.LocalPath = t.TempDir()
	p, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &Local{}, p)
	assert.Equal(t, "/reports/a.pdf", p.URL("a.pdf"))

	cfg.Storage.Type = "ftp"
	_, err = New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestMinioURL(t *testing.T) {
	m := newMinio(nil, MinioConfig{Bucket: "reports"})
	assert.Equal(t, "/reports/r.pdf", m.URL("r.pdf"))

	m = newMinio(nil, MinioConfig{Bucket: "reports", PublicBaseURL: "https://files.example.com/reports/"})
	assert.Equal(t, "https://files.example.com/reports/r.pdf", m.URL("r.pdf"))
}
