package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://example.com/a.csv"))
	assert.True(t, IsRemote("HTTP://example.com/a.csv"))
	assert.True(t, IsRemote("ftp://example.com/a.csv"))
	assert.False(t, IsRemote("data/DB_Covid.csv"))
	assert.False(t, IsRemote("/abs/path.csv"))
	assert.False(t, IsRemote("file:///abs/path.csv"))
}

func TestRouter_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(path, []byte("fips\n1001\n"), 0o644))

	r := NewRouter(Options{})
	data, err := r.ReadAll(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "fips\n1001\n", string(data))

	dest := filepath.Join(t.TempDir(), "copy.csv")
	n, err := r.DownloadToFile(context.Background(), path, dest)
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)

	_, err = r.ReadAll(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestRouter_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("remote"))
	}))
	defer srv.Close()

	r := NewRouter(Options{HTTP: HTTPOptions{PerHostRate: 1000}})
	data, err := r.ReadAll(context.Background(), srv.URL+"/x.csv")
	require.NoError(t, err)
	assert.Equal(t, "remote", string(data))
}
