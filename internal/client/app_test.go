package client

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newDownloadServer serves fixed bytes with the given attachment
// filename, whatever GUID is asked for.
func newDownloadServer(t *testing.T, filename string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		w.Write([]byte("payload"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(srvURL string) *App {
	return NewApp(NewAPI(srvURL), strings.NewReader(""), &bytes.Buffer{})
}

func TestDownloadDefaultDestStaysInWorkingDir(t *testing.T) {
	srv := newDownloadServer(t, "../escaped.txt")
	app := newTestApp(srv.URL)

	dir := t.TempDir()
	work := filepath.Join(dir, "work")
	require.NoError(t, os.Mkdir(work, 0o755))
	t.Chdir(work)

	require.NoError(t, app.download(context.Background(), "g1", ""))

	// The base name lands in the working directory, not its parent.
	_, err := os.Stat(filepath.Join(work, "escaped.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "escaped.txt"))
	assert.True(t, os.IsNotExist(err), "file must not be written outside the working directory")
}

func TestDownloadDefaultDestAbsolutePath(t *testing.T) {
	outside := filepath.Join(t.TempDir(), "evil.txt")
	srv := newDownloadServer(t, outside)
	app := newTestApp(srv.URL)

	t.Chdir(t.TempDir())

	require.NoError(t, app.download(context.Background(), "g1", ""))

	_, err := os.Stat("evil.txt")
	assert.NoError(t, err)
	_, err = os.Stat(outside)
	assert.True(t, os.IsNotExist(err))
}

func TestDownloadDefaultDestDirectoryOnly(t *testing.T) {
	// A filename that reduces to no usable base name falls back to the GUID.
	srv := newDownloadServer(t, "..")
	app := newTestApp(srv.URL)

	t.Chdir(t.TempDir())

	require.NoError(t, app.download(context.Background(), "g1", ""))

	_, err := os.Stat("g1")
	assert.NoError(t, err)
}

func TestDownloadExplicitDestWins(t *testing.T) {
	srv := newDownloadServer(t, "report.csv")
	app := newTestApp(srv.URL)

	dir := t.TempDir()
	dest := filepath.Join(dir, "mine.csv")

	require.NoError(t, app.download(context.Background(), "g1", dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}
