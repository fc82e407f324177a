package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndudarev/filevault/internal/auth"
	"github.com/ndudarev/filevault/internal/models"
	"github.com/ndudarev/filevault/internal/store"
)

type memFiles struct {
	docs map[string]*models.File
	err  error
}

func newMemFiles() *memFiles {
	return &memFiles{docs: map[string]*models.File{}}
}

func (m *memFiles) InsertFile(ctx context.Context, f *models.File) error {
	if m.err != nil {
		return m.err
	}
	cp := *f
	m.docs[f.GUID] = &cp
	return nil
}

func (m *memFiles) FindFile(ctx context.Context, guid string, public bool) (*models.File, error) {
	if m.err != nil {
		return nil, m.err
	}
	f, ok := m.docs[guid]
	if !ok || f.Public != public {
		return nil, store.ErrNotFound
	}
	return f, nil
}

func (m *memFiles) ListFilesByOwner(ctx context.Context, login string) ([]models.FileEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	var entries []models.FileEntry
	for _, f := range m.docs {
		if f.OwnerLogin == login {
			entries = append(entries, models.FileEntry{Filename: f.Filename, GUID: f.GUID})
		}
	}
	return entries, nil
}

func (m *memFiles) DeleteFile(ctx context.Context, login, guid string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	f, ok := m.docs[guid]
	if !ok || f.OwnerLogin != login {
		return false, nil
	}
	delete(m.docs, guid)
	return true, nil
}

type memBlobs struct {
	objects map[string][]byte
	types   map[string]string
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memBlobs) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memBlobs) Download(ctx context.Context, key string) ([]byte, string, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, "", store.ErrNotFound
	}
	return data, m.types[key], nil
}

func (m *memBlobs) Remove(ctx context.Context, key string) error {
	delete(m.objects, key)
	delete(m.types, key)
	return nil
}

func newTestHandler(files FileStore, blobs BlobStore) *Handler {
	return NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), files, blobs)
}

func asUser(req *http.Request, login string) *http.Request {
	return req.WithContext(auth.WithContext(req.Context(), &auth.Context{Login: login}))
}

func multipartBody(t *testing.T, field, filename string, data []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mp := multipart.NewWriter(&buf)
	part, err := mp.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mp.Close())
	return &buf, mp.FormDataContentType()
}

func uploadAs(t *testing.T, h *Handler, login, filename string, data []byte) string {
	t.Helper()
	body, ct := multipartBody(t, "file", filename, data)
	req := httptest.NewRequest(http.MethodPost, "/file_storage", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.Upload(rec, asUser(req, login))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		FileGUID string `json:"file_guid"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.FileGUID)
	return resp.FileGUID
}

func TestUploadStoresOwnerAndContent(t *testing.T) {
	files, blobs := newMemFiles(), newMemBlobs()
	h := newTestHandler(files, blobs)

	guid := uploadAs(t, h, "alice", "report.csv", []byte("a,b\n1,2\n"))

	f := files.docs[guid]
	require.NotNil(t, f)
	assert.Equal(t, "alice", f.OwnerLogin)
	assert.Equal(t, "report.csv", f.Filename)
	assert.True(t, f.Public)
	assert.Equal(t, int64(8), f.Size)
	assert.Equal(t, []byte("a,b\n1,2\n"), blobs.objects[guid])
}

func TestUploadIssuesFreshGUIDs(t *testing.T) {
	h := newTestHandler(newMemFiles(), newMemBlobs())

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		guid := uploadAs(t, h, "alice", "report.csv", []byte("x"))
		assert.False(t, seen[guid], "guid %s reused", guid)
		seen[guid] = true
	}
}

func TestUploadMissingFilePart(t *testing.T) {
	h := newTestHandler(newMemFiles(), newMemBlobs())

	body, ct := multipartBody(t, "wrong_field", "report.csv", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/file_storage", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.Upload(rec, asUser(req, "alice"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadWithoutContext(t *testing.T) {
	h := newTestHandler(newMemFiles(), newMemBlobs())

	body, ct := multipartBody(t, "file", "report.csv", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/file_storage", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	h.Upload(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDownload(t *testing.T) {
	files, blobs := newMemFiles(), newMemBlobs()
	h := newTestHandler(files, blobs)
	guid := uploadAs(t, h, "alice", "report.csv", []byte("a,b\n"))

	req := httptest.NewRequest(http.MethodGet, "/file_storage?file_guid="+guid, nil)
	rec := httptest.NewRecorder()
	h.Download(rec, req) // no auth context: download is public

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a,b\n", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `attachment`)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `report.csv`)
}

func TestDownloadMissingGUID(t *testing.T) {
	h := newTestHandler(newMemFiles(), newMemBlobs())

	req := httptest.NewRequest(http.MethodGet, "/file_storage", nil)
	rec := httptest.NewRecorder()
	h.Download(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadUnknownGUID(t *testing.T) {
	h := newTestHandler(newMemFiles(), newMemBlobs())

	req := httptest.NewRequest(http.MethodGet, "/file_storage?file_guid=nope", nil)
	rec := httptest.NewRecorder()
	h.Download(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListScopedToOwner(t *testing.T) {
	files, blobs := newMemFiles(), newMemBlobs()
	h := newTestHandler(files, blobs)

	guid := uploadAs(t, h, "alice", "report.csv", []byte("x"))
	uploadAs(t, h, "bob", "notes.txt", []byte("y"))

	req := httptest.NewRequest(http.MethodGet, "/file_storage/all", nil)
	rec := httptest.NewRecorder()
	h.List(rec, asUser(req, "alice"))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Files []models.FileEntry `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Files, 1)
	assert.Equal(t, "report.csv", resp.Files[0].Filename)
	assert.Equal(t, guid, resp.Files[0].GUID)

	// A different user sees an empty list, public flag notwithstanding.
	req = httptest.NewRequest(http.MethodGet, "/file_storage/all", nil)
	rec = httptest.NewRecorder()
	h.List(rec, asUser(req, "carol"))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Files)
	assert.Contains(t, rec.Body.String(), `"files":[]`)
}

func deleteAs(t *testing.T, h *Handler, login string, guids []string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(models.DeleteRequest{Files: guids})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodDelete, "/file_storage", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.Delete(rec, asUser(req, login))
	return rec
}

func TestDeleteOwnFiles(t *testing.T) {
	files, blobs := newMemFiles(), newMemBlobs()
	h := newTestHandler(files, blobs)

	g1 := uploadAs(t, h, "alice", "a.csv", []byte("1"))
	g2 := uploadAs(t, h, "alice", "b.csv", []byte("2"))

	rec := deleteAs(t, h, "alice", []string{g1, g2})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, files.docs)
	assert.Empty(t, blobs.objects)
}

func TestDeleteSomeoneElsesFile(t *testing.T) {
	files, blobs := newMemFiles(), newMemBlobs()
	h := newTestHandler(files, blobs)

	guid := uploadAs(t, h, "bob", "b.csv", []byte("2"))

	rec := deleteAs(t, h, "alice", []string{guid})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Bob's file is untouched.
	assert.Contains(t, files.docs, guid)
	assert.Contains(t, blobs.objects, guid)
}

func TestDeleteValidation(t *testing.T) {
	h := newTestHandler(newMemFiles(), newMemBlobs())

	req := httptest.NewRequest(http.MethodDelete, "/file_storage", strings.NewReader(`{`))
	rec := httptest.NewRecorder()
	h.Delete(rec, asUser(req, "alice"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = deleteAs(t, h, "alice", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
