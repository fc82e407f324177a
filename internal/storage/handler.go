package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ndudarev/filevault/internal/auth"
	"github.com/ndudarev/filevault/internal/httpx"
	"github.com/ndudarev/filevault/internal/models"
	"github.com/ndudarev/filevault/internal/store"
)

// maxUploadBytes caps a single multipart upload held in memory.
const maxUploadBytes = 64 << 20

// FileStore defines the interface for file metadata persistence.
type FileStore interface {
	InsertFile(ctx context.Context, f *models.File) error
	FindFile(ctx context.Context, guid string, public bool) (*models.File, error)
	ListFilesByOwner(ctx context.Context, login string) ([]models.FileEntry, error)
	DeleteFile(ctx context.Context, login, guid string) (bool, error)
}

// BlobStore holds the file bytes, keyed by file GUID.
type BlobStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, string, error)
	Remove(ctx context.Context, key string) error
}

// Handler holds the file storage HTTP handlers.
type Handler struct {
	log   *slog.Logger
	files FileStore
	blobs BlobStore
}

func NewHandler(log *slog.Logger, files FileStore, blobs BlobStore) *Handler {
	return &Handler{log: log, files: files, blobs: blobs}
}

// Download serves the file bytes as an attachment. The lookup filters
// on public=true and the route is not credential-gated: anyone holding
// a GUID can fetch the file.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	guid := r.URL.Query().Get("file_guid")
	if guid == "" {
		httpx.Error(w, http.StatusBadRequest, "file_guid is required")
		return
	}

	f, err := h.files.FindFile(r.Context(), guid, true)
	if errors.Is(err, store.ErrNotFound) {
		httpx.Error(w, http.StatusBadRequest, "file not found")
		return
	}
	if err != nil {
		h.log.Error("file lookup failed", "guid", guid, "err", err)
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	data, ct, err := h.blobs.Download(r.Context(), f.GUID)
	if err != nil {
		h.log.Error("blob download failed", "guid", guid, "err", err)
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if ct == "" {
		ct = f.ContentType
	}
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Filename))
	w.Write(data)
}

// Upload stores the multipart "file" part under the authenticated
// login and returns the freshly issued GUID.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "authorization required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "multipart file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httpx.Error(w, http.StatusBadRequest, "could not read file part")
		return
	}

	// UUIDv1: time-ordered, never reused.
	guid, err := uuid.NewUUID()
	if err != nil {
		h.log.Error("guid generation failed", "err", err)
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	ct := header.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}

	f := &models.File{
		GUID:        guid.String(),
		OwnerLogin:  ac.Login,
		Filename:    header.Filename,
		ContentType: ct,
		Size:        int64(len(data)),
		Public:      true,
	}

	if err := h.blobs.Upload(r.Context(), f.GUID, data, ct); err != nil {
		h.log.Error("blob upload failed", "guid", f.GUID, "err", err)
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if err := h.files.InsertFile(r.Context(), f); err != nil {
		// Metadata insert failed, don't leave an orphaned blob behind.
		if rmErr := h.blobs.Remove(r.Context(), f.GUID); rmErr != nil {
			h.log.Error("orphan blob cleanup failed", "guid", f.GUID, "err", rmErr)
		}
		h.log.Error("file insert failed", "guid", f.GUID, "err", err)
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]string{"file_guid": f.GUID})
}

// List returns filename/GUID pairs for files owned by the caller.
// Files of other owners never appear here, public or not.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "authorization required")
		return
	}

	entries, err := h.files.ListFilesByOwner(r.Context(), ac.Login)
	if err != nil {
		h.log.Error("file list failed", "login", ac.Login, "err", err)
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if entries == nil {
		entries = []models.FileEntry{}
	}

	httpx.JSON(w, http.StatusOK, map[string]interface{}{"files": entries})
}

// Delete removes the requested GUIDs. Only files owned by the caller
// are touched; GUIDs owned by someone else count as not deleted.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "authorization required")
		return
	}

	var req models.DeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Files) == 0 {
		httpx.Error(w, http.StatusBadRequest, "files list is required")
		return
	}

	deleted := 0
	for _, guid := range req.Files {
		ok, err := h.files.DeleteFile(r.Context(), ac.Login, guid)
		if err != nil {
			h.log.Error("file delete failed", "guid", guid, "err", err)
			httpx.Error(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if !ok {
			continue
		}
		deleted++
		if err := h.blobs.Remove(r.Context(), guid); err != nil {
			h.log.Error("blob remove failed", "guid", guid, "err", err)
		}
	}

	if deleted == 0 {
		httpx.Error(w, http.StatusBadRequest, "no files deleted")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}
