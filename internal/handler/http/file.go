package http

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/ops-portal/internal/handler/http/response"
	"github.com/cmlabs-hris/ops-portal/internal/service/file"
	"github.com/go-chi/chi/v5"
)

// PhotoTokenValidator checks a signed view token against the requested path
type PhotoTokenValidator interface {
	ValidatePhotoToken(token string, path string) error
}

type FileHandler interface {
	ServeAttendancePhoto(w http.ResponseWriter, r *http.Request)
}

type fileHandlerImpl struct {
	fileService file.FileService
	tokens      PhotoTokenValidator
}

func NewFileHandler(fileService file.FileService, tokens PhotoTokenValidator) FileHandler {
	return &fileHandlerImpl{
		fileService: fileService,
		tokens:      tokens,
	}
}

// ServeAttendancePhoto streams an attendance photo to holders of a valid
// signed link. Mounted under /files so the wildcard is the storage path.
func (h *fileHandlerImpl) ServeAttendancePhoto(w http.ResponseWriter, r *http.Request) {
	path := "attendance/" + chi.URLParam(r, "*")

	token := r.URL.Query().Get("token")
	if token == "" {
		response.Unauthorized(w, "Missing file token")
		return
	}

	if err := h.tokens.ValidatePhotoToken(token, path); err != nil {
		slog.Warn("Rejected attendance photo token", "path", path, "error", err)
		response.Unauthorized(w, "Invalid or expired file link")
		return
	}

	reader, err := h.fileService.OpenFile(r.Context(), path)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, reader); err != nil {
		slog.Error("Failed to stream attendance photo", "path", path, "error", err)
	}
}
