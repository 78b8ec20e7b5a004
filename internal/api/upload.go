package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	apperrors "animehome/backend/pkg/errors"
	"animehome/backend/pkg/logger"
	"animehome/backend/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AvatarDir is the subdirectory of the static root holding uploaded avatars.
const AvatarDir = "avatars"

var imageExtensions = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

// UploadHandler stores avatar images under the static directory
type UploadHandler struct {
	staticDir string
	baseURL   string
}

func NewUploadHandler(staticDir, baseURL string) *UploadHandler {
	return &UploadHandler{staticDir: staticDir, baseURL: strings.TrimRight(baseURL, "/")}
}

func (h *UploadHandler) RegisterRoutes(r gin.IRoutes) {
	handle(r, http.MethodPost, "/upload/avatar", h.UploadAvatar)
}

func (h *UploadHandler) UploadAvatar(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		metrics.AvatarUploads.WithLabelValues("rejected").Inc()
		c.Error(apperrors.ValidationWithDetails("VALIDATION_ERROR", "Missing file field", err.Error()))
		return
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		metrics.AvatarUploads.WithLabelValues("rejected").Inc()
		c.Error(apperrors.NewBadRequestError("INVALID_FILE", "File must be an image"))
		return
	}

	name := uuid.NewString() + avatarExtension(file.Filename, contentType)
	dir := filepath.Join(h.staticDir, AvatarDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		metrics.AvatarUploads.WithLabelValues("failed").Inc()
		c.Error(apperrors.NewInternalServerError("UPLOAD_FAILED", err.Error()))
		return
	}
	if err := c.SaveUploadedFile(file, filepath.Join(dir, name)); err != nil {
		metrics.AvatarUploads.WithLabelValues("failed").Inc()
		c.Error(apperrors.NewInternalServerError("UPLOAD_FAILED", err.Error()))
		return
	}

	metrics.AvatarUploads.WithLabelValues("stored").Inc()
	logger.FromContext(c).Info("avatar stored", "file", name, "size", file.Size)

	c.JSON(http.StatusOK, gin.H{"url": fmt.Sprintf("%s/static/%s/%s", h.baseURL, AvatarDir, name)})
}

// avatarExtension keeps the uploaded file's extension, falling back to one derived from the content type.
func avatarExtension(filename, contentType string) string {
	if ext := filepath.Ext(filepath.Base(filename)); ext != "" && ext != "." {
		return ext
	}
	mediaType, _, _ := strings.Cut(contentType, ";")
	if ext, ok := imageExtensions[strings.TrimSpace(mediaType)]; ok {
		return ext
	}
	return ".png"
}
