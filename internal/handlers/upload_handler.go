package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/laporinpolisi/laporin-backend/internal/apperror"
	"github.com/laporinpolisi/laporin-backend/internal/dto"
	"github.com/laporinpolisi/laporin-backend/internal/storage"
)

// ImageStore persists an image and returns the URL it is publicly served from.
type ImageStore interface {
	Put(ctx context.Context, contentType string, body io.Reader) (string, error)
}

type UploadHandler struct {
	store    ImageStore
	maxBytes int
}

// NewUploadHandler accepts a nil store; uploads then answer 503.
func NewUploadHandler(store ImageStore, maxBytes int) *UploadHandler {
	return &UploadHandler{store: store, maxBytes: maxBytes}
}

func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	if h.store == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Error: true, Code: "unavailable", Message: "Image uploads are not configured",
		})
	}

	header, err := c.FormFile("file")
	if err != nil {
		return respondError(c, "upload", apperror.Validation("file", "file is required"))
	}
	if header.Size > int64(h.maxBytes) {
		return respondError(c, "upload", apperror.Validation("file", fmt.Sprintf("file must be at most %d bytes", h.maxBytes)))
	}

	f, err := header.Open()
	if err != nil {
		return respondError(c, "upload", apperror.Internal("failed to read upload", err))
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, int64(h.maxBytes)+1))
	if err != nil {
		return respondError(c, "upload", apperror.Internal("failed to read upload", err))
	}
	if len(data) > h.maxBytes {
		return respondError(c, "upload", apperror.Validation("file", fmt.Sprintf("file must be at most %d bytes", h.maxBytes)))
	}

	// Sniff rather than trust the client's Content-Type.
	contentType := http.DetectContentType(data)
	if !storage.Supported(contentType) {
		return respondError(c, "upload", apperror.Validation("file", "only jpeg, png, webp and gif images are allowed"))
	}

	url, err := h.store.Put(c.UserContext(), contentType, bytes.NewReader(data))
	if err != nil {
		return respondError(c, "upload", apperror.Internal("failed to store image", err))
	}
	return c.Status(fiber.StatusCreated).JSON(dto.UploadResponse{URL: url})
}
