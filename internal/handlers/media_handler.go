package handlers

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"strconv"
	"strings"

	"github.com/VanshGarg05/WhatsappWebClone/internal/httpx"
	"github.com/VanshGarg05/WhatsappWebClone/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// MaxAttachmentSize bounds a single upload.
const MaxAttachmentSize = 25 << 20

// MediaHandler uploads and serves message attachments. When storage is not
// configured the routes stay registered and answer 503, so text messaging
// works without an object store.
type MediaHandler struct {
	s3 *storage.S3Storage
}

func NewMediaHandler(s3 *storage.S3Storage) *MediaHandler {
	return &MediaHandler{s3: s3}
}

func normalizeETag(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "W/")
	v = strings.Trim(v, "\"")
	return v
}

// UploadAttachment stores a multipart file and returns the object key the
// client puts on its message.
func (h *MediaHandler) UploadAttachment(c *fiber.Ctx) error {
	if h.s3 == nil {
		return httpx.ServiceUnavailable(c, "storage_not_configured", "Storage not configured")
	}

	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return httpx.BadRequest(c, "missing_file", "File is required")
	}
	if fileHeader.Size <= 0 || fileHeader.Size > MaxAttachmentSize {
		return httpx.BadRequest(c, "invalid_file_size", "File is empty or too large")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return httpx.Internal(c, "upload_failed")
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ext := strings.ToLower(path.Ext(fileHeader.Filename))
	key := fmt.Sprintf("attachments/%d/%s%s", userID, uuid.NewString(), ext)

	st, err := h.s3.PutObject(c.Context(), key, file, fileHeader.Size, contentType)
	if err != nil {
		log.Printf("[media] attachment upload error key=%q err=%v", key, err)
		return httpx.Internal(c, "upload_failed")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"attachment_key": key,
		"size":           st.Size,
		"content_type":   contentType,
	})
}

// GetAttachment streams an attachment by key.
func (h *MediaHandler) GetAttachment(c *fiber.Ctx) error {
	if h.s3 == nil {
		return httpx.ServiceUnavailable(c, "storage_not_configured", "Storage not configured")
	}

	key, err := storage.SafeAttachmentKey("attachments/" + strings.TrimSpace(c.Params("*")))
	if err != nil {
		return httpx.NotFound(c, "not_found", "Not found")
	}

	obj, st, err := h.s3.GetObject(c.Context(), key)
	if err != nil {
		var resp minio.ErrorResponse
		if errors.As(err, &resp) {
			if resp.StatusCode == 404 || resp.Code == "NoSuchKey" || resp.Code == "NoSuchObject" {
				return httpx.NotFound(c, "not_found", "Not found")
			}
		}
		log.Printf("[media] attachment get error key=%q err=%v", key, err)
		return httpx.Internal(c, "media_fetch_failed")
	}

	if st.ETag != "" {
		c.Set("ETag", "\""+st.ETag+"\"")
		if inm := normalizeETag(c.Get("If-None-Match")); inm != "" && inm == normalizeETag(st.ETag) {
			_ = obj.Close()
			return c.SendStatus(fiber.StatusNotModified)
		}
	}

	c.Set("Cache-Control", "private, max-age=31536000, immutable")
	if st.ContentType != "" {
		c.Type(st.ContentType)
	} else {
		c.Type("application/octet-stream")
	}
	if st.Size > 0 {
		c.Set("Content-Length", strconv.FormatInt(st.Size, 10))
	}

	// Stream object while capturing any mid-stream errors.
	// (Fiber versions vary; use underlying fasthttp stream writer.)
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			_ = obj.Close()
		}()

		n, copyErr := io.Copy(w, obj)
		flushErr := w.Flush()

		if copyErr != nil {
			log.Printf("[media] attachment stream error key=%q copied=%d err=%v", key, n, copyErr)
			return
		}
		if flushErr != nil {
			log.Printf("[media] attachment stream flush error key=%q copied=%d err=%v", key, n, flushErr)
		}
	})
	return nil
}
