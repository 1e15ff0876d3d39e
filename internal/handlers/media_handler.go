package handlers

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"github.com/chatwave/chatwave-backend/internal/httpx"
	"github.com/chatwave/chatwave-backend/internal/storage"
)

const maxUploadBytes = 25 << 20 // 25 MiB

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

// UploadMedia stores a multipart file and returns the key clients embed in
// file-kind messages as fileUrl.
func (h *MediaHandler) UploadMedia(c *fiber.Ctx) error {
	if h.s3 == nil {
		return httpx.Unavailable(c, "storage_not_configured", "Storage not configured")
	}

	userID, err := httpx.LocalUint(c, "userID")
	if err != nil {
		return httpx.Unauthorized(c, "unauthorized", "Unauthorized")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return httpx.BadRequest(c, "missing_file", "Missing file field")
	}
	if fh.Size <= 0 || fh.Size > maxUploadBytes {
		return httpx.TooLarge(c, "file_too_large", "File too large")
	}

	src, err := fh.Open()
	if err != nil {
		return httpx.Internal(c, "media_open_failed")
	}
	defer src.Close()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(fh.Filename))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	key, err := storage.SafeJoinMediaPath("media", fmt.Sprintf("%d/%s%s", userID, uuid.NewString(), ext))
	if err != nil {
		return httpx.BadRequest(c, "invalid_filename", "Invalid filename")
	}

	st, err := h.s3.PutObject(c.Context(), key, src, fh.Size, contentType)
	if err != nil {
		log.Printf("[media] upload error user=%d key=%q err=%v", userID, key, err)
		return httpx.Internal(c, "media_upload_failed")
	}

	log.Printf("[media] upload ok user=%d key=%q size=%d", userID, key, st.Size)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"key":          key,
		"url":          "/api/media/" + key,
		"size":         st.Size,
		"content_type": contentType,
	})
}

func (h *MediaHandler) GetMedia(c *fiber.Ctx) error {
	if h.s3 == nil {
		return httpx.Unavailable(c, "storage_not_configured", "Storage not configured")
	}

	keyParam := strings.TrimSpace(c.Params("*"))
	key, err := storage.SafeJoinMediaPath("", keyParam)
	if err != nil {
		return httpx.NotFound(c, "not_found", "Not found")
	}

	obj, st, err := h.s3.GetObject(c.Context(), key)
	if err != nil {
		log.Printf("[media] get error key=%q err=%v", key, err)
		// Hide details.
		var resp minio.ErrorResponse
		if errors.As(err, &resp) {
			if resp.StatusCode == 404 || resp.Code == "NoSuchKey" || resp.Code == "NoSuchObject" {
				return httpx.NotFound(c, "not_found", "Not found")
			}
		}
		return httpx.Internal(c, "media_fetch_failed")
	}

	etag := st.ETag
	if etag != "" {
		c.Set("ETag", "\""+etag+"\"")
		if inm := normalizeETag(c.Get("If-None-Match")); inm != "" && inm == normalizeETag(etag) {
			_ = obj.Close()
			return c.SendStatus(fiber.StatusNotModified)
		}
	}
	if !st.LastModified.IsZero() {
		c.Set("Last-Modified", st.LastModified.UTC().Format(time.RFC1123))
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
			log.Printf("[media] stream error key=%q copied=%d err=%v", key, n, copyErr)
			return
		}
		if flushErr != nil {
			log.Printf("[media] stream flush error key=%q copied=%d err=%v", key, n, flushErr)
			return
		}
	})
	return nil
}
