package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/your-org/stylerec/internal/auth"
	"github.com/your-org/stylerec/internal/models"
	"github.com/your-org/stylerec/internal/storage"
	"github.com/your-org/stylerec/pkg/dto"
)

// maxUploadBytes caps style photo uploads at 10 MiB.
const maxUploadBytes = 10 << 20

type StyleImageHandler struct {
	db       Store
	objects  ObjectStore
	producer TaskPublisher
}

func NewStyleImageHandler(db Store, objects ObjectStore, producer TaskPublisher) *StyleImageHandler {
	return &StyleImageHandler{db: db, objects: objects, producer: producer}
}

// Upload accepts a multipart style photo, stores it and enqueues the
// processing task. Responds 202: results arrive as a notification.
func (h *StyleImageHandler) Upload(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		return
	}

	file, _, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file required"})
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read image failed"})
		return
	}
	if len(imageData) > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
		return
	}

	si, err := h.db.CreateStyleImage(c.Request.Context(), userID, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	key := storage.StyleImageKey(si.ID)
	if err := h.objects.PutObject(c.Request.Context(), key, imageData, "image/jpeg"); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store image failed"})
		return
	}
	si.ImageKey = key

	task := models.StyleImageTask{
		StyleImageID: si.ID,
		UserID:       userID,
		ImageKey:     key,
		UploadedAt:   si.UploadedAt,
	}
	if err := h.producer.PublishStyleImageTask(c.Request.Context(), si.ID.String(), task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "enqueue processing failed"})
		return
	}

	c.JSON(http.StatusAccepted, dto.UploadResponse{
		ID:         si.ID,
		Status:     "queued",
		UploadedAt: si.UploadedAt.Format(timeFormat),
	})
}

func (h *StyleImageHandler) List(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		return
	}

	images, err := h.db.ListStyleImages(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.StyleImageResponse, 0, len(images))
	for _, si := range images {
		resp = append(resp, dto.StyleImageResponse{
			ID:         si.ID,
			UserID:     si.UserID,
			ImageKey:   si.ImageKey,
			UploadedAt: si.UploadedAt.Format(timeFormat),
		})
	}

	c.JSON(http.StatusOK, dto.StyleImageListResponse{Images: resp, Total: len(resp)})
}

// Get returns one style image with the segments the pipeline cut from it.
func (h *StyleImageHandler) Get(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid style image id"})
		return
	}

	si, err := h.db.GetStyleImage(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "style image not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if si.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "style image not found"})
		return
	}

	segments, err := h.db.ListSegments(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := dto.StyleImageResponse{
		ID:         si.ID,
		UserID:     si.UserID,
		ImageKey:   si.ImageKey,
		UploadedAt: si.UploadedAt.Format(timeFormat),
	}
	for _, seg := range segments {
		resp.Segments = append(resp.Segments, dto.SegmentResponse{
			ID:         seg.ID,
			CategoryID: seg.CategoryID,
			ImageKey:   seg.ImageKey,
			CreatedAt:  seg.CreatedAt.Format(timeFormat),
		})
	}

	c.JSON(http.StatusOK, resp)
}
