package uploads

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/nmtun/seeboi-backend/pkg/response"
	"github.com/nmtun/seeboi-backend/pkg/storage"
)

var folderForKind = map[string]string{
	"POST":    storage.FolderPosts,
	"COMMENT": storage.FolderComments,
	"AVATAR":  storage.FolderAvatars,
	"FACE":    storage.FolderFaces,
}

// Handler serves image uploads backed by S3.
type Handler struct {
	repo   *Repository
	s3     *storage.S3
	logger *zap.Logger
}

// NewHandler creates an upload handler.
func NewHandler(repo *Repository, s3 *storage.S3, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, s3: s3, logger: logger}
}

// Upload accepts a multipart image, stores it in S3 and records it. The
// "kind" field decides the S3 prefix; AVATAR uploads also update the
// caller's profile picture.
func (h *Handler) Upload(c *gin.Context) {
	userID := c.GetInt64("user_id")

	kind := c.DefaultPostForm("kind", "POST")
	folder, ok := folderForKind[kind]
	if !ok {
		response.BadRequest(c, "invalid kind")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	if fileHeader.Size > storage.MaxImageSize {
		response.BadRequest(c, "file exceeds the 10MB limit")
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !storage.ValidateImageType(contentType, fileHeader.Filename) {
		response.BadRequest(c, "only image files are allowed")
		return
	}
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(fileHeader.Filename)
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("failed to open uploaded file", zap.Error(err))
		response.Internal(c, "failed to upload file")
		return
	}
	defer file.Close()

	key := storage.MediaKey(folder, userID, fileHeader.Filename)
	url, err := h.s3.Upload(c.Request.Context(), key, contentType, file, fileHeader.Size, true)
	if err != nil {
		h.logger.Error("s3 upload failed", zap.String("key", key), zap.Error(err))
		response.Internal(c, "failed to upload file")
		return
	}

	img, err := h.repo.Create(c.Request.Context(), userID, url, kind, nil, nil)
	if err != nil {
		h.logger.Error("failed to record image", zap.Error(err))
		response.Internal(c, "failed to upload file")
		return
	}

	if kind == "AVATAR" {
		if err := h.repo.SetAvatar(c.Request.Context(), userID, url); err != nil {
			h.logger.Error("failed to update avatar", zap.Int64("user_id", userID), zap.Error(err))
		}
	}

	response.Created(c, img)
}

type presignRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
	Kind        string `json:"kind"`
}

// Presign returns a presigned PUT URL so large images bypass the API server.
func (h *Handler) Presign(c *gin.Context) {
	userID := c.GetInt64("user_id")

	var req presignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "filename and content_type are required")
		return
	}
	if req.Kind == "" {
		req.Kind = "POST"
	}
	folder, ok := folderForKind[req.Kind]
	if !ok {
		response.BadRequest(c, "invalid kind")
		return
	}
	if !storage.ValidateImageType(req.ContentType, req.Filename) {
		response.BadRequest(c, "only image files are allowed")
		return
	}

	key := storage.MediaKey(folder, userID, req.Filename)
	uploadURL, err := h.s3.GeneratePresignedUploadURL(c.Request.Context(), key, req.ContentType, h.s3.PresignExpire())
	if err != nil {
		h.logger.Error("presign failed", zap.String("key", key), zap.Error(err))
		response.Internal(c, "failed to presign upload")
		return
	}

	response.OK(c, gin.H{
		"upload_url": uploadURL,
		"key":        key,
		"public_url": h.s3.PublicObjectURL(key),
		"expires_in": int(h.s3.PresignExpire().Seconds()),
	})
}

// Delete removes an image record and its S3 object.
func (h *Handler) Delete(c *gin.Context) {
	userID := c.GetInt64("user_id")
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid image id")
		return
	}

	img, err := h.repo.Delete(c.Request.Context(), id, userID)
	if err == pgx.ErrNoRows {
		response.NotFound(c, "image not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to delete image", zap.Error(err))
		response.Internal(c, "failed to delete image")
		return
	}

	if key, ok := h.s3.KeyFromURL(img.URL); ok {
		if err := h.s3.DeleteObject(c.Request.Context(), key); err != nil {
			h.logger.Warn("failed to delete s3 object", zap.String("key", key), zap.Error(err))
		}
	}

	response.OKMessage(c, "image deleted")
}
