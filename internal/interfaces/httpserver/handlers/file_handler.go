package handlers

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-server/services/assistant-api/internal/config"
	"jan-server/services/assistant-api/internal/domain/file"
	"jan-server/services/assistant-api/internal/interfaces/httpserver/requests"
	"jan-server/services/assistant-api/internal/interfaces/httpserver/responses"
	"jan-server/services/assistant-api/internal/utils/functional"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
)

const octetStream = "application/octet-stream"

// FileHandler lists, uploads, deletes and downloads files.
type FileHandler struct {
	maxUploadBytes int64
	files          *file.FileService
	uploads        *file.UploadService
	log            zerolog.Logger
}

func NewFileHandler(cfg *config.Config, files *file.FileService, uploads *file.UploadService, log zerolog.Logger) *FileHandler {
	return &FileHandler{
		maxUploadBytes: cfg.MaxUploadBytes,
		files:          files,
		uploads:        uploads,
		log:            log.With().Str("component", "file-handler").Logger(),
	}
}

// List returns the files of a bucket given by id or by type name.
func (h *FileHandler) List(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	pagination, err := requests.GetPaginationFromQuery(c)
	if err != nil {
		responses.HandleError(c, err, "invalid pagination")
		return
	}
	conversationID, err := requests.GetOptionalUint(c, c.Query("conversationId"), "conversationId")
	if err != nil {
		responses.HandleError(c, err, "invalid conversation id")
		return
	}

	items, total, err := h.files.GetFiles(c.Request.Context(), u, c.Param("bucketId"), conversationID, pagination)
	if err != nil {
		responses.HandleError(c, err, "failed to list files")
		return
	}
	c.JSON(http.StatusOK, responses.NewPageResponse(functional.Map(items, responses.NewFileResponse), total))
}

// Upload stores a multipart file in a bucket. embedType defaults to vector.
func (h *FileHandler) Upload(c *gin.Context) {
	bucketID, err := requests.GetUintParam(c, "bucketId")
	if err != nil {
		responses.HandleError(c, err, "invalid bucket id")
		return
	}
	h.upload(c, &bucketID, c.DefaultPostForm("embedType", string(file.EmbedTypeVector)))
}

// UploadWithoutBucket stores a file that is never sent to a files API.
func (h *FileHandler) UploadWithoutBucket(c *gin.Context) {
	h.upload(c, nil, c.DefaultPostForm("embedType", string(file.EmbedTypeNone)))
}

func (h *FileHandler) upload(c *gin.Context, bucketID *uint, embedType string) {
	u, ok := currentUser(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+1024*1024)
	header, err := c.FormFile("file")
	if err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "file is required", "6a5b4c3d-2e1f-4a0b-9c8d-7e6f5a4b3c2d")
		return
	}
	if header.Size > h.maxUploadBytes {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("file exceeds the upload limit of %d bytes", h.maxUploadBytes), "b7c6d5e4-f3a2-4b1c-8d0e-9f8a7b6c5d4e")
		return
	}

	conversationID, err := requests.GetOptionalUint(c, c.PostForm("conversationId"), "conversationId")
	if err != nil {
		responses.HandleError(c, err, "invalid conversation id")
		return
	}

	owner := u
	if bucketID != nil {
		general, err := h.files.IsGeneralUpload(c.Request.Context(), u, *bucketID)
		if err != nil {
			responses.HandleError(c, err, "upload failed")
			return
		}
		if general {
			owner = nil
			conversationID = nil
		}
	}

	fileIDToUpdate, err := requests.GetOptionalUint(c, c.PostForm("fileId"), "fileId")
	if err != nil {
		responses.HandleError(c, err, "invalid file id")
		return
	}

	part, err := header.Open()
	if err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "failed to read file", "c8d7e6f5-a4b3-4c2d-9e1f-0a9b8c7d6e5f")
		return
	}
	defer part.Close()
	buffer, err := io.ReadAll(part)
	if err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "failed to read file", "d9e8f7a6-b5c4-4d3e-8f2a-1b0c9d8e7f6a")
		return
	}

	f, err := h.uploads.UploadFile(c.Request.Context(), file.UploadParams{
		FileIDToUpdate: fileIDToUpdate,
		User:           owner,
		Buffer:         buffer,
		MimeType:       detectMimeType(header.Header.Get("Content-Type"), buffer),
		FileName:       header.Filename,
		FileSize:       int64(len(buffer)),
		BucketID:       bucketID,
		EmbedType:      file.EmbedType(embedType),
		ConversationID: conversationID,
	})
	if err != nil {
		responses.HandleError(c, err, "upload failed")
		return
	}
	c.JSON(http.StatusCreated, responses.NewFileResponse(f))
}

func (h *FileHandler) Delete(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	bucketID, err := requests.GetUintParam(c, "bucketId")
	if err != nil {
		responses.HandleError(c, err, "invalid bucket id")
		return
	}
	fileID, err := requests.GetUintParam(c, "fileId")
	if err != nil {
		responses.HandleError(c, err, "invalid file id")
		return
	}

	if err := h.files.DeleteFile(c.Request.Context(), u, bucketID, fileID); err != nil {
		responses.HandleError(c, err, "failed to delete file")
		return
	}
	c.Status(http.StatusNoContent)
}

// Download streams the original bytes of a file.
func (h *FileHandler) Download(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	fileID, err := requests.GetUintParam(c, "fileId")
	if err != nil {
		responses.HandleError(c, err, "invalid file id")
		return
	}

	f, data, err := h.files.DownloadFile(c.Request.Context(), u, fileID)
	if err != nil {
		responses.HandleError(c, err, "failed to download file")
		return
	}
	contentType := f.MimeType
	if contentType == "" {
		contentType = octetStream
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.FileName}))
	c.Data(http.StatusOK, contentType, data)
}

// detectMimeType trusts the declared type unless it is missing or generic.
func detectMimeType(declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != octetStream {
		return declared
	}
	detected := mimetype.Detect(data).String()
	if mediaType, _, err := mime.ParseMediaType(detected); err == nil {
		return mediaType
	}
	return detected
}
