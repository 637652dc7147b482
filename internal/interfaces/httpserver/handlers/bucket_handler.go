package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"jan-server/services/assistant-api/internal/domain/bucket"
	"jan-server/services/assistant-api/internal/domain/file"
	"jan-server/services/assistant-api/internal/domain/message"
	"jan-server/services/assistant-api/internal/domain/retrieval"
	"jan-server/services/assistant-api/internal/interfaces/httpserver/requests"
	"jan-server/services/assistant-api/internal/interfaces/httpserver/responses"
	"jan-server/services/assistant-api/internal/utils/functional"
)

// BucketHandler manages buckets and the bucket level file operations.
type BucketHandler struct {
	buckets *bucket.BucketService
	files   *file.FileService
	log     zerolog.Logger
}

func NewBucketHandler(buckets *bucket.BucketService, files *file.FileService, log zerolog.Logger) *BucketHandler {
	return &BucketHandler{
		buckets: buckets,
		files:   files,
		log:     log.With().Str("component", "bucket-handler").Logger(),
	}
}

func (h *BucketHandler) List(c *gin.Context) {
	items, err := h.buckets.GetBuckets(c.Request.Context())
	if err != nil {
		responses.HandleError(c, err, "failed to list buckets")
		return
	}
	c.JSON(http.StatusOK, responses.NewListResponse(functional.Map(items, responses.NewBucketResponse)))
}

func (h *BucketHandler) Create(c *gin.Context) {
	var req requests.BucketRequest
	if !bindJSON(c, &req) {
		return
	}

	b, err := h.buckets.CreateBucket(c.Request.Context(), bucketFromRequest(req))
	if err != nil {
		responses.HandleError(c, err, "failed to create bucket")
		return
	}
	c.JSON(http.StatusCreated, responses.NewBucketResponse(b))
}

func (h *BucketHandler) Get(c *gin.Context) {
	id, err := requests.GetUintParam(c, "bucketId")
	if err != nil {
		responses.HandleError(c, err, "invalid bucket id")
		return
	}

	b, err := h.buckets.GetBucket(c.Request.Context(), id)
	if err != nil {
		responses.HandleError(c, err, "bucket not found")
		return
	}
	c.JSON(http.StatusOK, responses.NewBucketResponse(b))
}

func (h *BucketHandler) Update(c *gin.Context) {
	id, err := requests.GetUintParam(c, "bucketId")
	if err != nil {
		responses.HandleError(c, err, "invalid bucket id")
		return
	}
	var req requests.BucketRequest
	if !bindJSON(c, &req) {
		return
	}

	b, err := h.buckets.UpdateBucket(c.Request.Context(), id, bucketFromRequest(req))
	if err != nil {
		responses.HandleError(c, err, "failed to update bucket")
		return
	}
	c.JSON(http.StatusOK, responses.NewBucketResponse(b))
}

func (h *BucketHandler) Delete(c *gin.Context) {
	id, err := requests.GetUintParam(c, "bucketId")
	if err != nil {
		responses.HandleError(c, err, "invalid bucket id")
		return
	}

	if err := h.buckets.DeleteBucket(c.Request.Context(), id); err != nil {
		responses.HandleError(c, err, "failed to delete bucket")
		return
	}
	c.Status(http.StatusNoContent)
}

// Test checks that an endpoint answers like a files API before a bucket is saved.
func (h *BucketHandler) Test(c *gin.Context) {
	var req requests.TestBucketRequest
	if !bindJSON(c, &req) {
		return
	}

	types, err := h.buckets.TestBucket(c.Request.Context(), req.Endpoint, req.Headers)
	if err != nil {
		responses.HandleError(c, err, "bucket endpoint test failed")
		return
	}
	c.JSON(http.StatusOK, responses.NewListResponse[retrieval.FileType](types))
}

func (h *BucketHandler) FileTypes(c *gin.Context) {
	id, err := requests.GetUintParam(c, "bucketId")
	if err != nil {
		responses.HandleError(c, err, "invalid bucket id")
		return
	}

	types, err := h.files.GetFileTypes(c.Request.Context(), id)
	if err != nil {
		responses.HandleError(c, err, "failed to load file types")
		return
	}
	c.JSON(http.StatusOK, responses.NewListResponse[retrieval.FileType](types))
}

func (h *BucketHandler) Search(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	id, err := requests.GetUintParam(c, "bucketId")
	if err != nil {
		responses.HandleError(c, err, "invalid bucket id")
		return
	}
	var req requests.SearchFilesRequest
	if !bindJSON(c, &req) {
		return
	}

	sources, err := h.files.SearchFiles(c.Request.Context(), u, id, req.Query, req.Take, req.ConversationID)
	if err != nil {
		responses.HandleError(c, err, "search failed")
		return
	}
	c.JSON(http.StatusOK, responses.NewListResponse[message.Source](sources))
}

func bucketFromRequest(req requests.BucketRequest) *bucket.Bucket {
	bucketType, _ := bucket.ParseBucketType(req.Type)
	return &bucket.Bucket{
		Name:                      req.Name,
		Endpoint:                  req.Endpoint,
		IndexName:                 req.IndexName,
		Headers:                   req.Headers,
		IsDefault:                 req.IsDefault,
		PerUserQuota:              req.PerUserQuota,
		AllowedFileNameExtensions: req.AllowedFileNameExtensions,
		FileSizeLimits:            req.FileSizeLimits,
		Type:                      bucketType,
	}
}
