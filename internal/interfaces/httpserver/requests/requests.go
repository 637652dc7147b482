package requests

import (
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type CreateConversationRequest struct {
	ConfigurationID uint   `json:"configurationId" binding:"required"`
	Name            string `json:"name"`
}

type UpdateConversationRequest struct {
	Name string `json:"name" binding:"required"`
}

type ChatRequest struct {
	Query         string `json:"query" binding:"required"`
	EditMessageID *uint  `json:"editMessageId"`
	Files         []uint `json:"files"`
}

type RateMessageRequest struct {
	Rating  string  `json:"rating" binding:"required,oneof=lame okay good"`
	Comment *string `json:"comment"`
}

type BucketRequest struct {
	Name                      string             `json:"name" binding:"required"`
	Endpoint                  string             `json:"endpoint" binding:"required,url"`
	IndexName                 string             `json:"indexName"`
	Headers                   map[string]string  `json:"headers"`
	IsDefault                 bool               `json:"isDefault"`
	PerUserQuota              int                `json:"perUserQuota" binding:"gte=0"`
	AllowedFileNameExtensions []string           `json:"allowedFileNameExtensions" binding:"dive,fileext"`
	FileSizeLimits            map[string]float64 `json:"fileSizeLimits"`
	Type                      string             `json:"type" binding:"required,oneof=general user conversation"`
}

type TestBucketRequest struct {
	Endpoint string            `json:"endpoint" binding:"required,url"`
	Headers  map[string]string `json:"headers"`
}

type SearchFilesRequest struct {
	Query          string `json:"query" binding:"required"`
	Take           int    `json:"take" binding:"omitempty,gte=1,lte=100"`
	ConversationID *uint  `json:"conversationId"`
}

type ConfigurationRequest struct {
	Name         string   `json:"name" binding:"required"`
	Description  string   `json:"description"`
	Enabled      bool     `json:"enabled"`
	UserGroupIDs []string `json:"userGroupIds"`
}

type ExtensionRequest struct {
	Name     string         `json:"name" binding:"required"`
	Values   map[string]any `json:"values"`
	Enabled  bool           `json:"enabled"`
	BucketID *uint          `json:"bucketId"`
}

type TestExtensionRequest struct {
	Name     string         `json:"name" binding:"required"`
	Values   map[string]any `json:"values"`
	BucketID *uint          `json:"bucketId"`
}

// RegisterValidators adds the custom binding tags to gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("fileext", validateFileExtension)
}

// validateFileExtension accepts ".pdf" style extensions: a dot followed by
// letters or digits.
func validateFileExtension(fl validator.FieldLevel) bool {
	ext := fl.Field().String()
	if len(ext) < 2 || !strings.HasPrefix(ext, ".") {
		return false
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
