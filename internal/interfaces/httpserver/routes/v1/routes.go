package v1

import (
	"github.com/gin-gonic/gin"

	"jan-server/services/assistant-api/internal/interfaces/httpserver/handlers"
	"jan-server/services/assistant-api/internal/interfaces/httpserver/middlewares"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
}

func NewRoutes(provider *handlers.Provider) *Routes {
	return &Routes{handlers: provider}
}

// Register attaches all v1 routes under the /v1 prefix. The router must
// already authenticate requests.
func (r *Routes) Register(router gin.IRouter) {
	group := router.Group("/v1")
	admin := middlewares.RequireAdmin()

	conversations := group.Group("/conversations")
	conversations.GET("", r.handlers.Conversations.List)
	conversations.POST("", r.handlers.Conversations.Create)
	conversations.GET("/:id", r.handlers.Conversations.Get)
	conversations.PUT("/:id", r.handlers.Conversations.Rename)
	conversations.DELETE("/:id", r.handlers.Conversations.Delete)
	conversations.GET("/:id/messages", r.handlers.Messages.History)
	conversations.POST("/:id/messages", r.handlers.Messages.Chat)
	conversations.PUT("/:id/messages/:messageId/rating", r.handlers.Messages.Rate)
	conversations.GET("/:id/messages/:messageId/documents", r.handlers.Messages.DocumentContent)

	buckets := group.Group("/buckets")
	buckets.GET("", admin, r.handlers.Buckets.List)
	buckets.POST("", admin, r.handlers.Buckets.Create)
	buckets.POST("/test", admin, r.handlers.Buckets.Test)
	buckets.GET("/:bucketId", admin, r.handlers.Buckets.Get)
	buckets.PUT("/:bucketId", admin, r.handlers.Buckets.Update)
	buckets.DELETE("/:bucketId", admin, r.handlers.Buckets.Delete)
	buckets.GET("/:bucketId/filetypes", r.handlers.Buckets.FileTypes)
	buckets.POST("/:bucketId/search", r.handlers.Buckets.Search)
	// :bucketId also accepts a bucket type name when listing files.
	buckets.GET("/:bucketId/files", r.handlers.Files.List)
	buckets.POST("/:bucketId/files", r.handlers.Files.Upload)
	buckets.DELETE("/:bucketId/files/:fileId", r.handlers.Files.Delete)

	files := group.Group("/files")
	files.POST("", r.handlers.Files.UploadWithoutBucket)
	files.GET("/:fileId/content", r.handlers.Files.Download)

	configurations := group.Group("/configurations")
	configurations.GET("", r.handlers.Configurations.List)
	configurations.POST("", admin, r.handlers.Configurations.Create)
	configurations.GET("/:configurationId", r.handlers.Configurations.Get)
	configurations.PUT("/:configurationId", admin, r.handlers.Configurations.Update)
	configurations.DELETE("/:configurationId", admin, r.handlers.Configurations.Delete)
	configurations.GET("/:configurationId/extensions", admin, r.handlers.Extensions.List)
	configurations.POST("/:configurationId/extensions", admin, r.handlers.Extensions.Create)
	configurations.PUT("/:configurationId/extensions/:extensionId", admin, r.handlers.Extensions.Update)
	configurations.DELETE("/:configurationId/extensions/:extensionId", admin, r.handlers.Extensions.Delete)

	extensions := group.Group("/extensions", admin)
	extensions.GET("/specs", r.handlers.Extensions.Specs)
	extensions.POST("/test", r.handlers.Extensions.Test)
}
