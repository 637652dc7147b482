package requests

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"jan-server/services/assistant-api/internal/domain/query"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
)

// GetPaginationFromQuery reads the zero based page and pageSize query parameters.
func GetPaginationFromQuery(reqCtx *gin.Context) (query.Pagination, error) {
	page, err := strconv.Atoi(reqCtx.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		return query.Pagination{}, platformerrors.NewError(reqCtx.Request.Context(), platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "invalid page number", nil, "8e0f6a7b-2c4d-4b1e-9f3a-5d6c7b8a9e01")
	}
	pageSize, err := strconv.Atoi(reqCtx.DefaultQuery("pageSize", strconv.Itoa(query.DefaultPageSize)))
	if err != nil || pageSize < 1 {
		return query.Pagination{}, platformerrors.NewError(reqCtx.Request.Context(), platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "invalid page size", nil, "3b7d9c1e-4f2a-4e8b-a6d5-0c9e8f7a6b52")
	}
	return query.NewPagination(page, pageSize), nil
}

// GetUintParam parses a positive numeric path parameter.
func GetUintParam(reqCtx *gin.Context, name string) (uint, error) {
	raw := reqCtx.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, platformerrors.NewError(reqCtx.Request.Context(), platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "invalid "+name, err, "d4c3b2a1-9e8f-4a7b-8c6d-5e4f3a2b1c09")
	}
	return uint(id), nil
}

// GetOptionalUint parses an optional numeric query or form value.
func GetOptionalUint(reqCtx *gin.Context, raw string, name string) (*uint, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, platformerrors.NewError(reqCtx.Request.Context(), platformerrors.LayerHandler, platformerrors.ErrorTypeValidation, "invalid "+name, err, "7a6b5c4d-3e2f-4a1b-9c8d-7e6f5a4b3c21")
	}
	value := uint(id)
	return &value, nil
}
