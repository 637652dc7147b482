package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"jan-server/services/assistant-api/internal/domain/bucket"
	"jan-server/services/assistant-api/internal/domain/retrieval"
	"jan-server/services/assistant-api/internal/domain/user"
	"jan-server/services/assistant-api/internal/infrastructure/metrics"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
	"jan-server/services/assistant-api/pkg/telemetry"
)

const (
	processChunkSize = 100000
	messageKeyPrefix = "texts.extensions.files."
)

var (
	imageFileNameExtensions    = []string{".png", ".jpg", ".jpeg", ".webp"}
	outdatedFileNameExtensions = []string{".doc", ".ppt", ".xls"}
	megabyte                   = decimal.NewFromInt(1_000_000)
)

// UploadParams describes one upload. BucketID nil stores the file without embedding.
type UploadParams struct {
	FileIDToUpdate *uint
	User           *user.User
	Buffer         []byte
	MimeType       string
	FileName       string
	FileSize       int64
	BucketID       *uint
	EmbedType      EmbedType
	ConversationID *uint
}

// BucketFinder loads buckets by id.
type BucketFinder interface {
	FindByID(ctx context.Context, id uint) (*bucket.Bucket, error)
}

// UploadService validates uploads against bucket policy and hands them to the files API.
type UploadService struct {
	files             FileRepository
	conversationFiles ConversationFileRepository
	blobs             *BlobStore
	buckets           BucketFinder
	clients           retrieval.ClientFactory
	translator        Translator
	sanitizer         *telemetry.Sanitizer
	log               zerolog.Logger
}

func NewUploadService(
	files FileRepository,
	conversationFiles ConversationFileRepository,
	blobs *BlobStore,
	buckets BucketFinder,
	clients retrieval.ClientFactory,
	translator Translator,
	sanitizer *telemetry.Sanitizer,
	log zerolog.Logger,
) *UploadService {
	return &UploadService{
		files:             files,
		conversationFiles: conversationFiles,
		blobs:             blobs,
		buckets:           buckets,
		clients:           clients,
		translator:        translator,
		sanitizer:         sanitizer,
		log:               log.With().Str("component", "upload-service").Logger(),
	}
}

// UploadFile stores the upload and, for embedded uploads, sends it to the files API.
func (s *UploadService) UploadFile(ctx context.Context, params UploadParams) (*File, error) {
	start := time.Now()
	f, err := s.upload(ctx, params)

	result := "success"
	if err != nil {
		result = "error"
	}
	metrics.RecordUpload(string(params.EmbedType), result, time.Since(start).Seconds())
	return f, err
}

func (s *UploadService) upload(ctx context.Context, params UploadParams) (*File, error) {
	if _, ok := ParseEmbedType(string(params.EmbedType)); !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"embedType must be one of vector, text, vector_and_text, none", nil, "61b59507-1e35-461a-99d4-8342844800b2")
	}

	if params.BucketID == nil {
		return s.uploadWithoutBucket(ctx, params)
	}

	b, api, err := s.validateBucketAndFile(ctx, params)
	if err != nil {
		return nil, err
	}

	entity, err := s.initFile(ctx, api, params)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	entity.FileName = params.FileName
	entity.FileSize = params.FileSize
	entity.MimeType = params.MimeType
	if params.EmbedType != EmbedTypeNone {
		bucketID := b.ID
		entity.BucketID = &bucketID
	}
	entity.UploadStatus = UploadStatusInProgress
	if params.User != nil {
		userID := params.User.ID
		entity.UserID = &userID
	}
	entity.CreatedAt = now
	entity.UpdatedAt = now

	saved := false
	if err := s.uploadRemote(ctx, api, b, entity, params, &saved); err != nil {
		if saved {
			if delErr := s.files.Delete(ctx, entity.ID); delErr != nil {
				s.log.Error().Err(delErr).Uint("file_id", entity.ID).Msg("failed to roll back file")
			}
		}
		s.log.Error().Err(err).
			Str("file_name", s.sanitizer.SanitizeFileName(params.FileName)).
			Msg("Failed to upload file to RAG server.")
		return nil, s.remoteError(ctx, err)
	}

	return entity, nil
}

func (s *UploadService) uploadWithoutBucket(ctx context.Context, params UploadParams) (*File, error) {
	if params.EmbedType != EmbedTypeNone {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"not allowed to store non embedded files without bucket", nil, "d45e055c-f998-4608-bf80-4491b46fe454")
	}

	entity := &File{
		FileName:     params.FileName,
		FileSize:     params.FileSize,
		MimeType:     params.MimeType,
		UploadStatus: UploadStatusSuccessful,
	}
	var userID *string
	if params.User != nil {
		id := params.User.ID
		userID = &id
	}
	entity.UserID = userID

	if err := s.files.Create(ctx, entity); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to save file")
	}

	if params.ConversationID != nil && *params.ConversationID > 0 {
		if err := s.conversationFiles.Create(ctx, &ConversationFile{
			ConversationID: *params.ConversationID,
			FileID:         entity.ID,
		}); err != nil {
			return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to link file to conversation")
		}
	}

	if err := s.blobs.Save(ctx, &Blob{
		FileID:   entity.ID,
		UserID:   userID,
		Type:     params.MimeType,
		Category: BlobCategoryOriginal,
	}, params.Buffer); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to save file content")
	}

	return entity, nil
}

func (s *UploadService) validateBucketAndFile(ctx context.Context, params UploadParams) (*bucket.Bucket, retrieval.FilesAPI, error) {
	invalid := func(msg, uuid string) error {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, msg, nil, uuid)
	}

	b, err := s.buckets.FindByID(ctx, *params.BucketID)
	if err != nil {
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			return nil, nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
				"No bucket configured.", err, "c76f3ae7-3686-401a-85cd-d3821659b792")
		}
		return nil, nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load bucket")
	}

	hasUser := params.User != nil
	hasConversation := params.ConversationID != nil && *params.ConversationID > 0

	switch b.Type {
	case bucket.BucketTypeGeneral:
		if hasUser || hasConversation {
			return nil, nil, invalid("not allowed to store in general bucket", "91426915-d898-450f-80df-4685f737b33a")
		}
	case bucket.BucketTypeConversation:
		if !hasUser {
			return nil, nil, invalid("not allowed to store in conversation bucket", "132d4f8f-a401-4842-8235-e0d06a00990d")
		}
	case bucket.BucketTypeUser:
		if hasConversation || !hasUser {
			return nil, nil, invalid("not allowed to store in user bucket", "9cb39b20-5f75-4c46-a0c2-64e4d2919e35")
		}
	}

	api := s.clients.ForEndpoint(b.Endpoint, b.Headers)
	fileTypes, err := api.GetFileTypes(ctx)
	if err != nil {
		return nil, nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
			s.t(ctx, "errorUploadingFile", nil), err, "d81e5a8e-5452-427b-a9a5-ad54e8da2b59")
	}

	for _, ext := range imageFileNameExtensions {
		if matchExtension(params.FileName, ext) {
			return nil, nil, invalid(s.t(ctx, "errorNotSupportedFileTypeImage", nil), "515d094b-d86d-43b5-a0db-6cf495bf6d1b")
		}
	}

	for _, ext := range outdatedFileNameExtensions {
		if matchExtension(params.FileName, ext) {
			return nil, nil, invalid(s.t(ctx, "errorOutdatedFileType", map[string]string{"format": ext + "x"}), "8ac7a5f7-b844-4ca9-8491-b38ce545de9a")
		}
	}

	var supported *retrieval.FileType
	for i := range fileTypes {
		if matchExtension(params.FileName, fileTypes[i].FileNameExtension) {
			supported = &fileTypes[i]
			break
		}
	}
	if supported == nil {
		return nil, nil, invalid(s.t(ctx, "errorNotSupportedFileType", nil), "d6e60517-4402-4578-97af-4b33eb34e221")
	}

	if len(b.AllowedFileNameExtensions) > 0 && !contains(b.AllowedFileNameExtensions, supported.FileNameExtension) {
		return nil, nil, invalid(s.t(ctx, "errorNotAllowedFileType", nil), "18fbb3e8-248e-4155-9a2f-115ba911e89c")
	}

	if !IsFileSizeWithinLimits(b.FileSizeLimits, params.FileName, params.MimeType, params.FileSize) {
		return nil, nil, invalid(s.t(ctx, "errorFileTooLarge", nil), "466e6709-5571-4ac9-b5ff-59466459712e")
	}

	// Concurrent uploads can pass this check together; the quota is a soft limit.
	if hasUser && b.Type == bucket.BucketTypeUser {
		used, err := s.files.CountByUserAndBucket(ctx, params.User.ID, b.ID)
		if err != nil {
			return nil, nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to count files")
		}
		if used >= int64(b.PerUserQuota) {
			return nil, nil, invalid(fmt.Sprintf("User quota of %d files exceeded.", b.PerUserQuota), "ee36f37f-99c0-48e4-86fd-6ee42ee76480")
		}
	}

	return b, api, nil
}

func (s *UploadService) initFile(ctx context.Context, api retrieval.FilesAPI, params UploadParams) (*File, error) {
	if params.FileIDToUpdate == nil || *params.FileIDToUpdate == 0 {
		return &File{}, nil
	}

	existing, err := s.files.FindByIDAndBucket(ctx, *params.FileIDToUpdate, *params.BucketID)
	if err != nil {
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
				fmt.Sprintf("File with id %d not found in bucket %d", *params.FileIDToUpdate, *params.BucketID), err, "ca76b8b7-0dfa-44e1-b406-1a71adc41bab")
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load file")
	}

	if err := api.DeleteFile(ctx, strconv.FormatUint(uint64(existing.ID), 10)); err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
			s.t(ctx, "errorUploadingFile", nil), err, "392cdc09-b847-4246-ba77-ccd53fe3ff23")
	}
	return existing, nil
}

// uploadRemote saves the file row and runs the files API calls. saved reports
// whether the row exists and must be removed on failure.
func (s *UploadService) uploadRemote(ctx context.Context, api retrieval.FilesAPI, b *bucket.Bucket, entity *File, params UploadParams, saved *bool) error {
	var err error
	if entity.ID == 0 {
		err = s.files.Create(ctx, entity)
	} else {
		err = s.files.Update(ctx, entity)
	}
	if err != nil {
		return err
	}
	*saved = true

	fileName := encodeURIComponent(params.FileName)
	fileID := strconv.FormatUint(uint64(entity.ID), 10)

	if params.EmbedType.embedsVector() {
		var userID string
		if params.User != nil {
			userID = params.User.ID
		}
		var conversationID uint
		if params.ConversationID != nil {
			conversationID = *params.ConversationID
		}

		if err := api.UploadFile(ctx, retrieval.UploadFileRequest{
			FileName:  fileName,
			MimeType:  params.MimeType,
			Bucket:    b.Path(userID, conversationID),
			ID:        fileID,
			IndexName: b.IndexName,
			Content:   params.Buffer,
		}); err != nil {
			return err
		}
		if err := s.markSuccessful(ctx, entity); err != nil {
			return err
		}
	}

	if params.EmbedType.embedsText() {
		content, err := api.ProcessFile(ctx, retrieval.ProcessFileRequest{
			FileName:  fileName,
			MimeType:  params.MimeType,
			ChunkSize: processChunkSize,
			Content:   params.Buffer,
		})
		if err != nil {
			return err
		}
		if err := s.blobs.DeleteForFile(ctx, entity.ID); err != nil {
			return err
		}
		if len(content) == 0 {
			content = json.RawMessage("null")
		}
		if err := s.blobs.Save(ctx, &Blob{
			FileID:   entity.ID,
			UserID:   entity.UserID,
			Type:     ProcessedMimeType,
			Category: BlobCategoryProcessed,
		}, content); err != nil {
			return err
		}
		if err := s.markSuccessful(ctx, entity); err != nil {
			return err
		}
	}

	if params.ConversationID != nil && *params.ConversationID > 0 {
		if err := s.conversationFiles.Create(ctx, &ConversationFile{
			ConversationID: *params.ConversationID,
			FileID:         entity.ID,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *UploadService) markSuccessful(ctx context.Context, entity *File) error {
	entity.UploadStatus = UploadStatusSuccessful
	entity.UpdatedAt = time.Now()
	return s.files.Update(ctx, entity)
}

// remoteError maps a failed remote phase to a localized internal error.
func (s *UploadService) remoteError(ctx context.Context, err error) error {
	key := "errorUploadingFile"
	var respErr *retrieval.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case 400:
			key = "errorUploadingFileDamaged"
		case 413:
			key = "errorFileTooLarge"
		case 415:
			key = "errorNotSupportedFileType"
		case 422:
			key = "errorUploadingREISConfiguration"
		}
	}
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInternal,
		s.t(ctx, key, nil), err, "2ce3eaa1-727a-48ee-9be7-378ed67cb053")
}

func (s *UploadService) t(ctx context.Context, key string, args map[string]string) string {
	return s.translator.Translate(ctx, messageKeyPrefix+key, args)
}

// RelevantSizeLimit resolves the MB limit for a file: by mime type, then by
// lower-cased extension, then the "general" entry.
func RelevantSizeLimit(limits map[string]float64, fileName, mimeType string) (float64, bool) {
	if limit, ok := limits[mimeType]; ok {
		return limit, true
	}
	extension := strings.ToLower(fileName[strings.LastIndex(fileName, ".")+1:])
	if limit, ok := limits[extension]; ok {
		return limit, true
	}
	limit, ok := limits["general"]
	return limit, ok
}

// IsFileSizeWithinLimits reports whether fileSize bytes fit the resolved limit.
// Without limits or a resolved limit every size is allowed.
func IsFileSizeWithinLimits(limits map[string]float64, fileName, mimeType string, fileSize int64) bool {
	if limits == nil {
		return true
	}
	limit, ok := RelevantSizeLimit(limits, fileName, mimeType)
	if !ok {
		return true
	}
	return decimal.NewFromInt(fileSize).LessThanOrEqual(decimal.NewFromFloat(limit).Mul(megabyte))
}

var uriComponentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeURIComponent escapes like url.QueryEscape but keeps !'()* and
// encodes spaces as %20.
func encodeURIComponent(value string) string {
	return uriComponentUnescaper.Replace(url.QueryEscape(value))
}

func matchExtension(fileName, extension string) bool {
	return strings.HasSuffix(strings.ToLower(fileName), strings.ToLower(extension))
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
