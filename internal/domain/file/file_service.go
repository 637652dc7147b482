package file

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"jan-server/services/assistant-api/internal/domain/bucket"
	"jan-server/services/assistant-api/internal/domain/message"
	"jan-server/services/assistant-api/internal/domain/query"
	"jan-server/services/assistant-api/internal/domain/retrieval"
	"jan-server/services/assistant-api/internal/domain/user"
	"jan-server/services/assistant-api/internal/utils/functional"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
)

// BucketResolver resolves a bucket by numeric id or by type name.
type BucketResolver interface {
	ResolveBucket(ctx context.Context, idOrType string) (*bucket.Bucket, error)
}

// FileService serves file listings, deletion, search and downloads.
type FileService struct {
	files             FileRepository
	conversationFiles ConversationFileRepository
	blobs             *BlobStore
	buckets           BucketResolver
	extensions        BucketExtensions
	clients           retrieval.ClientFactory
	log               zerolog.Logger
}

func NewFileService(
	files FileRepository,
	conversationFiles ConversationFileRepository,
	blobs *BlobStore,
	buckets BucketResolver,
	extensions BucketExtensions,
	clients retrieval.ClientFactory,
	log zerolog.Logger,
) *FileService {
	return &FileService{
		files:             files,
		conversationFiles: conversationFiles,
		blobs:             blobs,
		buckets:           buckets,
		extensions:        extensions,
		clients:           clients,
		log:               log.With().Str("component", "file-service").Logger(),
	}
}

// GetFiles lists the files of a bucket visible to the user. For conversation
// buckets with a conversation id the files linked to that conversation are
// returned regardless of the bucket they live in.
func (s *FileService) GetFiles(ctx context.Context, u *user.User, bucketIDOrType string, conversationID *uint, pagination query.Pagination) ([]*File, int64, error) {
	b, err := s.buckets.ResolveBucket(ctx, bucketIDOrType)
	if err != nil {
		return nil, 0, err
	}

	var (
		files []*File
		total int64
	)
	switch {
	case b.Type == bucket.BucketTypeGeneral:
		files, total, err = s.files.FindByBucket(ctx, b.ID, pagination)
	case b.Type == bucket.BucketTypeConversation && conversationID != nil && *conversationID > 0:
		links, linkErr := s.conversationFiles.FindByConversation(ctx, *conversationID)
		if linkErr != nil {
			return nil, 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, linkErr, "failed to load conversation files")
		}
		ids := functional.Map(links, func(link *ConversationFile) uint { return link.FileID })
		if len(ids) == 0 {
			return []*File{}, 0, nil
		}
		files, total, err = s.files.FindByIDsAndUser(ctx, ids, u.ID, pagination)
	default:
		files, total, err = s.files.FindByUserAndBucket(ctx, u.ID, b.ID, pagination)
	}
	if err != nil {
		return nil, 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list files")
	}
	return files, total, nil
}

// IsGeneralUpload reports whether an upload into bucketID goes to a general
// bucket. General files have no owner and only admins may add them.
func (s *FileService) IsGeneralUpload(ctx context.Context, u *user.User, bucketID uint) (bool, error) {
	b, err := s.buckets.ResolveBucket(ctx, strconv.FormatUint(uint64(bucketID), 10))
	if err != nil {
		return false, err
	}
	if b.Type != bucket.BucketTypeGeneral {
		return false, nil
	}
	if !u.IsAdmin() {
		return false, adminRequired(ctx)
	}
	return true, nil
}

func adminRequired(ctx context.Context) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeForbidden,
		"Only admins can manage files of a general bucket.", nil, "6b2e9d14-7c3a-4f58-a1e0-5d9c8b7a3f21")
}

// DeleteFile removes a file from the files API and the database.
func (s *FileService) DeleteFile(ctx context.Context, u *user.User, bucketID uint, fileID uint) error {
	notFound := func(err error) error {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("File with id %d not found in bucket %d", fileID, bucketID), err, "23929975-9c60-4545-a0aa-65b91167f97c")
	}

	b, err := s.buckets.ResolveBucket(ctx, strconv.FormatUint(uint64(bucketID), 10))
	if err != nil {
		return err
	}

	f, err := s.files.FindByIDAndBucket(ctx, fileID, bucketID)
	if err != nil {
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			return notFound(err)
		}
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load file")
	}
	if b.Type == bucket.BucketTypeGeneral && !u.IsAdmin() {
		return adminRequired(ctx)
	}
	if b.Type != bucket.BucketTypeGeneral && !f.OwnedBy(u.ID) {
		return notFound(nil)
	}

	api := s.clients.ForEndpoint(b.Endpoint, b.Headers)
	if err := api.DeleteFile(ctx, strconv.FormatUint(uint64(f.ID), 10)); err != nil {
		if !isRemoteNotFound(err) {
			return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
				"failed to delete file from files API", err, "a5f28c38-311b-46a0-8343-186c28553f28")
		}
	}

	return s.deleteLocal(ctx, f.ID)
}

// SearchFiles searches the bucket for the user and tags results with the
// external id of the extension backed by the bucket.
func (s *FileService) SearchFiles(ctx context.Context, u *user.User, bucketID uint, queryText string, take int, conversationID *uint) ([]message.Source, error) {
	if strings.TrimSpace(queryText) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"query is required", nil, "5fd044ae-a615-433c-ace6-f845e092ffb4")
	}
	if take <= 0 {
		take = 20
	}

	b, err := s.buckets.ResolveBucket(ctx, strconv.FormatUint(uint64(bucketID), 10))
	if err != nil {
		return nil, err
	}

	var convID uint
	if conversationID != nil {
		convID = *conversationID
	}

	sources, err := s.clients.ForEndpoint(b.Endpoint, b.Headers).Search(ctx, retrieval.SearchRequest{
		Query:     queryText,
		Bucket:    b.Path(u.ID, convID),
		IndexName: b.IndexName,
		Take:      take,
	})
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
			"failed to search files", err, "0a81c125-a7ba-4e3e-95f2-248177c2ce13")
	}

	if s.extensions != nil {
		externalID, ok, err := s.extensions.ExternalIDForBucket(ctx, b.ID)
		if err != nil {
			s.log.Warn().Err(err).Uint("bucket_id", b.ID).Msg("failed to resolve bucket extension")
		} else if ok {
			for i := range sources {
				sources[i].ExtensionExternalID = externalID
			}
		}
	}
	return sources, nil
}

// GetFileTypes returns the file types supported by the bucket's files API.
func (s *FileService) GetFileTypes(ctx context.Context, bucketID uint) ([]retrieval.FileType, error) {
	b, err := s.buckets.ResolveBucket(ctx, strconv.FormatUint(uint64(bucketID), 10))
	if err != nil {
		return nil, err
	}
	types, err := s.clients.ForEndpoint(b.Endpoint, b.Headers).GetFileTypes(ctx)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
			"failed to load file types", err, "8e0ce33c-8c5d-4802-b835-0cd501444dbf")
	}
	return types, nil
}

// DownloadFile returns the original content of a file. Only the owner may
// download it unless the file has no owner.
func (s *FileService) DownloadFile(ctx context.Context, u *user.User, fileID uint) (*File, []byte, error) {
	notFound := platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
		fmt.Sprintf("Cannot find a file with id %d for this user", fileID), nil, "057cbd26-6884-4945-be9c-bd7cd9dd373f")

	f, err := s.files.FindByID(ctx, fileID)
	if err != nil {
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			return nil, nil, notFound
		}
		return nil, nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load file")
	}
	if f.UserID != nil && !f.OwnedBy(u.ID) {
		return nil, nil, notFound
	}

	blob, err := s.blobs.FindOriginal(ctx, f.ID)
	if err != nil {
		return nil, nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to load file content")
	}
	if blob == nil {
		return nil, nil, notFound
	}

	data, err := s.blobs.Read(ctx, blob)
	if err != nil {
		return nil, nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to read file content")
	}
	return f, data, nil
}

// CleanupStaleUploads deletes files that stayed in progress since before
// updatedBefore, which happens when the process died during an upload.
func (s *FileService) CleanupStaleUploads(ctx context.Context, updatedBefore time.Time) (int, error) {
	stale, err := s.files.FindStaleInProgress(ctx, updatedBefore)
	if err != nil {
		return 0, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to find stale uploads")
	}

	removed := 0
	for _, f := range stale {
		if err := s.deleteLocal(ctx, f.ID); err != nil {
			s.log.Warn().Err(err).Uint("file_id", f.ID).Msg("failed to remove stale upload")
			continue
		}
		removed++
	}
	return removed, nil
}

func (s *FileService) deleteLocal(ctx context.Context, fileID uint) error {
	if err := s.blobs.DeleteForFile(ctx, fileID); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete file content")
	}
	if err := s.files.Delete(ctx, fileID); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete file")
	}
	return nil
}

func isRemoteNotFound(err error) bool {
	var respErr *retrieval.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == 404
}
