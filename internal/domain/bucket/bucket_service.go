package bucket

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"jan-server/services/assistant-api/internal/domain/retrieval"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
)

// BucketService manages buckets and checks their files API endpoints.
type BucketService struct {
	repo    BucketRepository
	clients retrieval.ClientFactory
	log     zerolog.Logger
}

func NewBucketService(repo BucketRepository, clients retrieval.ClientFactory, log zerolog.Logger) *BucketService {
	return &BucketService{
		repo:    repo,
		clients: clients,
		log:     log.With().Str("component", "bucket-service").Logger(),
	}
}

func (s *BucketService) CreateBucket(ctx context.Context, b *Bucket) (*Bucket, error) {
	if err := s.validate(ctx, b); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create bucket")
	}
	if err := s.syncDefault(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BucketService) UpdateBucket(ctx context.Context, id uint, b *Bucket) (*Bucket, error) {
	existing, err := s.GetBucket(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, b); err != nil {
		return nil, err
	}

	b.ID = existing.ID
	b.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update bucket")
	}
	s.clients.Forget(existing.Endpoint, existing.Headers)
	if err := s.syncDefault(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BucketService) DeleteBucket(ctx context.Context, id uint) error {
	existing, err := s.GetBucket(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete bucket")
	}
	s.clients.Forget(existing.Endpoint, existing.Headers)
	return nil
}

func (s *BucketService) GetBucket(ctx context.Context, id uint) (*Bucket, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "bucket not found")
	}
	return b, nil
}

func (s *BucketService) GetBuckets(ctx context.Context) ([]*Bucket, error) {
	buckets, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list buckets")
	}
	return buckets, nil
}

// ResolveBucket accepts a numeric id or a bucket type name. A type resolves to
// the first bucket of that type.
func (s *BucketService) ResolveBucket(ctx context.Context, idOrType string) (*Bucket, error) {
	notFound := platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
		"Bucket not found.", nil, "f51b4241-44db-4b5b-9144-84029d80b14a")

	if t, ok := ParseBucketType(idOrType); ok {
		b, err := s.repo.FindFirstByType(ctx, t)
		if err != nil {
			return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to resolve bucket")
		}
		if b == nil {
			return nil, notFound
		}
		return b, nil
	}

	id, err := strconv.ParseUint(idOrType, 10, 64)
	if err != nil || id == 0 {
		return nil, notFound
	}
	b, err := s.repo.FindByID(ctx, uint(id))
	if err != nil {
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			return nil, notFound
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to resolve bucket")
	}
	return b, nil
}

// TestBucket checks that the endpoint answers the file types request.
func (s *BucketService) TestBucket(ctx context.Context, endpoint string, headers map[string]string) ([]retrieval.FileType, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"endpoint is required", nil, "602f5e74-d88b-4775-b9e6-b2f143a6f5e2")
	}

	types, err := s.clients.ForEndpoint(endpoint, headers).GetFileTypes(ctx)
	if err != nil {
		message := err.Error()
		var respErr *retrieval.ResponseError
		if errors.As(err, &respErr) && respErr.Body != "" {
			message = respErr.Body
		}
		s.log.Warn().Err(err).Str("endpoint", endpoint).Msg("bucket test failed")
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			message, err, "77d4e4c1-b40a-4746-9e9b-a10fea0afd16")
	}
	return types, nil
}

func (s *BucketService) validate(ctx context.Context, b *Bucket) error {
	invalid := func(msg, uuid string) error {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, msg, nil, uuid)
	}

	b.Name = strings.TrimSpace(b.Name)
	b.Endpoint = strings.TrimSpace(b.Endpoint)
	if b.Name == "" {
		return invalid("name is required", "0946b0bb-d60a-471a-a626-30ad53abd2e0")
	}
	if b.Endpoint == "" {
		return invalid("endpoint is required", "aa6c2536-29f8-42f6-b25c-58cfe7bd7a7f")
	}
	if _, ok := ParseBucketType(string(b.Type)); !ok {
		return invalid("type must be one of general, user, conversation", "76b2bc7e-7737-424c-977c-15e1b74e27ea")
	}
	if b.PerUserQuota < 0 {
		return invalid("perUserQuota must not be negative", "1f4c4557-0060-47ba-bb0d-3fa09a6b2b98")
	}
	for _, ext := range b.AllowedFileNameExtensions {
		if !strings.HasPrefix(ext, ".") {
			return invalid(fmt.Sprintf("file name extension %q must start with a dot", ext), "46a48ff2-9fea-4d9f-94e8-3216ea9ecd96")
		}
	}
	for key, limit := range b.FileSizeLimits {
		if limit < 0 {
			return invalid(fmt.Sprintf("file size limit for %q must not be negative", key), "757f47d2-c2d8-4211-86f9-d19a36bc1841")
		}
	}
	return nil
}

func (s *BucketService) syncDefault(ctx context.Context, b *Bucket) error {
	if !b.IsDefault {
		return nil
	}
	if err := s.repo.ClearDefault(ctx, b.ID); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update default bucket")
	}
	return nil
}

func uintToString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
