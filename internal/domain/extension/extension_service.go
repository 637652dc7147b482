package extension

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"jan-server/services/assistant-api/internal/domain/chat"
	"jan-server/services/assistant-api/internal/domain/user"
	"jan-server/services/assistant-api/internal/utils/platformerrors"
)

// SecretPlaceholder replaces secret values in responses. Sending it back on
// update keeps the stored secret.
const SecretPlaceholder = "********"

// CreateExtensionInput carries the values for a new or updated extension.
type CreateExtensionInput struct {
	Name     string
	Values   map[string]any
	Enabled  bool
	BucketID *uint
}

type ExtensionService struct {
	repo     ExtensionRepository
	registry *Registry
	log      zerolog.Logger
}

func NewExtensionService(repo ExtensionRepository, registry *Registry, log zerolog.Logger) *ExtensionService {
	return &ExtensionService{
		repo:     repo,
		registry: registry,
		log:      log.With().Str("component", "extension-service").Logger(),
	}
}

// CreateExtension stores the extension and assigns its external id "<name>_<id>".
func (s *ExtensionService) CreateExtension(ctx context.Context, configurationID uint, input CreateExtensionInput) (*Extension, error) {
	kind, err := s.kind(ctx, input.Name)
	if err != nil {
		return nil, err
	}
	if err := s.validate(ctx, kind.Spec(), input); err != nil {
		return nil, err
	}

	cfgID := configurationID
	ext := &Extension{
		ConfigurationID: &cfgID,
		BucketID:        input.BucketID,
		Name:            input.Name,
		Enabled:         input.Enabled,
		Values:          input.Values,
	}
	if err := s.repo.Create(ctx, ext); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to create extension")
	}

	ext.ExternalID = fmt.Sprintf("%s_%d", ext.Name, ext.ID)
	if err := s.repo.Update(ctx, ext); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to assign extension external id")
	}
	return ext, nil
}

// UpdateExtension replaces values, enabled flag and bucket. The kind cannot change.
func (s *ExtensionService) UpdateExtension(ctx context.Context, configurationID uint, id uint, input CreateExtensionInput) (*Extension, error) {
	ext, err := s.findInConfiguration(ctx, configurationID, id)
	if err != nil {
		return nil, err
	}
	kind, err := s.kind(ctx, ext.Name)
	if err != nil {
		return nil, err
	}

	input.Name = ext.Name
	input.Values = mergeSecrets(kind.Spec(), ext.Values, input.Values)
	if err := s.validate(ctx, kind.Spec(), input); err != nil {
		return nil, err
	}

	ext.Values = input.Values
	ext.Enabled = input.Enabled
	ext.BucketID = input.BucketID
	if err := s.repo.Update(ctx, ext); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update extension")
	}
	return ext, nil
}

func (s *ExtensionService) DeleteExtension(ctx context.Context, configurationID uint, id uint) error {
	if _, err := s.findInConfiguration(ctx, configurationID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to delete extension")
	}
	return nil
}

func (s *ExtensionService) GetExtensions(ctx context.Context, configurationID uint) ([]*Extension, error) {
	exts, err := s.repo.FindByConfiguration(ctx, configurationID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to list extensions")
	}
	return exts, nil
}

func (s *ExtensionService) GetExtensionByExternalID(ctx context.Context, externalID string) (*Extension, error) {
	ext, err := s.repo.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "extension not found")
	}
	return ext, nil
}

// TestExtension runs the kind specific check on unsaved values.
func (s *ExtensionService) TestExtension(ctx context.Context, name string, values map[string]any) error {
	kind, err := s.kind(ctx, name)
	if err != nil {
		return err
	}
	if err := kind.Test(ctx, values); err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			err.Error(), err, "b3be0324-c1d9-4a36-977a-ce28be5e8e65")
	}
	return nil
}

func (s *ExtensionService) GetExtensionSpecs() []Spec {
	return s.registry.Specs()
}

// Middlewares collects the chat middlewares of the enabled extensions of a configuration.
func (s *ExtensionService) Middlewares(ctx context.Context, u *user.User, configurationID uint) ([]chat.Middleware, error) {
	exts, err := s.repo.FindByConfiguration(ctx, configurationID)
	if err != nil {
		return nil, err
	}

	var middlewares []chat.Middleware
	for _, ext := range exts {
		if !ext.Enabled {
			continue
		}
		kind, ok := s.registry.Get(ext.Name)
		if !ok {
			s.log.Warn().Str("extension", ext.Name).Uint("extension_id", ext.ID).Msg("skipping unknown extension kind")
			continue
		}
		mws, err := kind.Middlewares(ctx, u, ext)
		if err != nil {
			return nil, fmt.Errorf("extension %s: %w", ext.ExternalID, err)
		}
		middlewares = append(middlewares, mws...)
	}
	return middlewares, nil
}

// GetChunks loads chunk contents through the extension with the given external
// id. ok is false when the extension does not exist or cannot provide chunks.
func (s *ExtensionService) GetChunks(ctx context.Context, externalID, documentURI string, chunkURIs []string) ([]string, bool, error) {
	ext, err := s.repo.FindByExternalID(ctx, externalID)
	if err != nil {
		if platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	kind, ok := s.registry.Get(ext.Name)
	if !ok {
		return nil, false, nil
	}
	provider, ok := kind.(ChunkProvider)
	if !ok {
		return nil, false, nil
	}
	chunks, err := provider.GetChunks(ctx, ext, documentURI, chunkURIs)
	if err != nil {
		return nil, true, err
	}
	return chunks, true, nil
}

// ExternalIDForBucket returns the external id of the extension backed by the bucket.
func (s *ExtensionService) ExternalIDForBucket(ctx context.Context, bucketID uint) (string, bool, error) {
	ext, err := s.repo.FindByBucketID(ctx, bucketID)
	if err != nil {
		return "", false, err
	}
	if ext == nil {
		return "", false, nil
	}
	return ext.ExternalID, true, nil
}

// MaskSecrets returns a copy of values with password arguments replaced by SecretPlaceholder.
func (s *ExtensionService) MaskSecrets(ext *Extension) map[string]any {
	masked := make(map[string]any, len(ext.Values))
	for key, value := range ext.Values {
		masked[key] = value
	}
	kind, ok := s.registry.Get(ext.Name)
	if !ok {
		return masked
	}
	for key, arg := range kind.Spec().Arguments {
		if arg.Format == "password" {
			if _, set := masked[key]; set {
				masked[key] = SecretPlaceholder
			}
		}
	}
	return masked
}

func (s *ExtensionService) kind(ctx context.Context, name string) (Kind, error) {
	kind, ok := s.registry.Get(name)
	if !ok {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("unknown extension %q", name), nil, "2d7cd83e-c6bc-4a54-871e-c9d0eff2af19")
	}
	return kind, nil
}

func (s *ExtensionService) findInConfiguration(ctx context.Context, configurationID uint, id uint) (*Extension, error) {
	ext, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "extension not found")
	}
	if ext.ConfigurationID == nil || *ext.ConfigurationID != configurationID {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			fmt.Sprintf("Cannot find an extension with id %d in configuration %d", id, configurationID), nil, "ce386496-bd8f-4da5-bf47-a071463c9c28")
	}
	return ext, nil
}

func (s *ExtensionService) validate(ctx context.Context, spec Spec, input CreateExtensionInput) error {
	if spec.RequiresBucket && input.BucketID == nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("extension %s requires a bucket", spec.Name), nil, "8b192941-2cfe-45b5-8fca-3cbc6ad0e68c")
	}
	for key, arg := range spec.Arguments {
		if !arg.Required {
			continue
		}
		value, ok := input.Values[key]
		if !ok || value == nil || value == "" {
			return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
				fmt.Sprintf("value %q is required", key), nil, "647019c9-bc93-4305-836e-f6aa8981dc40")
		}
	}
	return nil
}

func mergeSecrets(spec Spec, stored, incoming map[string]any) map[string]any {
	merged := make(map[string]any, len(incoming))
	for key, value := range incoming {
		merged[key] = value
	}
	for key, arg := range spec.Arguments {
		if arg.Format != "password" {
			continue
		}
		if merged[key] == SecretPlaceholder {
			merged[key] = stored[key]
		}
	}
	return merged
}
