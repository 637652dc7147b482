// Package auth turns bearer tokens into users.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"jan-server/services/assistant-api/internal/config"
	"jan-server/services/assistant-api/internal/domain/user"
)

var ErrMissingToken = errors.New("missing bearer token")

// Validator validates JWTs against the JWKS of the configured issuer. When
// authentication is disabled every request runs as the development user.
type Validator struct {
	enabled    bool
	issuer     string
	audience   string
	groupClaim string
	adminGroup string
	devUser    user.User
	methods    []string
	keyfunc    jwt.Keyfunc
	jwks       *keyfunc.JWKS
	log        zerolog.Logger
}

// NewValidator fetches the JWKS when authentication is enabled.
func NewValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Validator, error) {
	v := newValidator(cfg, log)
	if !cfg.AuthEnabled {
		v.log.Warn().Str("user_id", cfg.DevUserID).Msg("authentication disabled, requests run as the development user")
		return v, nil
	}

	jwks, err := keyfunc.Get(cfg.AuthJWKSURL, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   cfg.AuthJWKSTTL,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			log.Error().Err(err).Msg("jwks refresh error")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	v.jwks = jwks
	v.keyfunc = jwks.Keyfunc
	return v, nil
}

func newValidator(cfg *config.Config, log zerolog.Logger) *Validator {
	groupClaim := cfg.AuthGroupClaim
	if groupClaim == "" {
		groupClaim = "groups"
	}
	return &Validator{
		enabled:    cfg.AuthEnabled,
		issuer:     cfg.AuthIssuer,
		audience:   cfg.AuthAudience,
		groupClaim: groupClaim,
		adminGroup: cfg.AdminGroup,
		devUser: user.User{
			ID:          cfg.DevUserID,
			Name:        cfg.DevUserID,
			UserGroupID: cfg.DevUserGroup,
			Groups:      []string{cfg.DevUserGroup},
			Admin:       cfg.DevUserGroup != "" && cfg.DevUserGroup == cfg.AdminGroup,
		},
		methods: []string{"RS256", "RS384", "RS512"},
		log:     log.With().Str("component", "auth").Logger(),
	}
}

func (v *Validator) Enabled() bool {
	return v.enabled
}

// Ready reports whether tokens can be validated.
func (v *Validator) Ready() bool {
	return !v.enabled || v.keyfunc != nil
}

// Shutdown stops the background JWKS refresh.
func (v *Validator) Shutdown() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

// Authenticate returns the user for the Authorization header value.
func (v *Validator) Authenticate(ctx context.Context, authorization string) (*user.User, error) {
	if !v.enabled {
		u := v.devUser
		u.Groups = append([]string{}, v.devUser.Groups...)
		return &u, nil
	}

	raw := BearerToken(authorization)
	if raw == "" {
		return nil, ErrMissingToken
	}
	if v.keyfunc == nil {
		return nil, errors.New("jwks not initialised")
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods(v.methods),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		options = append(options, jwt.WithAudience(v.audience))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, v.keyfunc, options...)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		return nil, errors.New("sub claim missing")
	}

	groups := claimStrings(claims[v.groupClaim])
	u := &user.User{
		ID:     sub,
		Name:   firstNonEmpty(claimString(claims["name"]), claimString(claims["preferred_username"])),
		Email:  claimString(claims["email"]),
		Groups: groups,
	}
	if len(groups) > 0 {
		u.UserGroupID = groups[0]
	}
	u.Admin = v.adminGroup != "" && u.InGroup(v.adminGroup)
	return u, nil
}

// BearerToken extracts the token of a "Bearer <token>" header value.
func BearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func claimString(value any) string {
	if str, ok := value.(string); ok {
		return str
	}
	return ""
}

// claimStrings accepts a list claim or a single, possibly space separated, string.
func claimStrings(value any) []string {
	switch v := value.(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, strings.TrimPrefix(s, "/"))
			}
		}
		return out
	case []string:
		return v
	case string:
		return strings.Fields(v)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
