package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/domain"
)

// UserStore is the slice of the repository the provider needs.
type UserStore interface {
	UserByUsername(ctx context.Context, username string) (*domain.User, error)
	UserByID(ctx context.Context, id int64) (*domain.User, error)
	UserPermissions(ctx context.Context, userID int64) ([]string, error)
}

type TokenPair struct {
	Token            string    `json:"token"`
	RefreshToken     string    `json:"refresh_token"`
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// Provider is the identity provider: it issues, verifies, refreshes and
// revokes bearer tokens and resolves them into an Identity.
type Provider struct {
	users   UserStore
	tokens  *TokenService
	revoked RevocationStore
	hasher  *BcryptHasher
	log     zerolog.Logger
	now     func() time.Time
}

func NewProvider(users UserStore, tokens *TokenService, revoked RevocationStore, hasher *BcryptHasher, log zerolog.Logger) *Provider {
	return &Provider{users: users, tokens: tokens, revoked: revoked, hasher: hasher, log: log, now: time.Now}
}

// Obtain checks credentials and issues an access/refresh token pair.
func (p *Provider) Obtain(ctx context.Context, username, password string) (*TokenPair, error) {
	u, err := p.users.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthenticated)
		}
		return nil, err
	}
	if !u.IsActive || p.hasher.Compare(u.PasswordHash, password) != nil {
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthenticated)
	}
	pair, err := p.issue(u)
	if err != nil {
		return nil, err
	}
	p.log.Info().Str("user", u.Username).Msg("token issued")
	return pair, nil
}

func (p *Provider) issue(u *domain.User) (*TokenPair, error) {
	access, ac, err := p.tokens.Generate(u.ID, u.Username, AccessToken)
	if err != nil {
		return nil, err
	}
	refresh, rc, err := p.tokens.Generate(u.ID, u.Username, RefreshToken)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		Token:            access,
		RefreshToken:     refresh,
		ExpiresAt:        ac.ExpiresAt.Time,
		RefreshExpiresAt: rc.ExpiresAt.Time,
	}, nil
}

func (p *Provider) validate(ctx context.Context, token string, typ TokenType) (*Claims, error) {
	claims, err := p.tokens.Validate(token, typ)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	revoked, err := p.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: revocation lookup: %v", domain.ErrStore, err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", domain.ErrUnauthenticated)
	}
	return claims, nil
}

// Verify reports the claims of a live access token.
func (p *Provider) Verify(ctx context.Context, token string) (*Claims, error) {
	return p.validate(ctx, token, AccessToken)
}

// Refresh exchanges a refresh token for a new pair. The old refresh token
// is revoked so it can be used only once.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := p.validate(ctx, refreshToken, RefreshToken)
	if err != nil {
		return nil, err
	}
	u, err := p.activeUser(ctx, claims.UserID())
	if err != nil {
		return nil, err
	}
	if err := p.revoke(ctx, claims); err != nil {
		return nil, err
	}
	return p.issue(u)
}

// Revoke invalidates a refresh token.
func (p *Provider) Revoke(ctx context.Context, refreshToken string) error {
	claims, err := p.validate(ctx, refreshToken, RefreshToken)
	if err != nil {
		return err
	}
	return p.revoke(ctx, claims)
}

// Invalidate drops an access token before its natural expiry.
func (p *Provider) Invalidate(ctx context.Context, accessToken string) error {
	claims, err := p.validate(ctx, accessToken, AccessToken)
	if err != nil {
		return err
	}
	return p.revoke(ctx, claims)
}

func (p *Provider) revoke(ctx context.Context, c *Claims) error {
	if err := p.revoked.Revoke(ctx, c.ID, c.ExpiresAt.Sub(p.now())); err != nil {
		return fmt.Errorf("%w: revoke token: %v", domain.ErrStore, err)
	}
	p.log.Info().Str("user", c.Username).Str("typ", string(c.Type)).Msg("token revoked")
	return nil
}

func (p *Provider) activeUser(ctx context.Context, id int64) (*domain.User, error) {
	u, err := p.users.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown user", domain.ErrUnauthenticated)
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, fmt.Errorf("%w: user disabled", domain.ErrUnauthenticated)
	}
	return u, nil
}

// Resolve turns an Authorization header value ("Bearer <jwt>" or the bare
// token) into the caller identity with its current permission set.
func (p *Provider) Resolve(ctx context.Context, credential string) (*Identity, error) {
	token := strings.TrimSpace(credential)
	if scheme, rest, ok := strings.Cut(token, " "); ok && (strings.EqualFold(scheme, "Bearer") || strings.EqualFold(scheme, "JWT")) {
		token = strings.TrimSpace(rest)
	}
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	claims, err := p.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	return p.ResolveUser(ctx, claims.UserID())
}

// ResolveUser loads the identity of an active user by id.
func (p *Provider) ResolveUser(ctx context.Context, userID int64) (*Identity, error) {
	u, err := p.activeUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	perms, err := p.users.UserPermissions(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return NewIdentity(u.ID, u.Username, perms), nil
}

// ResolveUsername loads the identity of an active user by name. Used by
// service processes that act as a fixed principal.
func (p *Provider) ResolveUsername(ctx context.Context, username string) (*Identity, error) {
	u, err := p.users.UserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return p.ResolveUser(ctx, u.ID)
}
