// Package session issues and validates the signed tokens that carry a
// user's identity between requests, and records login/logout in the
// audit trail.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"mocdesk.org/internal/domain"
	"mocdesk.org/internal/store"
)

const (
	defaultIssuer     = "mocdesk"
	defaultAccessTTL  = time.Hour
	defaultRefreshTTL = 7 * 24 * time.Hour

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// ErrInvalidToken indicates the token failed signature or claim checks.
var ErrInvalidToken = errors.New("invalid token")

// Claims carries a snapshot of the user taken at issuance. Validate
// trusts this snapshot for its lifetime; role or status changes made
// after issuance take effect at the next Refresh, which re-reads the
// live record. That staleness window is bounded by the access TTL.
type Claims struct {
	UserID    string      `json:"uid"`
	UserName  string      `json:"name"`
	UserEmail string      `json:"email"`
	UserRole  domain.Role `json:"role"`
	TokenType string      `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair is the access/refresh pair returned at login and refresh.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// Manager signs, refreshes and validates session tokens.
type Manager struct {
	store      store.Store
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// Option configures Manager behavior.
type Option func(*Manager)

// WithIssuer overrides the token issuer claim.
func WithIssuer(issuer string) Option {
	return func(m *Manager) {
		if issuer = strings.TrimSpace(issuer); issuer != "" {
			m.issuer = issuer
		}
	}
}

// WithAccessTTL configures access token lifetime.
func WithAccessTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.accessTTL = ttl
		}
	}
}

// WithRefreshTTL configures refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.refreshTTL = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(m *Manager) {
		if fn != nil {
			m.now = fn
		}
	}
}

// NewManager constructs a Manager. The signing secret is required.
func NewManager(st store.Store, secret string, opts ...Option) (*Manager, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("session: signing secret is not configured")
	}
	m := &Manager{
		store:      st,
		secret:     []byte(secret),
		issuer:     defaultIssuer,
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Issue authenticates the credentials and returns a fresh token pair.
// Inactive accounts and bad credentials both come back as
// ErrUnauthenticated; a LOGIN audit entry is appended on success.
// Emails are matched case-insensitively: Admin@ and admin@ are the
// same account, not two, and the store enforces that with a
// lower(email) unique index.
func (m *Manager) Issue(ctx context.Context, email, password string) (TokenPair, domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return TokenPair{}, domain.User{}, domain.ErrUnauthenticated
	}
	user, err := m.store.Users().GetByEmail(ctx, email)
	if err != nil {
		return TokenPair{}, domain.User{}, domain.ErrUnauthenticated
	}
	if !user.Active {
		return TokenPair{}, domain.User{}, domain.ErrUnauthenticated
	}
	if user.PasswordHash != "" {
		if err := VerifyPassword(user.PasswordHash, password); err != nil {
			return TokenPair{}, domain.User{}, domain.ErrUnauthenticated
		}
	}

	pair, err := m.mint(user)
	if err != nil {
		return TokenPair{}, domain.User{}, err
	}
	m.appendAudit(ctx, user, domain.ActionLogin, "signed in")
	return pair, user, nil
}

// Refresh validates a refresh token, re-reads the live user record and
// mints a new access token. The refresh token itself is not rotated;
// the caller keeps using it until it expires.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (TokenPair, domain.User, error) {
	claims, err := m.parse(refreshToken, tokenTypeRefresh)
	if err != nil {
		return TokenPair{}, domain.User{}, ErrInvalidToken
	}
	user, err := m.store.Users().Get(ctx, claims.UserID)
	if err != nil || !user.Active {
		return TokenPair{}, domain.User{}, ErrInvalidToken
	}

	now := m.now().UTC()
	accessToken, accessExp, err := m.sign(user, tokenTypeAccess, now, m.accessTTL)
	if err != nil {
		return TokenPair{}, domain.User{}, err
	}
	return TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: claims.ExpiresAt.Time,
	}, user, nil
}

// Validate checks an access token and returns the embedded user
// snapshot. An invalid or expired token returns (zero, false), never
// an error: callers treat absence of a session as a normal state.
func (m *Manager) Validate(accessToken string) (domain.User, bool) {
	claims, err := m.parse(accessToken, tokenTypeAccess)
	if err != nil {
		return domain.User{}, false
	}
	return domain.User{
		ID:     claims.UserID,
		Name:   claims.UserName,
		Email:  claims.UserEmail,
		Role:   claims.UserRole,
		Active: true,
	}, true
}

// End records a LOGOUT entry for the token's user. Tokens are
// stateless, so ending a session is purely an audit event; the client
// discards its copy.
func (m *Manager) End(ctx context.Context, accessToken string) {
	user, ok := m.Validate(accessToken)
	if !ok {
		return
	}
	m.appendAudit(ctx, user, domain.ActionLogout, "signed out")
}

// RequestPasswordReset acknowledges a reset request without revealing
// whether the account exists. A matching active account gets a SYSTEM
// audit entry; everything else is a silent no-op.
func (m *Manager) RequestPasswordReset(ctx context.Context, email string) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return
	}
	user, err := m.store.Users().GetByEmail(ctx, email)
	if err != nil || !user.Active {
		return
	}
	m.appendAudit(ctx, user, domain.ActionSystem, "password reset requested")
}

func (m *Manager) mint(user domain.User) (TokenPair, error) {
	now := m.now().UTC()
	accessToken, accessExp, err := m.sign(user, tokenTypeAccess, now, m.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refreshToken, refreshExp, err := m.sign(user, tokenTypeRefresh, now, m.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (m *Manager) sign(user domain.User, tokenType string, now time.Time, ttl time.Duration) (string, time.Time, error) {
	exp := now.Add(ttl)
	claims := Claims{
		UserID:    user.ID,
		UserName:  user.Name,
		UserEmail: user.Email,
		UserRole:  user.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

func (m *Manager) parse(raw, wantType string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return m.now().UTC() }))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != m.issuer || claims.TokenType != wantType {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (m *Manager) appendAudit(ctx context.Context, user domain.User, action domain.AuditAction, details string) {
	entry := domain.AuditEntry{
		ID:        uuid.NewString(),
		ActorID:   user.ID,
		ActorName: user.Name,
		ActorRole: user.Role,
		Action:    action,
		Resource:  domain.ResourceSession,
		Timestamp: m.now().UTC(),
		Details:   details,
	}
	// Session bookkeeping must not fail the login path.
	_ = m.store.Audit().Append(ctx, entry)
}
