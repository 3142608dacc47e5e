package session

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ApexDigital-Tech/Coonecta-consultores/libs/auth"
	"github.com/ApexDigital-Tech/Coonecta-consultores/services/agenda-service/internal/notify"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Session is the identity attached to an authenticated request. It is an
// explicit value passed through the request context; nothing holds it in a
// package-level variable.
type Session struct {
	UserID string
	Email  string
	Role   string
}

// Service verifies bearer tokens. Two issuers are accepted: the hosted
// identity provider (HS256 with its project secret) and this service's own
// fallback login, used when the deployment runs without the provider.
type Service struct {
	providerSecret string
	localSecret    string
	adminEmail     string
	adminHash      string
	tokenTTL       time.Duration
	bus            notify.Bus
}

type Config struct {
	ProviderSecret string // identity provider JWT secret; may be empty
	LocalSecret    string // secret for tokens minted by Login
	AdminEmail     string
	AdminHash      string // bcrypt hash of the fallback admin password
	TokenTTL       time.Duration
	Bus            notify.Bus // optional; session-change hints
}

func NewService(cfg Config) *Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 12 * time.Hour
	}
	if cfg.Bus == nil {
		cfg.Bus = notify.NoopBus{}
	}
	return &Service{
		providerSecret: cfg.ProviderSecret,
		localSecret:    cfg.LocalSecret,
		adminEmail:     cfg.AdminEmail,
		adminHash:      cfg.AdminHash,
		tokenTTL:       cfg.TokenTTL,
		bus:            cfg.Bus,
	}
}

// Login checks the fallback admin credentials and mints a local token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	if s.adminEmail == "" || s.adminHash == "" || s.localSecret == "" {
		return "", ErrInvalidCredentials
	}
	if email != s.adminEmail {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.adminHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	token, err := auth.SignHS256(auth.Claims{
		Sub:   "local-admin",
		Email: email,
		Role:  "admin",
		Iat:   now.Unix(),
		Exp:   now.Add(s.tokenTTL).Unix(),
	}, s.localSecret)
	if err != nil {
		return "", err
	}
	// Best effort, same as the appointment hints.
	_ = s.bus.Publish(ctx, notify.EventSessionChanged)
	return token, nil
}

// Verify accepts a bearer token from either issuer.
func (s *Service) Verify(token string) (*Session, error) {
	for _, secret := range []string{s.providerSecret, s.localSecret} {
		if secret == "" {
			continue
		}
		claims, err := auth.ParseAndVerifyHS256(token, secret)
		if err != nil {
			continue
		}
		role := claims.Role
		if role == "" {
			// Provider tokens carry no role claim; anyone the provider
			// authenticates is an admin in this back-office.
			role = "admin"
		}
		return &Session{UserID: claims.Sub, Email: claims.Email, Role: role}, nil
	}
	return nil, auth.ErrInvalidToken
}

type ctxKey int

const ctxKeySession ctxKey = iota

func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, ctxKeySession, sess)
}

func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(ctxKeySession).(*Session)
	return sess, ok
}
