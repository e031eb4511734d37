package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nkarpov/blogify/internal/apperrors"
	"github.com/nkarpov/blogify/internal/models"
	"github.com/nkarpov/blogify/internal/repository"
	"github.com/nkarpov/blogify/internal/service/auth/tokenmanager"
)

const (
	defaultAccessCookieName  = "accessToken"
	defaultRefreshCookieName = "refreshToken"
	defaultAccessAuthScheme  = "Bearer"
	defaultCookiePath        = "/"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

var DefaultHasher PasswordHasher = BcryptHasher{}

type Config struct {
	// Cookie and header names shared with the access guard.
	// Defaults are used when empty
	AccessCookieName  string
	RefreshCookieName string
	AccessAuthScheme  string
	CookiePath        string

	// Mark cookies Secure. Off only for local development
	SecureCookies bool

	// Hasher used during registration and login
	Hasher PasswordHasher
}

// AuthService orchestrates registration, login, refresh and logout
type AuthService struct {
	token  *tokenmanager.TokenManager
	hasher PasswordHasher

	userRepo    repository.UserRepo
	sessionRepo repository.SessionRepo

	accessCookieName  string
	refreshCookieName string
	accessAuthScheme  string
	cookiePath        string
	secureCookies     bool
}

func NewService(cfg Config, token *tokenmanager.TokenManager, userRepo repository.UserRepo, sessionRepo repository.SessionRepo) (*AuthService, error) {
	if token == nil {
		return nil, errors.New("token manager must not be nil")
	}
	if userRepo == nil || sessionRepo == nil {
		return nil, errors.New("repos must not be nil")
	}

	setDefaultString := func(field *string, def string) {
		if *field == "" {
			*field = def
		}
	}
	setDefaultString(&cfg.AccessCookieName, defaultAccessCookieName)
	setDefaultString(&cfg.RefreshCookieName, defaultRefreshCookieName)
	setDefaultString(&cfg.AccessAuthScheme, defaultAccessAuthScheme)
	setDefaultString(&cfg.CookiePath, defaultCookiePath)

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}

	return &AuthService{
		token:             token,
		hasher:            hasher,
		userRepo:          userRepo,
		sessionRepo:       sessionRepo,
		accessCookieName:  cfg.AccessCookieName,
		refreshCookieName: cfg.RefreshCookieName,
		accessAuthScheme:  cfg.AccessAuthScheme,
		cookiePath:        cfg.CookiePath,
		secureCookies:     cfg.SecureCookies,
	}, nil
}

// Register creates a user account. The public registration path always
// creates role 'user': admin accounts exist only via out of band provisioning
func (s *AuthService) Register(ctx context.Context, name string, email string, password string) (models.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, fmt.Errorf("can't use this as password, error=%w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, name, email, hash, models.RoleUser)
	if err != nil {
		return models.User{}, err
	}

	return user, nil
}

// Login authenticates the user and opens a session. The wantRole filter makes
// the user and admin login endpoints distinct: an account presented on the
// wrong entry point fails with ErrRoleMismatch before the password is checked
func (s *AuthService) Login(ctx context.Context, email string, password string, wantRole string) (models.TokenPair, models.User, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return models.TokenPair{}, models.User{}, apperrors.ErrUserNotFound
		}
		return models.TokenPair{}, models.User{}, fmt.Errorf("can't load user. Err: %w", err)
	}

	if user.Role != wantRole {
		return models.TokenPair{}, models.User{}, apperrors.ErrRoleMismatch
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.TokenPair{}, models.User{}, apperrors.ErrInvalidCredentials
	}

	pair, err := s.openSession(ctx, user.ID)
	if err != nil {
		return models.TokenPair{}, models.User{}, err
	}

	return pair, user, nil
}

// Refresh exchanges a valid refresh token for a fresh pair.
// The token must verify cryptographically AND equal the registry entry for
// its subject: a superseded or revoked token fails even while its own
// signature is still valid. All failures collapse into ErrRefreshRejected.
// On success the refresh token rotates and the registry entry is overwritten
func (s *AuthService) Refresh(ctx context.Context, presented string) (models.TokenPair, error) {
	userID, err := s.token.ParseRefresh(presented)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%w: %w", apperrors.ErrRefreshRejected, err)
	}

	session, err := s.sessionRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrSessionNotFound) {
			return models.TokenPair{}, apperrors.ErrRefreshRejected
		}
		return models.TokenPair{}, fmt.Errorf("can't load session. Err: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(session.RefreshToken), []byte(presented)) != 1 {
		return models.TokenPair{}, apperrors.ErrRefreshRejected
	}

	return s.openSession(ctx, userID)
}

// Logout revokes the user session. Idempotent: absent sessions are fine
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.sessionRepo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("can't delete session. Err: %w", err)
	}
	return nil
}

// UserFromRequest is the access guard verification path: extract the access
// token, verify it and load the acting user
func (s *AuthService) UserFromRequest(ctx context.Context, r *http.Request) (models.User, error) {
	access, err := s.ReadAccessToken(r)
	if err != nil {
		return models.User{}, err
	}

	userID, err := s.token.ParseAccess(access)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	return user, nil
}

// openSession mints a pair and stores the refresh token in the registry,
// overwriting any previous session for the user
func (s *AuthService) openSession(ctx context.Context, userID uuid.UUID) (models.TokenPair, error) {
	access, err := s.token.IssueAccess(userID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not be generated, sorry. %w", err)
	}

	refresh, err := s.token.IssueRefresh(userID)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("token could not be generated, sorry. %w", err)
	}

	if err := s.sessionRepo.Put(ctx, userID, refresh.Value, refresh.ExpiresAt); err != nil {
		return models.TokenPair{}, fmt.Errorf("can't store session. Err: %w", err)
	}

	return models.TokenPair{Access: access, Refresh: refresh}, nil
}

// SetTokens writes both auth cookies to the response.
// Max-Age matches each token lifetime
func (s *AuthService) SetTokens(w http.ResponseWriter, pair models.TokenPair) {
	http.SetCookie(w, s.cookie(s.accessCookieName, pair.Access.Value, time.Until(pair.Access.ExpiresAt)))
	http.SetCookie(w, s.cookie(s.refreshCookieName, pair.Refresh.Value, time.Until(pair.Refresh.ExpiresAt)))
}

// ClearTokens expires both auth cookies regardless of whether a session existed
func (s *AuthService) ClearTokens(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie(s.accessCookieName, "", -time.Second))
	http.SetCookie(w, s.cookie(s.refreshCookieName, "", -time.Second))
}

// ReadAccessToken prefers the cookie and falls back to the Authorization
// header for clients that can't use cookies
func (s *AuthService) ReadAccessToken(r *http.Request) (string, error) {
	cookie, err := r.Cookie(s.accessCookieName)
	if err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	header := r.Header.Get("Authorization")
	scheme := s.accessAuthScheme + " "
	if strings.HasPrefix(header, scheme) {
		return strings.TrimPrefix(header, scheme), nil
	}

	return "", errors.New("no access token in cookie or authorization header")
}

func (s *AuthService) ReadRefreshToken(r *http.Request) (string, error) {
	cookie, err := r.Cookie(s.refreshCookieName)
	if err != nil || cookie.Value == "" {
		return "", errors.New("no refresh token cookie")
	}
	return cookie.Value, nil
}

func (s *AuthService) cookie(name string, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     s.cookiePath,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   s.secureCookies,
	}
}
