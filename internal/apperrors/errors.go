package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRoleMismatch       = errors.New("role not allowed on this login path")

	// Token verification failures. Exactly one of them is wrapped into
	// every error returned by tokenmanager parse calls.
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenSignature = errors.New("token signature invalid")
	ErrTokenExpired   = errors.New("token expired")

	// Session registry misses and refresh rejections.
	// ErrRefreshRejected deliberately covers absent, superseded and
	// cryptographically invalid refresh tokens alike: the caller must not
	// be able to tell them apart.
	ErrSessionNotFound = errors.New("session not found")
	ErrRefreshRejected = errors.New("refresh token invalid or superseded")

	ErrBlogNotFound     = errors.New("blog not found")
	ErrBlogNotPublished = errors.New("blog is not published yet")

	ErrCategoryAlreadyExists = errors.New("category already exists")
	ErrCategoryNotFound      = errors.New("category not found")
)
