package models

import (
	"time"

	"github.com/google/uuid"
)

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued by the auth service on login and refresh
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}

// Session is the server side record of the single currently valid refresh
// token for a user. One row per user: a new login or a rotation overwrites it.
type Session struct {
	UserID       uuid.UUID
	RefreshToken string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}
