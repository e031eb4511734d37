package models

import (
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID          uuid.UUID
	CreatedAt   time.Time
	Name        string
	Description string
}
