package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GuestSession is the anonymous counterpart of a User. It is token-bearing
// (the token lives in an HttpOnly cookie on the client) and expires after a
// fixed TTL. Expired sessions are deleted lazily when discovered, not swept.
type GuestSession struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// GuestSessionTTL is how long a minted guest session stays valid.
const GuestSessionTTL = 7 * 24 * time.Hour

func (g *GuestSession) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// Expired reports whether the session is past its TTL.
func (g *GuestSession) Expired() bool {
	return time.Now().After(g.ExpiresAt)
}
