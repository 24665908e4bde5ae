package model

import "time"

// RefreshToken is an opaque session credential. The unique index on user_id
// enforces at most one live row per user at the schema level; issuance upserts
// against it. Rows are hard-deleted on logout, rotation and expired use, so
// this model does not carry gorm's soft-delete column.
type RefreshToken struct {
	ID        uint      `gorm:"primarykey"`
	UserID    uint      `gorm:"column:user_id;not null;uniqueIndex"`
	User      *User     `gorm:"foreignKey:UserID"`
	Token     string    `gorm:"column:token;size:256;unique;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	CreatedAt time.Time
}

// IsExpired reports whether the token is past its expiry.
func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}
