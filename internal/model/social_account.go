package model

import (
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Provider identifies the external identity provider of a social account.
type Provider string

const (
	ProviderGoogle Provider = "GOOGLE"
	ProviderKakao  Provider = "KAKAO"
	ProviderNaver  Provider = "NAVER"
	ProviderApple  Provider = "APPLE"
)

// ParseProvider converts a registration id ("google", "kakao", ...) to a
// Provider. Returns false for anything outside the supported set.
func ParseProvider(s string) (Provider, bool) {
	switch Provider(strings.ToUpper(s)) {
	case ProviderGoogle:
		return ProviderGoogle, true
	case ProviderKakao:
		return ProviderKakao, true
	case ProviderNaver:
		return ProviderNaver, true
	case ProviderApple:
		return ProviderApple, true
	}
	return "", false
}

// Name returns the lower-cased provider name used for synthesized emails and
// nickname fallbacks.
func (p Provider) Name() string {
	return strings.ToLower(string(p))
}

// SocialAccount links a provider-scoped external identity to a local user.
// Unique on (provider, provider_user_id). Email, display name and the raw
// attribute payload are caches of the last values seen from the provider.
type SocialAccount struct {
	gorm.Model
	Provider       Provider       `gorm:"column:provider;size:20;not null;uniqueIndex:idx_social_accounts_provider_uid"`
	ProviderUserID string         `gorm:"column:provider_user_id;size:120;not null;uniqueIndex:idx_social_accounts_provider_uid"`
	Email          string         `gorm:"column:email;size:120"`
	DisplayName    string         `gorm:"column:display_name;size:120"`
	RawAttributes  datatypes.JSON `gorm:"column:raw_attributes"`
	UserID         *uint          `gorm:"column:user_id;index"`
	User           *User          `gorm:"foreignKey:UserID"`
}

// AssociateUser links the account to a local user. The link is set exactly
// once; re-linking to a different user is not supported.
func (a *SocialAccount) AssociateUser(user *User) {
	if a.UserID != nil {
		return
	}
	id := user.ID
	a.UserID = &id
	a.User = user
}

// UpdateProfile refreshes the cached provider-side profile data.
func (a *SocialAccount) UpdateProfile(email, displayName string, raw datatypes.JSON) {
	a.Email = email
	a.DisplayName = displayName
	if len(raw) > 0 {
		a.RawAttributes = raw
	}
}
