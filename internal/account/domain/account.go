package domain

import (
	"errors"
	"time"
)

// Account links a user to a sign-in provider. (Provider, ProviderID) is unique across all users.
// For local credentials the provider is EMAIL and ProviderID is the normalised email.
type Account struct {
	ID           string     `json:"id" bson:"_id"`
	UserID       string     `json:"user_id" bson:"user_id"`
	Provider     Provider   `json:"provider" bson:"provider"`
	ProviderID   string     `json:"provider_id" bson:"provider_id"`
	RefreshToken string     `json:"refresh_token,omitempty" bson:"refresh_token,omitempty"`
	TokenExpiry  *time.Time `json:"token_expiry,omitempty" bson:"token_expiry,omitempty"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
}

type Provider string

const (
	ProviderEmail    Provider = "EMAIL"
	ProviderGoogle   Provider = "GOOGLE"
	ProviderGitHub   Provider = "GITHUB"
	ProviderFacebook Provider = "FACEBOOK"
)

// Valid reports whether p is a known provider.
func (p Provider) Valid() bool {
	switch p {
	case ProviderEmail, ProviderGoogle, ProviderGitHub, ProviderFacebook:
		return true
	}
	return false
}

// Validate validates the account for persistence.
func (a *Account) Validate() error {
	if a.UserID == "" {
		return errors.New("user_id is required")
	}
	if !a.Provider.Valid() {
		return errors.New("unknown provider")
	}
	if a.ProviderID == "" {
		return errors.New("provider_id is required")
	}
	return nil
}
