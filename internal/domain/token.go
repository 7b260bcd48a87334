package domain

import "time"

// AccessTokenKey is the credential store key holding the persisted token.
const AccessTokenKey = "access-token"

// AccessToken is the persisted OAuth token.
type AccessToken struct {
	Token  string     `json:"access_token"`
	Expiry *time.Time `json:"expiry,omitempty"`
}

// Expired reports whether the token is past its expiry at now.
func (t AccessToken) Expired(now time.Time) bool {
	return t.Expiry != nil && now.After(*t.Expiry)
}

// Grant is the result of a completed authorization flow.
type Grant struct {
	AccessToken string
	// ExpiresIn is zero when the provider did not report an expiry.
	ExpiresIn time.Duration
	State     string
	Scope     string
}
