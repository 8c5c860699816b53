package credential

import (
	"errors"
	"time"

	"golang.org/x/oauth2"
)

// TokenType is the only token type the target application understands.
const TokenType = "Bearer"

// ErrEmptyAccessToken is returned when a credential without an access token
// is about to be written.
var ErrEmptyAccessToken = errors.New("credential has no access token")

// Credential is a captured OAuth credential. Expiry is an absolute time in
// unix seconds, which is how the target application stores it.
type Credential struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	Expiry       int64  `json:"expiry"`
}

// New returns a Bearer credential.
func New(accessToken, refreshToken string, expiry int64) Credential {
	return Credential{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    TokenType,
		Expiry:       expiry,
	}
}

// FromOAuth2Token converts a token returned by an oauth2 exchange. Tokens
// without an expiry are given one relative to now using expiresIn, falling
// back to one hour.
func FromOAuth2Token(tok *oauth2.Token, now time.Time) Credential {
	expiry := tok.Expiry
	if expiry.IsZero() {
		expiry = now.Add(time.Hour)
		if tok.ExpiresIn > 0 {
			expiry = now.Add(time.Duration(tok.ExpiresIn) * time.Second)
		}
	}
	return New(tok.AccessToken, tok.RefreshToken, expiry.Unix())
}

// OAuth2Token converts the credential back into an oauth2 token, for use with
// an oauth2 TokenSource.
func (c Credential) OAuth2Token() *oauth2.Token {
	tokenType := c.TokenType
	if tokenType == "" {
		tokenType = TokenType
	}
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    tokenType,
		Expiry:       time.Unix(c.Expiry, 0),
	}
}

// ExpiresAt returns Expiry as a time.Time.
func (c Credential) ExpiresAt() time.Time {
	return time.Unix(c.Expiry, 0)
}

// IsExpired reports whether the credential has expired at now.
func (c Credential) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt())
}

// Validate checks the credential can be written to the state store.
func (c Credential) Validate() error {
	if c.AccessToken == "" {
		return ErrEmptyAccessToken
	}
	return nil
}
