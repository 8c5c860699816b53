package capture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"sessionsplice/internal/credential"
	"sessionsplice/pkg/logging"
	pkgstrings "sessionsplice/pkg/strings"
)

// DefaultHTTPTimeout is the default timeout for provider HTTP requests.
const DefaultHTTPTimeout = 30 * time.Second

// Google endpoints used when the configuration does not override them.
const (
	GoogleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	GoogleTokenURL    = "https://oauth2.googleapis.com/token"
	GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// DefaultScopes are the scopes the target application requests.
var DefaultScopes = []string{
	"https://www.googleapis.com/auth/cloud-platform",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/cclog",
	"https://www.googleapis.com/auth/experimentsandconfigs",
}

// ErrNoRefreshToken is returned when an exchange yields no refresh token.
var ErrNoRefreshToken = errors.New("provider returned no refresh token")

// ProviderConfig configures the OAuth provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	Scopes       []string

	// PKCE adds an S256 code challenge to the authorization request.
	PKCE bool

	// HTTPClient is an optional custom HTTP client.
	HTTPClient *http.Client
}

// UserInfo is the subset of the userinfo response we use.
type UserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Provider builds authorization URLs and talks to the token and userinfo
// endpoints.
type Provider struct {
	cfg        ProviderConfig
	httpClient *http.Client
}

// NewProvider creates a Provider, filling unset endpoints with Google's.
func NewProvider(cfg ProviderConfig) *Provider {
	if cfg.AuthURL == "" {
		cfg.AuthURL = GoogleAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = GoogleTokenURL
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = GoogleUserInfoURL
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}

	return &Provider{cfg: cfg, httpClient: httpClient}
}

func (p *Provider) oauth2Config(redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.cfg.ClientID,
		ClientSecret: p.cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   p.cfg.AuthURL,
			TokenURL:  p.cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: redirectURI,
		Scopes:      p.cfg.Scopes,
	}
}

func (p *Provider) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

// AuthCodeURL returns the authorization URL. Offline access and forced
// consent make the provider issue a refresh token on every login.
func (p *Provider) AuthCodeURL(redirectURI, state, verifier string) string {
	opts := []oauth2.AuthCodeOption{
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	}
	if p.cfg.PKCE && verifier != "" {
		opts = append(opts, oauth2.S256ChallengeOption(verifier))
	}
	return p.oauth2Config(redirectURI).AuthCodeURL(state, opts...)
}

// Exchange trades a captured grant for a credential.
func (p *Provider) Exchange(ctx context.Context, grant *Grant) (credential.Credential, error) {
	var opts []oauth2.AuthCodeOption
	if p.cfg.PKCE && grant.CodeVerifier != "" {
		opts = append(opts, oauth2.VerifierOption(grant.CodeVerifier))
	}

	tok, err := p.oauth2Config(grant.RedirectURI).Exchange(p.withClient(ctx), grant.Code, opts...)
	if err != nil {
		return credential.Credential{}, fmt.Errorf("exchanging authorization code: %w", err)
	}
	if tok.RefreshToken == "" {
		return credential.Credential{}, ErrNoRefreshToken
	}

	cred := credential.FromOAuth2Token(tok, time.Now())
	logging.Debug("Provider", "Exchanged code for token %s, expires %s",
		logging.TruncateSecret(cred.AccessToken), cred.ExpiresAt().Format(time.RFC3339))
	return cred, nil
}

// Refresh returns cred unchanged while it is valid, otherwise a refreshed
// credential. The refresh token is kept when the provider does not rotate it.
func (p *Provider) Refresh(ctx context.Context, cred credential.Credential) (credential.Credential, error) {
	if cred.RefreshToken == "" {
		return credential.Credential{}, ErrNoRefreshToken
	}

	src := p.oauth2Config("").TokenSource(p.withClient(ctx), cred.OAuth2Token())
	tok, err := src.Token()
	if err != nil {
		return credential.Credential{}, fmt.Errorf("refreshing access token: %w", err)
	}

	refreshed := credential.FromOAuth2Token(tok, time.Now())
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = cred.RefreshToken
	}
	return refreshed, nil
}

// UserInfo fetches the account profile for cred.
func (p *Provider) UserInfo(ctx context.Context, cred credential.Credential) (*UserInfo, error) {
	client := oauth2.NewClient(p.withClient(ctx), oauth2.StaticTokenSource(cred.OAuth2Token()))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching user info: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading user info: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info request failed with status %d: %s", resp.StatusCode,
			pkgstrings.TruncateLine(string(body), pkgstrings.DefaultLineMaxLen))
	}

	var info UserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("decoding user info: %w", err)
	}
	if info.Email == "" {
		return nil, errors.New("user info response has no email")
	}
	return &info, nil
}
