package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/picogrid/daidalus-go/pkg/daidalus/daalog"
)

// TokenSource supplies a bearer token for each request against the
// upstream tracking service (spec.md's "client API" collaborator).
type TokenSource interface {
	GetAccessToken(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource for a pre-issued, non-expiring API key.
type StaticToken string

func (s StaticToken) GetAccessToken(context.Context) (string, error) { return string(s), nil }

// OAuthConfig configures password-grant OAuth2 authentication against a
// Keycloak-compatible realm, mirroring the teacher's KeycloakConfig.
type OAuthConfig struct {
	BaseURL  string
	Realm    string
	ClientID string
	Timeout  time.Duration
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
	TokenType        string `json:"token_type"`
}

// oauthClient performs the token-endpoint exchanges; OAuthTokenSource
// wraps it with caching and auto-refresh.
type oauthClient struct {
	cfg        OAuthConfig
	httpClient *http.Client
	log        daalog.Logger
}

func newOAuthClient(cfg OAuthConfig, log daalog.Logger) *oauthClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &oauthClient{cfg: cfg, httpClient: &http.Client{Timeout: timeout}, log: log}
}

func (k *oauthClient) exchange(ctx context.Context, form url.Values) (*tokenResponse, error) {
	tokenURL := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", k.cfg.BaseURL, k.cfg.Realm)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && k.log != nil {
			k.log.Warn("feed: close token response body: " + cerr.Error())
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		_ = json.Unmarshal(body, &errResp)
		if resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("invalid credentials")
		}
		return nil, fmt.Errorf("token request failed: %s", errResp.ErrorDescription)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("parse token response: %w", err)
	}
	return &tr, nil
}

func (k *oauthClient) authenticatePassword(ctx context.Context, username, password string) (*tokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("client_id", k.cfg.ClientID)
	form.Set("username", username)
	form.Set("password", password)
	return k.exchange(ctx, form)
}

func (k *oauthClient) refresh(ctx context.Context, refreshToken string) (*tokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", k.cfg.ClientID)
	form.Set("refresh_token", refreshToken)
	return k.exchange(ctx, form)
}

// OAuthTokenSource is a TokenSource that caches a Keycloak-issued access
// token and transparently refreshes it a margin before expiry.
type OAuthTokenSource struct {
	client        *oauthClient
	mu            sync.RWMutex
	accessToken   string
	refreshToken  string
	expiresAt     time.Time
	refreshMargin time.Duration
}

// NewOAuthTokenSource authenticates once with username/password and
// returns a TokenSource that keeps itself refreshed thereafter.
func NewOAuthTokenSource(ctx context.Context, cfg OAuthConfig, username, password string, log daalog.Logger) (*OAuthTokenSource, error) {
	oc := newOAuthClient(cfg, log)
	tr, err := oc.authenticatePassword(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return &OAuthTokenSource{
		client:        oc,
		accessToken:   tr.AccessToken,
		refreshToken:  tr.RefreshToken,
		expiresAt:     time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
		refreshMargin: 30 * time.Second,
	}, nil
}

func (t *OAuthTokenSource) GetAccessToken(ctx context.Context) (string, error) {
	t.mu.RLock()
	if time.Now().Before(t.expiresAt.Add(-t.refreshMargin)) {
		token := t.accessToken
		t.mu.RUnlock()
		return token, nil
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if time.Now().Before(t.expiresAt.Add(-t.refreshMargin)) {
		return t.accessToken, nil
	}
	tr, err := t.client.refresh(ctx, t.refreshToken)
	if err != nil {
		return "", fmt.Errorf("refresh access token: %w", err)
	}
	t.accessToken = tr.AccessToken
	t.refreshToken = tr.RefreshToken
	t.expiresAt = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	return t.accessToken, nil
}
