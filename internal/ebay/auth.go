package ebay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const defaultTokenURL = "https://api.ebay.com/identity/v1/oauth2/token"

// Renew this long before the reported expiry to avoid mid-request expiry.
const tokenExpiryBuffer = 5 * time.Minute

// TokenManager exchanges a long-lived refresh token for short-lived access
// tokens and caches the current one until near expiry. Constructed
// explicitly and owned by the client that uses it; nothing here is global.
type TokenManager struct {
	clientID     string
	clientSecret string
	refreshToken string
	tokenURL     string
	httpClient   *http.Client

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

// NewTokenManager creates a token manager for the given OAuth credentials.
func NewTokenManager(clientID, clientSecret, refreshToken string) *TokenManager {
	return &TokenManager{
		clientID:     clientID,
		clientSecret: clientSecret,
		refreshToken: refreshToken,
		tokenURL:     defaultTokenURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// SetTokenURL overrides the token endpoint. Used against sandbox or test
// servers.
func (m *TokenManager) SetTokenURL(u string) {
	m.tokenURL = u
}

// SetStaticToken installs a pre-issued access token with its expiry,
// bypassing the first refresh.
func (m *TokenManager) SetStaticToken(token string, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accessToken = token
	m.expiresAt = expiresAt
}

// Token returns a valid access token, refreshing it when the cached one is
// missing or near expiry.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.accessToken != "" && time.Now().Before(m.expiresAt.Add(-tokenExpiryBuffer)) {
		return m.accessToken, nil
	}
	if err := m.refreshLocked(ctx); err != nil {
		return "", err
	}
	return m.accessToken, nil
}

func (m *TokenManager) refreshLocked(ctx context.Context) error {
	if m.refreshToken == "" {
		return fmt.Errorf("no refresh token configured")
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", m.refreshToken)
	form.Set("scope", "https://api.ebay.com/oauth/api_scope")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("creating token request: %w", err)
	}
	basic := base64.StdEncoding.EncodeToString([]byte(m.clientID + ":" + m.clientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token refresh failed with status %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("parsing token response: %w", err)
	}
	if payload.AccessToken == "" {
		return fmt.Errorf("token response missing access_token")
	}

	m.accessToken = payload.AccessToken
	m.expiresAt = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	return nil
}
