package auth

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// RefreshError is a failed token refresh. Callers treat it as a
// configuration-class failure, not a per-request one.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("failed to refresh GCP access token: %v", e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }

// refreshWindow is the safety buffer before expiry: a token expiring within
// this window is refreshed proactively so it cannot expire mid-call.
const refreshWindow = 5 * time.Minute

// Manager holds a service-account credential and serves cached bearer
// tokens, refreshing them before they expire. One Manager is constructed at
// process start and shared across requests; refresh is serialized by a
// mutex so concurrent callers cannot trigger duplicate network calls.
type Manager struct {
	fetch  func(ctx context.Context) (*oauth2.Token, error)
	now    func() time.Time
	logger *log.Logger

	mu    sync.Mutex
	token *oauth2.Token
}

// NewManager parses the service-account JSON key material. A malformed key
// is a configuration error and fails construction.
func NewManager(serviceAccountKey string) (*Manager, error) {
	jwtCfg, err := google.JWTConfigFromJSON([]byte(serviceAccountKey), cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("invalid GCP service account key: %w", err)
	}
	m := newManager()
	m.fetch = func(ctx context.Context) (*oauth2.Token, error) {
		return jwtCfg.TokenSource(ctx).Token()
	}
	return m, nil
}

func newManager() *Manager {
	return &Manager{
		now:    time.Now,
		logger: log.New(log.Writer(), "[TOKEN] ", log.LstdFlags),
	}
}

// Token returns a valid bearer token, refreshing when the cached token is
// missing, invalid, or expires within the refresh window.
func (m *Manager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fresh() {
		return m.token.AccessToken, nil
	}

	tok, err := m.fetch(ctx)
	if err != nil {
		return "", &RefreshError{Err: err}
	}
	m.token = tok
	if !tok.Expiry.IsZero() {
		m.logger.Printf("refreshed, valid for %.1f minutes", tok.Expiry.Sub(m.now()).Minutes())
	}
	return tok.AccessToken, nil
}

func (m *Manager) fresh() bool {
	if m.token == nil || m.token.AccessToken == "" {
		return false
	}
	if m.token.Expiry.IsZero() {
		return true
	}
	return m.token.Expiry.Sub(m.now()) >= refreshWindow
}

// TokenSource adapts the manager to oauth2.TokenSource so Google API
// clients can reuse its cached credential.
func (m *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSourceAdapter{manager: m, ctx: ctx}
}

type tokenSourceAdapter struct {
	manager *Manager
	ctx     context.Context
}

// Token implements oauth2.TokenSource.
func (t *tokenSourceAdapter) Token() (*oauth2.Token, error) {
	accessToken, err := t.manager.Token(t.ctx)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}, nil
}
