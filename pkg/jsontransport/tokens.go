package jsontransport

import "sync"

// Authorization selects which credentials a call carries.
type Authorization int

const (
	// AuthNone sends no credentials.
	AuthNone Authorization = iota
	// AuthProject sends the project API key.
	AuthProject
	// AuthProjectAndSession sends the project API key and the user session token.
	AuthProjectAndSession
)

const (
	HeaderAPIKey        = "Api-Key"
	HeaderAuthorization = "Authorization"
)

// Tokens holds the project token and the current user session token.
type Tokens struct {
	mu      sync.RWMutex
	project string
	session string
}

// NewTokens creates Tokens. session may be empty until the user logs in.
func NewTokens(project, session string) *Tokens {
	return &Tokens{project: project, session: session}
}

// SetSessionToken stores the token received after authentication.
func (t *Tokens) SetSessionToken(token string) {
	t.mu.Lock()
	t.session = token
	t.mu.Unlock()
}

// ClearSessionToken forgets the session token (logout or expiry).
func (t *Tokens) ClearSessionToken() {
	t.SetSessionToken("")
}

// SessionToken returns the current session token.
func (t *Tokens) SessionToken() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.session
}

// Headers returns the credential headers for auth. Empty tokens are omitted.
func (t *Tokens) Headers(auth Authorization) map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	h := make(map[string]string, 2)
	if auth >= AuthProject && t.project != "" {
		h[HeaderAPIKey] = "Bearer " + t.project
	}
	if auth == AuthProjectAndSession && t.session != "" {
		h[HeaderAuthorization] = "Bearer " + t.session
	}
	return h
}
