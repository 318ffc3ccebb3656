package client

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"slpportal/internal/auth"
)

// Session outcomes.
var (
	// ErrNotAuthenticated means no valid principal is available; the
	// caller must go back through the unauthenticated entry point.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrWrongRole means the principal is valid but not allowed to use
	// the requested view. Distinct from ErrNotAuthenticated: the stored
	// principal is kept.
	ErrWrongRole = errors.New("you do not have permission to view this page")
)

// KV is the durable client-side key/value slot the browser provided via
// local and session storage.
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
}

// MemKV is an in-memory KV, used for tests and non-browser hosts.
type MemKV struct {
	mu sync.Mutex
	m  map[string]string
}

// NewMemKV creates an empty store.
func NewMemKV() *MemKV { return &MemKV{m: make(map[string]string)} }

func (s *MemKV) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok
}

func (s *MemKV) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
}

func (s *MemKV) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
}

const principalKey = "currentUser"

// SessionStore persists the current principal. The principal is replaced
// wholesale on login and removed on logout or failed validation, never
// mutated in place.
type SessionStore struct {
	kv KV
}

// NewSessionStore creates a store over the given KV.
func NewSessionStore(kv KV) *SessionStore { return &SessionStore{kv: kv} }

// Save replaces the stored principal.
func (s *SessionStore) Save(p auth.Principal) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	s.kv.Set(principalKey, string(raw))
	return nil
}

// Load returns the stored principal, if any. A malformed entry is
// treated as absent.
func (s *SessionStore) Load() (auth.Principal, bool) {
	raw, ok := s.kv.Get(principalKey)
	if !ok {
		return auth.Principal{}, false
	}
	var p auth.Principal
	if err := json.Unmarshal([]byte(raw), &p); err != nil || p.UserID == "" || p.Token == "" {
		return auth.Principal{}, false
	}
	return p, true
}

// Clear removes the stored principal.
func (s *SessionStore) Clear() { s.kv.Delete(principalKey) }

// Validator confirms a stored principal with the backend before any
// role-gated view renders.
type Validator struct {
	api   *Client
	store *SessionStore
}

// NewValidator creates a validator.
func NewValidator(api *Client, store *SessionStore) *Validator {
	return &Validator{api: api, store: store}
}

// Validate returns the confirmed principal. A missing or malformed
// candidate fails immediately without a network call. A backend
// isValid=false clears the store. Transport errors leave the store
// untouched so the caller can retry.
func (v *Validator) Validate(ctx context.Context) (auth.Principal, error) {
	p, ok := v.store.Load()
	if !ok {
		return auth.Principal{}, ErrNotAuthenticated
	}

	v.api.SetToken(p.Token)
	var result struct {
		IsValid bool `json:"isValid"`
	}
	_, err := v.api.Do(ctx, "validateToken", map[string]any{
		"userId": p.UserID,
		"token":  p.Token,
	}, &result)
	if err != nil {
		var te *TransportError
		if errors.As(err, &te) {
			return auth.Principal{}, err
		}
		// the backend rejected the envelope itself; treat as invalid
		v.store.Clear()
		return auth.Principal{}, ErrNotAuthenticated
	}
	if !result.IsValid {
		v.store.Clear()
		return auth.Principal{}, ErrNotAuthenticated
	}
	return p, nil
}

// RequireRole validates the session and then checks the role. A wrong
// role is reported distinctly and does not clear the principal.
func (v *Validator) RequireRole(ctx context.Context, role string) (auth.Principal, error) {
	p, err := v.Validate(ctx)
	if err != nil {
		return auth.Principal{}, err
	}
	if p.Role != role {
		return auth.Principal{}, ErrWrongRole
	}
	return p, nil
}

// Logout clears the stored principal and drops the client token.
func (v *Validator) Logout() {
	v.store.Clear()
	v.api.SetToken("")
}
