package credentials

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps credentials and tokens in process memory. It is the
// default backend and the one tests use; everything is lost on restart.
type MemoryStore struct {
	mu          sync.RWMutex
	credentials map[string]VendorCredential
	tokensByID  map[string]RequestToken
	tokenIDs    map[string]string // bearer value -> token ID
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		credentials: make(map[string]VendorCredential),
		tokensByID:  make(map[string]RequestToken),
		tokenIDs:    make(map[string]string),
	}
}

func (s *MemoryStore) CreateCredential(_ context.Context, cred VendorCredential) (VendorCredential, error) {
	if err := cred.Validate(); err != nil {
		return VendorCredential{}, err
	}
	cred.ID = newCredentialID()
	cred.CreatedAt = time.Now().UTC()
	cred.LastUsedAt = nil

	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[cred.ID] = cred
	return cred, nil
}

func (s *MemoryStore) GetCredential(_ context.Context, id string) (VendorCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.credentials[id]
	if !ok {
		return VendorCredential{}, ErrCredentialNotFound
	}
	return cred, nil
}

func (s *MemoryStore) CredentialForProvider(_ context.Context, providerID string) (VendorCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var newest VendorCredential
	found := false
	for _, cred := range s.credentials {
		if cred.Provider != providerID {
			continue
		}
		if !found || cred.CreatedAt.After(newest.CreatedAt) {
			newest = cred
			found = true
		}
	}
	if !found {
		return VendorCredential{}, ErrCredentialNotFound
	}
	return newest, nil
}

func (s *MemoryStore) ListCredentials(_ context.Context) ([]VendorCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]VendorCredential, 0, len(s.credentials))
	for _, cred := range s.credentials {
		out = append(out, cred)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) DeleteCredential(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.credentials[id]; !ok {
		return ErrCredentialNotFound
	}
	delete(s.credentials, id)
	return nil
}

func (s *MemoryStore) TouchCredential(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.credentials[id]
	if !ok {
		return ErrCredentialNotFound
	}
	now := time.Now().UTC()
	cred.LastUsedAt = &now
	s.credentials[id] = cred
	return nil
}

func (s *MemoryStore) IssueToken(_ context.Context, providerID, project string, ttl time.Duration) (RequestToken, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := time.Now().UTC()
	token := RequestToken{
		ID:        newCredentialID(),
		Token:     newTokenValue(),
		Provider:  providerID,
		Project:   project,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpiredLocked(now)
	s.tokensByID[token.ID] = token
	s.tokenIDs[token.Token] = token.ID
	return token, nil
}

func (s *MemoryStore) ValidateToken(_ context.Context, token string) (RequestToken, error) {
	s.mu.RLock()
	id, ok := s.tokenIDs[token]
	var rec RequestToken
	if ok {
		rec = s.tokensByID[id]
	}
	s.mu.RUnlock()

	if !ok {
		return RequestToken{}, ErrTokenInvalid
	}
	if rec.Expired(time.Now().UTC()) {
		return RequestToken{}, ErrTokenExpired
	}
	return rec, nil
}

func (s *MemoryStore) RevokeToken(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tokensByID[id]
	if !ok {
		return ErrTokenInvalid
	}
	delete(s.tokenIDs, rec.Token)
	delete(s.tokensByID, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// purgeExpiredLocked drops tokens already past expiry so the maps do not
// grow without bound. Caller holds the write lock.
func (s *MemoryStore) purgeExpiredLocked(now time.Time) {
	for id, rec := range s.tokensByID {
		if rec.Expired(now) {
			delete(s.tokenIDs, rec.Token)
			delete(s.tokensByID, id)
		}
	}
}
