package auth

import (
	"sync"
	"time"
)

// issuedToken records a live session for later bulk revocation.
type issuedToken struct {
	JTI       string
	ExpiresAt time.Time
}

// TokenRevocationStore manages revoked JWT tokens in memory. Tokens are
// tracked by their JTI (JWT ID claim) from issue, so a single session can
// be revoked at logout and all of a user's sessions can be revoked at
// once. Expired entries are cleaned up automatically. Thread-safe for
// concurrent access.
type TokenRevocationStore struct {
	mu      sync.RWMutex
	revoked map[string]time.Time     // JTI -> natural expiry
	issued  map[string][]issuedToken // userID -> live sessions
	done    chan struct{}
}

// NewTokenRevocationStore creates a new store and starts a background
// goroutine that cleans up expired entries every 5 minutes.
func NewTokenRevocationStore() *TokenRevocationStore {
	s := &TokenRevocationStore{
		revoked: make(map[string]time.Time),
		issued:  make(map[string][]issuedToken),
		done:    make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// TrackIssued records a freshly minted token as one of the user's live
// sessions so RevokeAllForUser can find it later.
func (s *TokenRevocationStore) TrackIssued(jti, userID string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.issued[userID] = append(s.issued[userID], issuedToken{JTI: jti, ExpiresAt: expiresAt})
}

// Revoke adds a token's JTI to the revocation list. The expiresAt time
// indicates when the token would have naturally expired; the entry is
// automatically cleaned up after that time since there is no need to
// track a revocation once the token is expired anyway.
func (s *TokenRevocationStore) Revoke(jti string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.revoked[jti] = expiresAt
}

// RevokeAllForUser revokes every tracked session of the given user and
// returns the number of tokens that were newly revoked.
func (s *TokenRevocationStore) RevokeAllForUser(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, tok := range s.issued[userID] {
		if _, already := s.revoked[tok.JTI]; already {
			continue
		}
		s.revoked[tok.JTI] = tok.ExpiresAt
		count++
	}
	delete(s.issued, userID)
	return count
}

// IsRevoked checks if a token JTI has been revoked.
func (s *TokenRevocationStore) IsRevoked(jti string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.revoked[jti]
	return ok
}

// Count returns the number of currently revoked tokens.
func (s *TokenRevocationStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.revoked)
}

// Close stops the background cleanup goroutine. It is safe to call
// multiple times but only the first call has effect.
func (s *TokenRevocationStore) Close() {
	select {
	case <-s.done:
		// already closed
	default:
		close(s.done)
	}
}

// cleanupLoop periodically removes expired entries.
func (s *TokenRevocationStore) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup removes revocation and session entries whose tokens have
// expired. Once a token is past its natural expiry there is no need to
// keep tracking it.
func (s *TokenRevocationStore) cleanup() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for jti, expiresAt := range s.revoked {
		if now.After(expiresAt) {
			delete(s.revoked, jti)
		}
	}
	for userID, tokens := range s.issued {
		live := tokens[:0]
		for _, tok := range tokens {
			if now.Before(tok.ExpiresAt) {
				live = append(live, tok)
			}
		}
		if len(live) == 0 {
			delete(s.issued, userID)
		} else {
			s.issued[userID] = live
		}
	}
}
