package service

import (
	"crypto/subtle"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
)

// SessionState is the login state of a user.
type SessionState int

const (
	LoggedOut SessionState = iota
	AwaitingSecondFactor
	LoggedIn
)

func (s SessionState) String() string {
	switch s {
	case LoggedOut:
		return "logged_out"
	case AwaitingSecondFactor:
		return "awaiting_second_factor"
	case LoggedIn:
		return "logged_in"
	default:
		return "unknown"
	}
}

// userSessions holds the completed logins of one user and at most one
// pending challenge. A challenge never disturbs existing logins.
type userSessions struct {
	live     map[string]struct{}
	code     string // non-empty while a challenge is pending
	issuedAt time.Time
}

func (u *userSessions) state() SessionState {
	switch {
	case u.code != "":
		return AwaitingSecondFactor
	case len(u.live) > 0:
		return LoggedIn
	default:
		return LoggedOut
	}
}

type verifyResult int

const (
	verifyOK verifyResult = iota
	verifyNoChallenge
	verifyExpired
	verifyMismatch
)

// sessionTable holds per-user session state. Absent entries are LoggedOut.
// Every completed login gets its own session id; tokens carry it.
type sessionTable struct {
	mu sync.Mutex
	m  map[string]*userSessions
}

func newSessionTable() *sessionTable {
	return &sessionTable{m: make(map[string]*userSessions)}
}

func (t *sessionTable) entry(username string) *userSessions {
	u, ok := t.m[username]
	if !ok {
		u = &userSessions{live: make(map[string]struct{})}
		t.m[username] = u
	}
	return u
}

// dropIfEmpty must be called with t.mu held.
func (t *sessionTable) dropIfEmpty(username string) {
	if u, ok := t.m[username]; ok && u.state() == LoggedOut {
		delete(t.m, username)
	}
}

func (t *sessionTable) state(username string) SessionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if u, ok := t.m[username]; ok {
		return u.state()
	}
	return LoggedOut
}

func (t *sessionTable) loggedIn(username string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, ok := t.m[username]
	return ok && len(u.live) > 0
}

func (t *sessionTable) active(username, sid string) bool {
	if sid == "" {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	u, ok := t.m[username]
	if !ok {
		return false
	}
	_, live := u.live[sid]
	return live
}

func newSessionID() (string, error) {
	sid, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return sid.String(), nil
}

// open records sid as a live session of username.
func (t *sessionTable) open(username, sid string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entry(username).live[sid] = struct{}{}
}

func (t *sessionTable) setPending(username, code string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	u := t.entry(username)
	u.code = code
	u.issuedAt = now
}

func (t *sessionTable) dropPending(username string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if u, ok := t.m[username]; ok {
		u.code = ""
		t.dropIfEmpty(username)
	}
}

// clear ends every session of username and drops any pending challenge.
func (t *sessionTable) clear(username string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.m, username)
}

// verify checks code against the pending challenge. On a match the challenge
// is consumed and sid becomes a live session. A mismatch leaves the challenge in place; an expired code drops it.
// ttl <= 0 disables expiry.
func (t *sessionTable) verify(username, code, sid string, now time.Time, ttl time.Duration) verifyResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	u, ok := t.m[username]
	if !ok || u.code == "" {
		return verifyNoChallenge
	}
	if ttl > 0 && now.Sub(u.issuedAt) > ttl {
		u.code = ""
		t.dropIfEmpty(username)
		return verifyExpired
	}
	if subtle.ConstantTimeCompare([]byte(u.code), []byte(code)) != 1 {
		return verifyMismatch
	}
	u.code = ""
	u.live[sid] = struct{}{}
	return verifyOK
}
