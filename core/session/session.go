package session

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

type State int

const bearerScheme = "Bearer"

const (
	Anonymous State = iota
	Authenticated
)

func (st State) String() string {
	if st == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// Snapshot is a point-in-time view of the Session.
type Snapshot struct {
	State State   `json:"-"`
	Token string  `json:"-"`
	User  Subject `json:"user"`
}

func (snap Snapshot) Authenticated() bool {
	return snap.State == Authenticated
}

// Role returns the role backing the snapshot; empty when Anonymous.
func (snap Snapshot) Role() string {
	return snap.User.Role
}

// Session is the process-wide auth state derived from a TokenStore and a Decoder.
// It holds either nothing (Anonymous) or a persisted, decodable token (Authenticated).
// The role is always recomputed from the token, never stored on its own.
type Session struct {
	mu        sync.Mutex
	store     TokenStore
	decoder   Decoder
	token     string
	claims    Claims
	listeners map[int]func(Snapshot)
	nextID    int
}

func New(store TokenStore, decoder Decoder) *Session {
	return &Session{
		store:     store,
		decoder:   decoder,
		listeners: make(map[int]func(Snapshot)),
	}
}

// Boot restores the session from the store. A stored token that cannot be read or decoded
// is cleared and the session stays Anonymous.
func (s *Session) Boot(ctx context.Context) error {
	s.mu.Lock()
	raw, err := s.store.Get(ctx)
	if err != nil {
		if errors.Cause(err) == ErrNoToken {
			s.mu.Unlock()
			return nil
		}
		rErr := s.resetLocked(ctx)
		s.mu.Unlock()
		if rErr != nil {
			return errors.Wrapf(rErr, "clearing unreadable token (%v)", err)
		}
		return nil
	}
	token := NormalizeToken(raw)
	claims, err := s.decoder.Decode(token)
	if err != nil {
		err = s.resetLocked(ctx)
		s.mu.Unlock()
		return errors.Wrap(err, "clearing undecodable token")
	}
	s.setLocked(token, claims)
	snap, fns := s.snapshotLocked(), s.listenersLocked()
	s.mu.Unlock()

	notify(fns, snap)
	return nil
}

// SetToken replaces the session token. An empty token logs out; a token that fails to decode
// also logs out (fail closed) and is never persisted.
func (s *Session) SetToken(ctx context.Context, token string) error {
	token = NormalizeToken(token)
	if token == "" {
		return s.Logout(ctx)
	}

	s.mu.Lock()
	claims, err := s.decoder.Decode(token)
	if err != nil {
		changed := s.token != ""
		if rErr := s.resetLocked(ctx); rErr != nil {
			err = errors.Wrap(rErr, err.Error())
		}
		snap, fns := s.snapshotLocked(), s.listenersLocked()
		s.mu.Unlock()

		if changed {
			notify(fns, snap)
		}
		return err
	}
	if err = s.store.Set(ctx, token); err != nil {
		_ = s.resetLocked(ctx)
		snap, fns := s.snapshotLocked(), s.listenersLocked()
		s.mu.Unlock()

		notify(fns, snap)
		return errors.Wrap(err, "persisting token")
	}
	s.setLocked(token, claims)
	snap, fns := s.snapshotLocked(), s.listenersLocked()
	s.mu.Unlock()

	notify(fns, snap)
	return nil
}

// Logout clears the store and moves to Anonymous. Calling it repeatedly is harmless.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	changed := s.token != ""
	err := s.resetLocked(ctx)
	snap, fns := s.snapshotLocked(), s.listenersLocked()
	s.mu.Unlock()

	if changed {
		notify(fns, snap)
	}
	return errors.Wrap(err, "clearing token")
}

// Current returns the session snapshot. The held token is decoded again so that an expired
// token demotes the session as soon as it is looked at.
func (s *Session) Current() Snapshot {
	s.mu.Lock()
	if s.token != "" {
		if _, err := s.decoder.Decode(s.token); err != nil {
			_ = s.resetLocked(context.Background())
			snap, fns := s.snapshotLocked(), s.listenersLocked()
			s.mu.Unlock()

			notify(fns, snap)
			return snap
		}
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	return snap
}

// Token returns the bearer token of an authenticated session.
func (s *Session) Token() (string, bool) {
	snap := s.Current()
	return snap.Token, snap.Authenticated()
}

// Subscribe registers fn to be called after every session change. The returned func unsubscribes.
func (s *Session) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// NormalizeToken trims a raw token and strips a leading "Bearer" auth scheme.
func NormalizeToken(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) >= len(bearerScheme) && strings.EqualFold(raw[:len(bearerScheme)], bearerScheme) {
		if rest := raw[len(bearerScheme):]; rest == "" || rest[0] == ' ' || rest[0] == '\t' {
			raw = strings.TrimSpace(rest)
		}
	}
	return raw
}

func (s *Session) setLocked(token string, claims Claims) {
	s.token = token
	s.claims = claims
}

func (s *Session) resetLocked(ctx context.Context) error {
	s.token = ""
	s.claims = Claims{}
	return s.store.Clear(ctx)
}

func (s *Session) snapshotLocked() Snapshot {
	if s.token == "" {
		return Snapshot{State: Anonymous}
	}
	return Snapshot{State: Authenticated, Token: s.token, User: s.claims.User}
}

func (s *Session) listenersLocked() []func(Snapshot) {
	fns := make([]func(Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	return fns
}

func notify(fns []func(Snapshot), snap Snapshot) {
	for _, fn := range fns {
		fn(snap)
	}
}
