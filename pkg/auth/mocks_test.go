package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/auth/ldapclient"
	"github.com/JyotirmoyBhowmik/PowerShellEndPointv2-sub001/pkg/platform/models"
)

// fakeUserStore is an in-memory UserStore for provider and reconciler tests.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User

	// Injectable failures.
	getErr    error
	createErr error
	updateErr error

	// missOnce makes the next lookup report not-found even when the user
	// exists, simulating a lost insert race.
	missOnce bool

	failedLoginCalls int
	touchCalls       int
	touchErr         error
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]*models.User)}
	for _, u := range users {
		s.users[u.Username] = u
	}
	return s
}

func (s *fakeUserStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.missOnce {
		s.missOnce = false
		return nil, models.ErrUserNotFound
	}
	u, ok := s.users[username]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *fakeUserStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if _, ok := s.users[user.Username]; ok {
		return models.ErrDuplicateUser
	}
	user.ID = int64(len(s.users) + 1)
	copied := *user
	s.users[user.Username] = &copied
	return nil
}

func (s *fakeUserStore) UpdateExternalIdentity(ctx context.Context, username, provider, externalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	u, ok := s.users[username]
	if !ok {
		return models.ErrUserNotFound
	}
	u.ExternalID = externalID
	return nil
}

func (s *fakeUserStore) IncrementFailedLogins(ctx context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failedLoginCalls++
	if u, ok := s.users[username]; ok {
		u.FailedLogins++
	}
	return nil
}

func (s *fakeUserStore) TouchLastLogin(ctx context.Context, username string, timestamp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchCalls++
	if s.touchErr != nil {
		return s.touchErr
	}
	if u, ok := s.users[username]; ok {
		ts := timestamp
		u.LastLogin = &ts
	}
	return nil
}

// fakeProvider is a scriptable Provider for orchestrator tests.
type fakeProvider struct {
	name          string
	passwordBased bool
	result        *Result
	err           error
	calls         int
}

func (p *fakeProvider) Name() string        { return p.name }
func (p *fakeProvider) PasswordBased() bool { return p.passwordBased }

func (p *fakeProvider) Verify(ctx context.Context, username, secret string) (*Result, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	if p.result != nil {
		return p.result, nil
	}
	return &Result{Username: username, Provider: p.name}, nil
}

// fakeBinder is a scriptable Binder/DNBinder for the directory and LDAP
// provider tests.
type fakeBinder struct {
	entry *ldapclient.Entry
	err   error

	lastUPN    string
	lastDN     string
	lastSecret string
	lastBaseDN string
}

func (b *fakeBinder) BindUPN(ctx context.Context, upn, secret, baseDN string) (*ldapclient.Entry, error) {
	b.lastUPN = upn
	b.lastSecret = secret
	b.lastBaseDN = baseDN
	if b.err != nil {
		return nil, b.err
	}
	return b.entry, nil
}

func (b *fakeBinder) BindDN(ctx context.Context, dn, secret string) (*ldapclient.Entry, error) {
	b.lastDN = dn
	b.lastSecret = secret
	if b.err != nil {
		return nil, b.err
	}
	return b.entry, nil
}

// fakeSink collects audit events.
type fakeSink struct {
	mu     sync.Mutex
	events []*models.AuditEvent
	err    error
}

func (s *fakeSink) RecordAuditEvent(ctx context.Context, event *models.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func (s *fakeSink) outcomes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.Outcome
	}
	return out
}

// errBackendDown stands in for a connectivity failure.
var errBackendDown = fmt.Errorf("backend unreachable")
