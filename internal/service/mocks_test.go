package service

import (
	"context"
	"sync"
	"time"

	"specflow/internal/domain"
	"specflow/internal/email"
	"specflow/internal/oauth"
	"specflow/internal/payment"
	"specflow/internal/repository"
)

type mockUserRepo struct {
	mu           sync.Mutex
	usersByID    map[string]domain.User
	usersByEmail map[string]string
	createCalls  int
	// hideOnLookup simula la carrera: la lectura no ve el registro pero el indice unico si.
	hideOnLookup bool
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByID:    make(map[string]domain.User),
		usersByEmail: make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if _, ok := m.usersByEmail[user.Email]; ok {
		return repository.ErrDuplicate
	}
	m.usersByID[user.ID] = user
	m.usersByEmail[user.Email] = user.ID
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, repository.ErrNotFound
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	id, ok := m.usersByEmail[email]
	hide := m.hideOnLookup
	m.mu.Unlock()
	if !ok || hide {
		return domain.User{}, repository.ErrNotFound
	}
	return m.GetByID(ctx, id)
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = passwordHash
	m.usersByID[id] = user
	return nil
}

func (m *mockUserRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.usersByID)
}

type mockSubscriberRepo struct {
	mu   sync.Mutex
	subs map[string]domain.Subscriber
}

func newMockSubscriberRepo() *mockSubscriberRepo {
	return &mockSubscriberRepo{subs: map[string]domain.Subscriber{}}
}

func (m *mockSubscriberRepo) Create(_ context.Context, sub domain.Subscriber) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[sub.Email]; ok {
		return repository.ErrDuplicate
	}
	m.subs[sub.Email] = sub
	return nil
}

func (m *mockSubscriberRepo) GetByEmail(_ context.Context, email string) (domain.Subscriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[email]
	if !ok {
		return domain.Subscriber{}, repository.ErrNotFound
	}
	return sub, nil
}

type dispatched struct {
	kind string
	msg  email.Message
}

type mockMailer struct {
	mu   sync.Mutex
	sent []dispatched
}

func (m *mockMailer) Dispatch(kind string, msg email.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, dispatched{kind: kind, msg: msg})
}

func (m *mockMailer) count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, d := range m.sent {
		if d.kind == kind {
			n++
		}
	}
	return n
}

type mockGoogle struct {
	profile oauth.Profile
	err     error
}

func (m *mockGoogle) FetchProfile(_ context.Context, _ string) (oauth.Profile, error) {
	return m.profile, m.err
}

type mockGateway struct {
	lastRequest payment.IntentRequest
	createErr   error
	status      string
	confirmErr  error
}

func (m *mockGateway) CreateIntent(_ context.Context, req payment.IntentRequest) (payment.Intent, error) {
	m.lastRequest = req
	if m.createErr != nil {
		return payment.Intent{}, m.createErr
	}
	return payment.Intent{ID: "pi_1", ClientSecret: "pi_1_secret_abc", Status: "requires_payment_method"}, nil
}

func (m *mockGateway) ConfirmIntent(_ context.Context, clientSecret, paymentMethod, returnURL string) (payment.Intent, error) {
	if m.confirmErr != nil {
		return payment.Intent{}, m.confirmErr
	}
	return payment.Intent{ID: "pi_1", Status: m.status}, nil
}

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
