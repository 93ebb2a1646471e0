package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"specflow/internal/domain"
	"specflow/internal/email"
	"specflow/internal/llm"
	"specflow/internal/oauth"
	"specflow/internal/payment"
	"specflow/internal/repository"
	"specflow/internal/service"
)

type mockUserRepo struct {
	mu      sync.Mutex
	byID    map[string]domain.User
	byEmail map[string]string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{byID: map[string]domain.User{}, byEmail: map[string]string{}}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[user.Email]; ok {
		return repository.ErrDuplicate
	}
	m.byID[user.ID] = user
	m.byEmail[user.Email] = user.ID
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return domain.User{}, repository.ErrNotFound
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	m.mu.Lock()
	id, ok := m.byEmail[email]
	m.mu.Unlock()
	if !ok {
		return domain.User{}, repository.ErrNotFound
	}
	return m.GetByID(ctx, id)
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = hash
	m.byID[id] = user
	return nil
}

type mockSubscriberRepo struct {
	mu   sync.Mutex
	subs map[string]domain.Subscriber
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

type mockMailer struct {
	mu   sync.Mutex
	sent []email.Message
	kind []string
}

func (m *mockMailer) Dispatch(kind string, msg email.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kind = append(m.kind, kind)
	m.sent = append(m.sent, msg)
}

func (m *mockMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type mockGoogle struct {
	profile oauth.Profile
	err     error
}

func (m *mockGoogle) FetchProfile(context.Context, string) (oauth.Profile, error) {
	return m.profile, m.err
}

type mockGateway struct {
	last       payment.IntentRequest
	confirmErr error
}

func (m *mockGateway) CreateIntent(_ context.Context, req payment.IntentRequest) (payment.Intent, error) {
	m.last = req
	return payment.Intent{ID: "pi_1", ClientSecret: "pi_1_secret_x"}, nil
}

func (m *mockGateway) ConfirmIntent(context.Context, string, string, string) (payment.Intent, error) {
	if m.confirmErr != nil {
		return payment.Intent{}, m.confirmErr
	}
	return payment.Intent{ID: "pi_1", Status: "succeeded"}, nil
}

type testServer struct {
	router  *gin.Engine
	users   *mockUserRepo
	subs    *mockSubscriberRepo
	mailer  *mockMailer
	google  *mockGoogle
	gateway *mockGateway
	llm     *llm.MockClient
	jwt     *service.JWTService
}

func newTestServer() *testServer {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	ts := &testServer{
		users:   newMockUserRepo(),
		subs:    &mockSubscriberRepo{subs: map[string]domain.Subscriber{}},
		mailer:  &mockMailer{},
		google:  &mockGoogle{},
		gateway: &mockGateway{},
		llm:     &llm.MockClient{},
		jwt:     service.NewJWTService("secret", time.Hour, 15*time.Minute, service.NewMemoryResetTokenStore()),
	}

	userSvc := service.NewUserService(logger, ts.users, ts.jwt, ts.google, ts.mailer, nil, "http://app.test")
	paymentSvc := service.NewPaymentService(logger, ts.gateway, nil, "")
	newsletterSvc := service.NewNewsletterService(logger, ts.subs, ts.mailer)
	contactSvc := service.NewContactService(logger, ts.mailer, nil, "ops@specflow.dev")
	specSvc := service.NewSpecService(logger, ts.llm, nil)

	ts.router = NewRouter(logger,
		RouterConfig{AllowedOrigins: []string{"http://app.test"}, Limiter: NewIPRateLimiter(600, 100)},
		ts.jwt,
		NewAuthHandler(logger, userSvc),
		NewPaymentHandler(logger, paymentSvc),
		NewSiteHandler(logger, newsletterSvc, contactSvc),
		NewGenerateHandler(logger, specSvc),
	)
	return ts
}

func performRequest(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	return performRequestWithHeaders(r, method, path, body, nil)
}

func performRequestWithHeaders(r http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(rec *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return out
}
