package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"specflow/internal/domain"
	"specflow/internal/email"
	"specflow/internal/oauth"
)

type userFixture struct {
	repo   *mockUserRepo
	mailer *mockMailer
	google *mockGoogle
	jwt    *JWTService
	clock  *fixedClock
	svc    *UserService
}

func newUserFixture(limiter RateLimiter) *userFixture {
	f := &userFixture{
		repo:   newMockUserRepo(),
		mailer: &mockMailer{},
		google: &mockGoogle{},
		clock:  &fixedClock{now: time.Now().UTC()},
	}
	f.jwt = newTestJWT(f.clock)
	f.svc = NewUserService(zap.NewNop(), f.repo, f.jwt, f.google, f.mailer, limiter, "http://app.test/")
	return f
}

func TestSignup_CreatesUserAndToken(t *testing.T) {
	f := newUserFixture(nil)

	res, err := f.svc.Signup(context.Background(), SignupInput{Username: "ana", Email: " Ana@Example.com ", Password: "s3cret"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if res.Token == "" || res.User.Email != "ana@example.com" || res.User.Name != "ana" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if bcrypt.CompareHashAndPassword([]byte(res.User.PasswordHash), []byte("s3cret")) != nil {
		t.Fatalf("expected bcrypt hash of password")
	}
	if cost, _ := bcrypt.Cost([]byte(res.User.PasswordHash)); cost != 12 {
		t.Fatalf("expected bcrypt cost 12, got %d", cost)
	}
	claims, err := f.jwt.ParseSession(res.Token)
	if err != nil || claims.UserID != res.User.ID {
		t.Fatalf("expected session token for user, got %+v %v", claims, err)
	}
}

func TestSignup_DuplicateEmailIsConflict(t *testing.T) {
	f := newUserFixture(nil)
	ctx := context.Background()
	if _, err := f.svc.Signup(ctx, SignupInput{Email: "ana@example.com", Password: "a"}); err != nil {
		t.Fatalf("first signup: %v", err)
	}

	_, err := f.svc.Signup(ctx, SignupInput{Email: "ana@example.com", Password: "b"})
	if !errors.Is(err, ErrEmailTaken) || !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if f.repo.count() != 1 {
		t.Fatalf("expected a single record, got %d", f.repo.count())
	}
}

func TestSignup_StoreRejectsConcurrentDuplicate(t *testing.T) {
	f := newUserFixture(nil)
	ctx := context.Background()
	_, _ = f.svc.Signup(ctx, SignupInput{Email: "ana@example.com", Password: "a"})

	f.repo.hideOnLookup = true
	_, err := f.svc.Signup(ctx, SignupInput{Email: "ana@example.com", Password: "b"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected unique index violation to surface as conflict, got %v", err)
	}
	if f.repo.count() != 1 {
		t.Fatalf("expected a single record, got %d", f.repo.count())
	}
}

func TestSignup_Validation(t *testing.T) {
	f := newUserFixture(nil)
	_, err := f.svc.Signup(context.Background(), SignupInput{})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Fields["email"] == "" || verr.Fields["password"] == "" {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.repo.createCalls != 0 {
		t.Fatalf("expected no store writes")
	}
}

func TestLogin(t *testing.T) {
	f := newUserFixture(nil)
	ctx := context.Background()
	_, _ = f.svc.Signup(ctx, SignupInput{Email: "ana@example.com", Password: "right"})
	_ = f.repo.Create(ctx, domain.User{ID: "g1", Email: "google@example.com"})

	cases := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"unknown email", "nobody@example.com", "x", ErrUserNotFound},
		{"federated only", "google@example.com", "anything", ErrUseGoogleLogin},
		{"wrong password", "ana@example.com", "wrong", ErrInvalidCredentials},
		{"success", "ANA@example.com", "right", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := f.svc.Login(ctx, tc.email, tc.password)
			if tc.want == nil {
				if err != nil || res.Token == "" {
					t.Fatalf("expected success, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if tc.want == ErrUseGoogleLogin && errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("federated account must not report invalid credentials")
			}
		})
	}
}

func TestGoogleLogin_CreatesThenReusesUser(t *testing.T) {
	f := newUserFixture(nil)
	ctx := context.Background()
	f.google.profile = oauth.Profile{Email: "Ana@Example.com", Name: "Ana", Picture: "https://img/ana.png"}

	first, err := f.svc.GoogleLogin(ctx, "google-access")
	if err != nil {
		t.Fatalf("first google login: %v", err)
	}
	if first.User.HasPassword() || first.User.ProfilePicture != "https://img/ana.png" {
		t.Fatalf("unexpected created user: %+v", first.User)
	}
	if first.Token == "google-access" {
		t.Fatalf("provider token must never be the session credential")
	}

	second, err := f.svc.GoogleLogin(ctx, "google-access-2")
	if err != nil {
		t.Fatalf("second google login: %v", err)
	}
	if second.User.ID != first.User.ID || f.repo.count() != 1 {
		t.Fatalf("expected the same user to be reused")
	}
}

func TestGoogleLogin_InvalidToken(t *testing.T) {
	f := newUserFixture(nil)
	f.google.profile = oauth.Profile{Name: "No Email"}
	if _, err := f.svc.GoogleLogin(context.Background(), "tok"); !errors.Is(err, ErrInvalidGoogleToken) {
		t.Fatalf("expected invalid google token, got %v", err)
	}

	f.google.err = domain.ErrAuth
	if _, err := f.svc.GoogleLogin(context.Background(), "tok"); !errors.Is(err, ErrInvalidGoogleToken) {
		t.Fatalf("expected invalid google token, got %v", err)
	}
}

func TestForgotAndResetPassword(t *testing.T) {
	f := newUserFixture(nil)
	ctx := context.Background()
	res, _ := f.svc.Signup(ctx, SignupInput{Email: "ana@example.com", Password: "old"})

	if err := f.svc.ForgotPassword(ctx, "nobody@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected user not found, got %v", err)
	}
	if err := f.svc.ForgotPassword(ctx, "ana@example.com"); err != nil {
		t.Fatalf("forgot: %v", err)
	}
	if f.mailer.count(email.KindPasswordReset) != 1 {
		t.Fatalf("expected one reset mail")
	}
	msg := f.mailer.sent[0].msg
	const prefix = `href="http://app.test/reset-password/`
	start := strings.Index(msg.HTML, prefix)
	if msg.To != "ana@example.com" || start < 0 {
		t.Fatalf("unexpected reset mail: %+v", msg)
	}
	rest := msg.HTML[start+len(prefix):]
	token := rest[:strings.Index(rest, `"`)]

	if err := f.svc.ResetPassword(ctx, token, "new"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := f.svc.Login(ctx, "ana@example.com", "new"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if err := f.svc.ResetPassword(ctx, token, "again"); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("expected reused token to fail, got %v", err)
	}
	if _, err := f.svc.Me(ctx, res.User.ID); err != nil {
		t.Fatalf("me: %v", err)
	}
}

func TestResetPassword_ExpiredTokenRejected(t *testing.T) {
	f := newUserFixture(nil)
	ctx := context.Background()
	res, _ := f.svc.Signup(ctx, SignupInput{Email: "ana@example.com", Password: "old"})

	token, err := f.jwt.IssueResetToken(ctx, res.User.ID)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	f.clock.Advance(16 * time.Minute)

	err = f.svc.ResetPassword(ctx, token, "new")
	if !errors.Is(err, ErrInvalidResetToken) || !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("expected invalid reset token, got %v", err)
	}
	if _, err := f.svc.Login(ctx, "ana@example.com", "old"); err != nil {
		t.Fatalf("expected old password to remain, got %v", err)
	}
}

func TestResetPassword_TamperedTokenRejected(t *testing.T) {
	f := newUserFixture(nil)
	if err := f.svc.ResetPassword(context.Background(), "not-a-jwt", "new"); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("expected invalid reset token, got %v", err)
	}
}

func TestSignup_RejectsInvalidEmail(t *testing.T) {
	f := newUserFixture(nil)
	_, err := f.svc.Signup(context.Background(), SignupInput{Email: "not-an-email", Password: "s3cret"})
	var verr *domain.ValidationError
	if !errors.As(err, &verr) || verr.Fields["email"] != "Invalid email address" {
		t.Fatalf("expected invalid email, got %v", err)
	}
	if f.repo.createCalls != 0 {
		t.Fatalf("expected no store writes")
	}
}

func TestForgotPassword_RejectsInvalidEmail(t *testing.T) {
	f := newUserFixture(nil)
	if err := f.svc.ForgotPassword(context.Background(), "not-an-email"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if f.mailer.count(email.KindPasswordReset) != 0 {
		t.Fatalf("expected no mail")
	}
}

func TestForgotPassword_RateLimited(t *testing.T) {
	f := newUserFixture(denyAll{})
	if err := f.svc.ForgotPassword(context.Background(), "ana@example.com"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected rate limited, got %v", err)
	}
	if f.mailer.count(email.KindPasswordReset) != 0 {
		t.Fatalf("expected no mail")
	}
}
