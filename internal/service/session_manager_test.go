package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"folio/internal/backend"
	"folio/internal/backend/memstore"
	"folio/internal/domain"
)

type sessionFixture struct {
	factory  SessionFactory
	accounts *countingAccounts
	store    *memstore.Accounts
	docs     *memstore.Documents
	projects *ProjectService
}

func newSessionFixture(t *testing.T, limiter LoginLimiter) *sessionFixture {
	t.Helper()
	store := memstore.NewAccounts(time.Hour)
	accounts := &countingAccounts{Accounts: store}
	docs := memstore.NewDocuments()
	writer := NewSchemaWriter(zap.NewNop(), docs)
	profiles := NewProfileService(zap.NewNop(), docs, writer, "users")
	media := NewMediaService(zap.NewNop(), memstore.NewFiles("http://localhost"), 0)
	projects := NewProjectService(zap.NewNop(), docs, writer, profiles, media, "projects")
	return &sessionFixture{
		factory: SessionFactory{
			Logger:   zap.NewNop(),
			Accounts: accounts,
			Profiles: profiles,
			Projects: projects,
			Limiter:  limiter,
		},
		accounts: accounts,
		store:    store,
		docs:     docs,
		projects: projects,
	}
}

func (f *sessionFixture) seed(t *testing.T, id, email, password, name string) {
	t.Helper()
	if _, err := f.store.Create(context.Background(), id, email, password, name); err != nil {
		t.Fatalf("seed account: %v", err)
	}
}

func TestSessionManagerRegister(t *testing.T) {
	f := newSessionFixture(t, nil)
	m := f.factory.New()

	user, err := m.Register(context.Background(), RegisterInput{Name: " Ada ", Email: "Ada@Example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if m.State() != SessionAuthenticated {
		t.Fatalf("expected authenticated, got %s", m.State())
	}
	if user.Name != "Ada" || user.Email != "ada@example.com" {
		t.Fatalf("unexpected profile: %+v", user)
	}
	if user.ID != m.Identity().ID || user.UserID != m.Identity().ID {
		t.Fatalf("expected profile id to match identity id")
	}
	if _, err := f.docs.Get(context.Background(), "users", user.ID); err != nil {
		t.Fatalf("expected profile document persisted: %v", err)
	}

	other := f.factory.New()
	_, err = other.Register(context.Background(), RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "password123"})
	if !errors.Is(err, ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
	if other.State() != SessionAnonymous {
		t.Fatalf("expected anonymous after failed register")
	}
}

func TestSessionManagerRegisterValidation(t *testing.T) {
	f := newSessionFixture(t, nil)
	m := f.factory.New()

	_, err := m.Register(context.Background(), RegisterInput{Name: "Ada", Email: "not-an-email", Password: "password123"})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "email" {
		t.Fatalf("expected email validation error, got %v", err)
	}
	if len(f.accounts.Calls()) != 0 {
		t.Fatalf("expected no backend calls, got %v", f.accounts.Calls())
	}
}

func TestSessionManagerLoginSameIdentityIsNoop(t *testing.T) {
	f := newSessionFixture(t, nil)
	f.seed(t, "a", "a@example.com", "password123", "A")
	m := f.factory.New()
	ctx := context.Background()

	first, err := m.Login(ctx, "a@example.com", "password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	f.accounts.Reset()

	again, err := m.Login(ctx, "  A@EXAMPLE.COM ", "password123")
	if err != nil {
		t.Fatalf("second login failed: %v", err)
	}
	if calls := f.accounts.Calls(); len(calls) != 0 {
		t.Fatalf("expected no backend calls, got %v", calls)
	}
	if again.ID != first.ID {
		t.Fatalf("expected cached profile, got %+v", again)
	}
	if f.store.ActiveSessions("a") != 1 {
		t.Fatalf("expected a single active session")
	}
}

func TestSessionManagerLoginOtherIdentityInvalidatesFirst(t *testing.T) {
	f := newSessionFixture(t, nil)
	f.seed(t, "a", "a@example.com", "password123", "A")
	f.seed(t, "b", "b@example.com", "password456", "B")
	m := f.factory.New()
	ctx := context.Background()

	if _, err := m.Login(ctx, "b@example.com", "password456"); err != nil {
		t.Fatalf("login b failed: %v", err)
	}
	// Una segunda sesion de B en otro dispositivo tambien debe caer.
	if _, err := f.store.CreateSession(ctx, "b@example.com", "password456"); err != nil {
		t.Fatalf("extra session: %v", err)
	}
	f.accounts.Reset()

	user, err := m.Login(ctx, "a@example.com", "password123")
	if err != nil {
		t.Fatalf("login a failed: %v", err)
	}
	if user.ID != "a" {
		t.Fatalf("expected profile of a, got %s", user.ID)
	}

	calls := f.accounts.Calls()
	want := []string{"delete_sessions", "create_session", "current"}
	if strings.Join(calls, ",") != strings.Join(want, ",") {
		t.Fatalf("expected calls %v, got %v", want, calls)
	}
	if n := f.store.ActiveSessions("b"); n != 0 {
		t.Fatalf("expected no sessions left for b, got %d", n)
	}
	if n := f.store.ActiveSessions("a"); n != 1 {
		t.Fatalf("expected one session for a, got %d", n)
	}
}

func TestSessionManagerFailedSwitchLeavesAnonymous(t *testing.T) {
	f := newSessionFixture(t, nil)
	f.seed(t, "a", "a@example.com", "password123", "A")
	f.seed(t, "b", "b@example.com", "password456", "B")
	m := f.factory.New()
	ctx := context.Background()

	if _, err := m.Login(ctx, "b@example.com", "password456"); err != nil {
		t.Fatalf("login b failed: %v", err)
	}
	_, err := m.Login(ctx, "a@example.com", "wrong-password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if m.State() != SessionAnonymous || m.Token() != "" {
		t.Fatalf("expected anonymous after failed switch")
	}
	if _, ok := m.Profile(); ok {
		t.Fatalf("expected no profile in memory")
	}
	if n := f.store.ActiveSessions("b"); n != 0 {
		t.Fatalf("expected previous identity signed out, got %d sessions", n)
	}
}

func TestSessionManagerRateLimit(t *testing.T) {
	f := newSessionFixture(t, NewLoginLimiter(time.Minute, 2))
	f.seed(t, "a", "a@example.com", "password123", "A")
	m := f.factory.New()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := m.Login(ctx, "a@example.com", "nope-nope"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}
	f.accounts.Reset()
	if _, err := m.Login(ctx, "a@example.com", "password123"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if len(f.accounts.Calls()) != 0 {
		t.Fatalf("expected limiter to short-circuit backend calls")
	}
}

func TestSessionManagerSuccessfulLoginClearsFailures(t *testing.T) {
	f := newSessionFixture(t, NewLoginLimiter(time.Minute, 2))
	f.seed(t, "a", "a@example.com", "password123", "A")
	ctx := context.Background()

	if _, err := f.factory.New().Login(ctx, "a@example.com", "nope-nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := f.factory.New().Login(ctx, "a@example.com", "password123"); err != nil {
		t.Fatalf("login: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := f.factory.New().Login(ctx, "a@example.com", "nope-nope"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d after success: expected ErrInvalidCredentials, got %v", i, err)
		}
	}
	if _, err := f.factory.New().Login(ctx, "a@example.com", "password123"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestSessionManagerLogout(t *testing.T) {
	f := newSessionFixture(t, nil)
	f.seed(t, "a", "a@example.com", "password123", "A")
	m := f.factory.New()
	ctx := context.Background()

	if _, err := m.Login(ctx, "a@example.com", "password123"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := f.projects.List(ctx, ListScope{OwnerID: "a"}); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if _, ok := f.projects.Cached(ListScope{OwnerID: "a"}); !ok {
		t.Fatalf("expected cached listing")
	}

	if err := m.Logout(ctx); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if m.State() != SessionAnonymous {
		t.Fatalf("expected anonymous after logout")
	}
	if f.store.ActiveSessions("a") != 0 {
		t.Fatalf("expected session deleted")
	}
	if _, ok := f.projects.Cached(ListScope{OwnerID: "a"}); ok {
		t.Fatalf("expected owner listing discarded on logout")
	}
	if err := m.Logout(ctx); err != nil {
		t.Fatalf("logout while anonymous should be a no-op, got %v", err)
	}
}

func TestSessionManagerLogoutAll(t *testing.T) {
	f := newSessionFixture(t, nil)
	f.seed(t, "a", "a@example.com", "password123", "A")
	ctx := context.Background()
	if _, err := f.store.CreateSession(ctx, "a@example.com", "password123"); err != nil {
		t.Fatalf("extra session: %v", err)
	}
	m := f.factory.New()
	if _, err := m.Login(ctx, "a@example.com", "password123"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if err := m.LogoutAll(ctx); err != nil {
		t.Fatalf("logout all failed: %v", err)
	}
	if n := f.store.ActiveSessions("a"); n != 0 {
		t.Fatalf("expected all sessions deleted, got %d", n)
	}
}

func TestSessionManagerProfileFailureAbandonsSession(t *testing.T) {
	f := newSessionFixture(t, nil)
	f.docs.DefineCollection("users", domain.AttrName, domain.AttrUserID)
	f.seed(t, "a", "a@example.com", "password123", "A")
	m := f.factory.New()

	_, err := m.Login(context.Background(), "a@example.com", "password123")
	if !errors.Is(err, ErrMandatoryAttribute) {
		t.Fatalf("expected ErrMandatoryAttribute, got %v", err)
	}
	if m.State() != SessionAnonymous {
		t.Fatalf("expected anonymous, got %s", m.State())
	}
	if n := f.store.ActiveSessions("a"); n != 0 {
		t.Fatalf("expected the new session deleted, got %d", n)
	}
}

func TestSessionManagerEnsureSurvivesSchemaDrift(t *testing.T) {
	f := newSessionFixture(t, nil)
	f.docs.DefineCollection("users", domain.AttrName, domain.AttrEmail, domain.AttrUserID)
	f.seed(t, "a", "a@example.com", "password123", "")
	m := f.factory.New()

	user, err := m.Login(context.Background(), "a@example.com", "password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.Name != "a" {
		t.Fatalf("expected name derived from email, got %q", user.Name)
	}
	if user.Skills == nil || user.SocialLinks == nil {
		t.Fatalf("expected empty collections, not nil")
	}
}

func TestSessionManagerResume(t *testing.T) {
	f := newSessionFixture(t, nil)
	f.seed(t, "a", "a@example.com", "password123", "A")
	ctx := context.Background()
	session, err := f.store.CreateSession(ctx, "a@example.com", "password123")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	m := f.factory.New()
	user, err := m.Resume(ctx, session.Token)
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if user.ID != "a" || m.Token() != session.Token {
		t.Fatalf("unexpected resume result: %+v", user)
	}
	f.accounts.Reset()
	if _, err := m.Resume(ctx, session.Token); err != nil {
		t.Fatalf("second resume failed: %v", err)
	}
	if len(f.accounts.Calls()) != 0 {
		t.Fatalf("expected cached resume, got %v", f.accounts.Calls())
	}

	bad := f.factory.New()
	if _, err := bad.Resume(ctx, "missing"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := bad.Resume(ctx, " "); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for blank token, got %v", err)
	}
	// Un resume con token ajeno no borra la sesion del dueno.
	if f.store.ActiveSessions("a") != 1 {
		t.Fatalf("expected session kept")
	}
}

func TestSessionManagerUpdateProfilePropagatesName(t *testing.T) {
	f := newSessionFixture(t, nil)
	f.seed(t, "a", "a@example.com", "password123", "A")
	m := f.factory.New()
	ctx := context.Background()
	if _, err := m.Login(ctx, "a@example.com", "password123"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	name := "Ada Lovelace"
	bio := "first programmer"
	user, err := m.UpdateProfile(ctx, domain.ProfilePatch{Name: &name, Bio: &bio})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if user.Name != name || user.Bio != bio {
		t.Fatalf("unexpected profile: %+v", user)
	}
	if m.Identity().Name != name {
		t.Fatalf("expected identity name updated, got %q", m.Identity().Name)
	}
	cur, _ := m.Profile()
	if cur.Bio != bio {
		t.Fatalf("expected in-memory profile refreshed")
	}

	anon := f.factory.New()
	if _, err := anon.UpdateProfile(ctx, domain.ProfilePatch{Bio: &bio}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSessionManagerNotConfigured(t *testing.T) {
	m := NewSessionManager(nil, nil, nil, nil, nil)
	if _, err := m.Login(context.Background(), "a@example.com", "x"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if !IsAuthError(ErrUnauthorized) || IsAuthError(ErrNotFound) {
		t.Fatalf("IsAuthError misclassified")
	}
	var _ backend.Accounts = &countingAccounts{}
}
