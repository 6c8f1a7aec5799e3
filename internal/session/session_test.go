package session

import (
	"context"
	"testing"
	"time"

	"wolfquant/internal/backend"
	"wolfquant/internal/config"
	"wolfquant/internal/testutil"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	cfg := &config.Config{
		Env:              "test",
		JWTSecret:        "test-secret",
		JWTExpirationDur: time.Hour,
		MinPasswordLen:   8,
	}
	return NewManager(backend.New(db, cfg))
}

func TestManager_Lifecycle(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if _, ok := m.Current(); ok {
		t.Fatal("fresh manager must have no session")
	}
	_, err := m.UserID()
	testutil.AssertAppError(t, err, "NOT_AUTHENTICATED")

	user, err := m.Register(ctx, "alice", "alice@example.com", "password1234")
	testutil.AssertNoError(t, err)
	if _, ok := m.Current(); ok {
		t.Fatal("register must not log the user in")
	}

	session, err := m.Login(ctx, "alice", "password1234")
	testutil.AssertNoError(t, err)
	if session.UserID != user.ID || session.Token == "" {
		t.Errorf("unexpected session: %+v", session)
	}

	id, err := m.UserID()
	testutil.AssertNoError(t, err)
	if id != user.ID {
		t.Errorf("expected acting user %d, got %d", user.ID, id)
	}

	testutil.AssertNoError(t, m.Logout(ctx))
	if _, ok := m.Current(); ok {
		t.Error("logout must clear the session")
	}
	_, err = m.UserID()
	testutil.AssertAppError(t, err, "NOT_AUTHENTICATED")
}

func TestManager_LoginFailureLeavesNoSession(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if _, err := m.Register(ctx, "bob", "bob@example.com", "password1234"); err != nil {
		t.Fatal(err)
	}
	_, err := m.Login(ctx, "bob", "wrong-password")
	testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	if _, ok := m.Current(); ok {
		t.Error("failed login must not install a session")
	}
}

func TestManager_Resume(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if _, err := m.Register(ctx, "carol", "carol@example.com", "password1234"); err != nil {
		t.Fatal(err)
	}
	session, err := m.Login(ctx, "carol", "password1234")
	testutil.AssertNoError(t, err)

	// A second manager over the same backend resumes with the token, the
	// way a restarted shell would.
	fresh := NewManager(m.gw)
	resumed, err := fresh.Resume(ctx, session.Token)
	testutil.AssertNoError(t, err)
	if resumed.UserID != session.UserID {
		t.Errorf("expected user %d, got %d", session.UserID, resumed.UserID)
	}

	_, err = fresh.Resume(ctx, "bogus-token")
	testutil.AssertAppError(t, err, "INVALID_SESSION")
}

func TestManager_LogoutRevokesRemotely(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if _, err := m.Register(ctx, "dave", "dave@example.com", "password1234"); err != nil {
		t.Fatal(err)
	}
	session, err := m.Login(ctx, "dave", "password1234")
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, m.Logout(ctx))

	_, err = m.Resume(ctx, session.Token)
	testutil.AssertAppError(t, err, "INVALID_SESSION")
}
