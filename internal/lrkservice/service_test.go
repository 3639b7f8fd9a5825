package lrkservice

import (
	"context"
	"testing"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	cfg := Config{DataDir: t.TempDir(), Secret: "0123456789abcdef0123456789abcdef", DefaultK: 1}.FillDefaults()
	svc, err := NewService(cfg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

const baseGrammarText = "S -> a S b S\nS -> eps\n"

func TestServiceBuildPersistsSuccessfulBuild(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	rec, err := svc.Build(ctx, user.ID, baseGrammarText, 1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !rec.Success {
		t.Fatalf("expected a successful build, got conflict: %s", rec.ConflictMsg)
	}
	if rec.StateCount == 0 {
		t.Fatal("expected a nonzero state count")
	}

	builds, err := svc.Builds(ctx, user.ID)
	if err != nil {
		t.Fatalf("Builds: %v", err)
	}
	if len(builds) != 1 || builds[0].ID != rec.ID {
		t.Fatalf("Builds: got %v, want one record with id %s", builds, rec.ID)
	}
}

func TestServiceBuildPersistsConflictAsFailure(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "bob", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	rec, err := svc.Build(ctx, user.ID, baseGrammarText, 0)
	if err != nil {
		t.Fatalf("Build should not itself fail for a build-level conflict: %v", err)
	}
	if rec.Success {
		t.Fatal("expected the k=0 build of base_grammar to fail with a conflict")
	}
	if rec.ConflictMsg == "" {
		t.Fatal("expected a non-empty conflict message")
	}
}

func TestServiceParseRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "carol", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	rec, err := svc.Build(ctx, user.ID, baseGrammarText, 1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !rec.Success {
		t.Fatalf("build failed: %s", rec.ConflictMsg)
	}

	derivation, err := svc.Parse(ctx, rec.ID, "a a b a b a a b b b a b")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []int{1, 1, 1, 1, 0, 1, 0, 0, 0, 1, 1, 0, 0}
	if len(derivation) != len(want) {
		t.Fatalf("derivation: got %v, want %v", derivation, want)
	}
	for i := range want {
		if derivation[i] != want[i] {
			t.Fatalf("derivation[%d]: got %d want %d", i, derivation[i], want[i])
		}
	}
}

func TestServiceParseAgainstFailedBuildErrors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "dave", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	rec, err := svc.Build(ctx, user.ID, baseGrammarText, 0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if rec.Success {
		t.Fatal("expected this build to fail")
	}

	if _, err := svc.Parse(ctx, rec.ID, "a b"); err == nil {
		t.Fatal("expected Parse against a failed build to error")
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "erin", "correcthorsebattery"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.login(ctx, "erin", "wrongpassword"); err != ErrBadCredentials {
		t.Fatalf("login with wrong password: got %v, want ErrBadCredentials", err)
	}

	if _, err := svc.login(ctx, "erin", "correcthorsebattery"); err != nil {
		t.Fatalf("login with correct password should succeed, got %v", err)
	}
}
