package authgate

import (
	"context"
	"errors"
	"testing"
)

func TestForgotPasswordIssuesResetToken(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	te.seedAccount(t, "u1", "alice@example.com", "Str0ng!pass")

	if err := te.engine.ForgotPassword(ctx, "Alice@Example.com"); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}

	mail := te.mailer.lastReset(t)
	if mail.email != "alice@example.com" {
		t.Fatalf("reset mail sent to %q", mail.email)
	}
	if tokenFromLink(t, mail.link) == "" {
		t.Fatal("expected a token in the reset link")
	}
}

func TestForgotPasswordUnknownEmailSilent(t *testing.T) {
	te := newTestEngine(t)

	if err := te.engine.ForgotPassword(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("unknown email must not error, got %v", err)
	}
	if te.mailer.resetCount() != 0 {
		t.Fatal("unknown email must not trigger mail")
	}
}

func TestResetPasswordReplacesDigest(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	te.seedAccount(t, "u1", "alice@example.com", "Str0ng!pass")

	if err := te.engine.ForgotPassword(ctx, "alice@example.com"); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	tok := tokenFromLink(t, te.mailer.lastReset(t).link)

	if err := te.engine.ResetPassword(ctx, tok, "N3w!passwd"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}

	if _, err := te.engine.Signin(ctx, "alice@example.com", "Str0ng!pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password should stop working, got %v", err)
	}
	if _, err := te.engine.Signin(ctx, "alice@example.com", "N3w!passwd"); err != nil {
		t.Fatalf("new password should work, got %v", err)
	}
}

func TestResetPasswordTokenSingleUse(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	te.seedAccount(t, "u1", "alice@example.com", "Str0ng!pass")

	if err := te.engine.ForgotPassword(ctx, "alice@example.com"); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	tok := tokenFromLink(t, te.mailer.lastReset(t).link)

	if err := te.engine.ResetPassword(ctx, tok, "N3w!passwd"); err != nil {
		t.Fatalf("first ResetPassword failed: %v", err)
	}
	if err := te.engine.ResetPassword(ctx, tok, "Oth3r!pass"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("replay should fail ErrTokenInvalid, got %v", err)
	}
}

func TestResetPasswordRejectsWeakPassword(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	te.seedAccount(t, "u1", "alice@example.com", "Str0ng!pass")

	if err := te.engine.ForgotPassword(ctx, "alice@example.com"); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	tok := tokenFromLink(t, te.mailer.lastReset(t).link)

	if err := te.engine.ResetPassword(ctx, tok, "weak"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	// Policy rejection must not burn the token.
	if err := te.engine.ResetPassword(ctx, tok, "N3w!passwd"); err != nil {
		t.Fatalf("token should survive a policy rejection, got %v", err)
	}
}

func TestResetPasswordClearsLockout(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()
	te.seedAccount(t, "u1", "alice@example.com", "Str0ng!pass")

	for i := 0; i < 5; i++ {
		_, _ = te.engine.Signin(ctx, "alice@example.com", "wrong-password")
	}
	if te.store.get("u1").LockedUntil == 0 {
		t.Fatal("expected lockout before reset")
	}

	if err := te.engine.ForgotPassword(ctx, "alice@example.com"); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	tok := tokenFromLink(t, te.mailer.lastReset(t).link)
	if err := te.engine.ResetPassword(ctx, tok, "N3w!passwd"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}

	account := te.store.get("u1")
	if account.LockedUntil != 0 || account.FailedAttempts != 0 {
		t.Fatalf("lockout state must be cleared, got attempts=%d lockedUntil=%d",
			account.FailedAttempts, account.LockedUntil)
	}
	if _, err := te.engine.Signin(ctx, "alice@example.com", "N3w!passwd"); err != nil {
		t.Fatalf("signin after reset failed: %v", err)
	}
}

func TestResetPasswordUnknownToken(t *testing.T) {
	te := newTestEngine(t)

	err := te.engine.ResetPassword(context.Background(), "no-such-token", "N3w!passwd")
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerificationTokenRejectedForReset(t *testing.T) {
	te := newTestEngine(t)
	ctx := context.Background()

	if err := te.engine.Signup(ctx, "alice@example.com", "Str0ng!pass", ""); err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	verifyTok := tokenFromLink(t, te.mailer.lastVerification(t).link)

	// A verification token redeemed against the reset flow is both rejected
	// and burned.
	if err := te.engine.ResetPassword(ctx, verifyTok, "N3w!passwd"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
	if err := te.engine.VerifyEmail(ctx, verifyTok); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("burned token should stay invalid, got %v", err)
	}
}
