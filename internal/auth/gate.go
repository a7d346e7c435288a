// Package auth implements the PIN gate: the stateful orchestrator that
// verifies and changes the PIN, enforces lockout with exponential backoff,
// tracks session idle timeout, and is the single holder of the decrypted
// wallet secret.
//
// All lockout and session state is in-memory only; a process restart
// clears it. That is a known property of the design, not an accident.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/walletvault/internal/common"
	"github.com/dmitrijs2005/walletvault/internal/credential"
	"github.com/dmitrijs2005/walletvault/internal/cryptox"
	"github.com/dmitrijs2005/walletvault/internal/logging"
	"github.com/dmitrijs2005/walletvault/internal/pinpolicy"
)

const (
	// MaxAttempts is the number of failed verifications that triggers a lockout.
	MaxAttempts = 3
	// baseLockDuration is the first lockout length; each consecutive
	// lockout doubles it up to maxLockDuration (5, 10, 20, 30, 30, ...).
	baseLockDuration = 5 * time.Minute
	maxLockDuration  = 30 * time.Minute
)

var (
	// ErrWrongPin means decryption with the supplied PIN failed. Data
	// corruption is deliberately indistinguishable from a wrong PIN.
	ErrWrongPin = errors.New("incorrect PIN")

	// ErrNotAuthenticated is returned when the cached secret is requested
	// without an active session. This indicates a bug in the calling layer.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrAlreadySetUp is returned by Setup when a credential record exists.
	ErrAlreadySetUp = errors.New("credential already set up")
)

// CredentialStore is the storage collaborator holding the persisted
// credential record. Load returns common.ErrorNotFound when no record
// exists yet.
type CredentialStore interface {
	Load(ctx context.Context) (*credential.Record, error)
	Save(ctx context.Context, r *credential.Record) error
}

// Gate is the PIN-gated access controller. It owns all authentication
// state and the cached secret; no other component may hold a reference to
// the decrypted key material.
//
// Gate is safe for concurrent use: verify and change-PIN are
// read-modify-write operations on shared counters and are serialized by an
// internal mutex.
type Gate struct {
	mu    sync.Mutex
	store CredentialStore
	log   logging.Logger

	// now is a test seam for the wall clock.
	now func() time.Time

	// timeoutMinutes is the session idle timeout; 0 disables it.
	timeoutMinutes int

	failedAttempts   int
	lockUntil        time.Time // zero when not locked
	consecutiveLocks int
	lastActivity     time.Time

	secret []byte // decrypted wallet secret; nil when no session
}

// NewGate constructs a Gate bound to the given credential store. All
// counters start at zero: construction is also the "reset for testing"
// escape hatch the design calls for.
func NewGate(store CredentialStore, log logging.Logger) *Gate {
	return &Gate{
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// IsSetUp reports whether a credential record exists.
func (g *Gate) IsSetUp(ctx context.Context) (bool, error) {
	_, err := g.store.Load(ctx)
	if errors.Is(err, common.ErrorNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Setup creates the initial credential record from a new PIN and the
// wallet secret (first wallet import). The PIN must pass the format
// policy. On success the secret is cached and a session is active.
func (g *Gate) Setup(ctx context.Context, pin string, secret []byte) error {
	if err := pinpolicy.ValidateFormat(pin); err != nil {
		return fmt.Errorf("invalid PIN: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, err := g.store.Load(ctx); err == nil {
		return ErrAlreadySetUp
	} else if !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("%w: load credential: %v", common.ErrorInternal, err)
	}

	rec, err := sealSecret(pin, secret)
	if err != nil {
		return err
	}
	if err := g.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("%w: save credential: %v", common.ErrorInternal, err)
	}

	g.cacheSecret(secret)
	g.failedAttempts = 0
	g.consecutiveLocks = 0
	g.lockUntil = time.Time{}
	g.lastActivity = g.now()

	g.log.Info(ctx, "credential created")
	return nil
}

// VerifyPin attempts to unlock the wallet secret with the given PIN.
//
// While a lockout is in effect the stored credential is not touched and
// the call returns a Locked result immediately; an expired lockout is
// cleared first. A wrong PIN increments the failure counter, and reaching
// MaxAttempts trades the counter for a lockout whose duration doubles with
// each consecutive lockout, capped at 30 minutes. A correct PIN caches
// the secret and resets all counters.
func (g *Gate) VerifyPin(ctx context.Context, pin string) (VerifyResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if !g.lockUntil.IsZero() {
		if now.Before(g.lockUntil) {
			return VerifyResult{Status: VerifyLocked, LockUntil: g.lockUntil}, nil
		}
		g.lockUntil = time.Time{}
	}

	rec, err := g.store.Load(ctx)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return VerifyResult{}, fmt.Errorf("setup required: %w", err)
		}
		return VerifyResult{}, fmt.Errorf("%w: load credential: %v", common.ErrorInternal, err)
	}

	plaintext, err := openRecord(pin, rec)
	if err != nil {
		g.failedAttempts++
		if g.failedAttempts >= MaxAttempts {
			g.consecutiveLocks++
			g.lockUntil = now.Add(lockDuration(g.consecutiveLocks))
			g.failedAttempts = 0
			g.log.Warn(ctx, "PIN attempts exhausted, locking",
				"consecutive_locks", g.consecutiveLocks,
				"lock_until", g.lockUntil)
			return VerifyResult{Status: VerifyLocked, LockUntil: g.lockUntil}, nil
		}
		remaining := MaxAttempts - g.failedAttempts
		g.log.Warn(ctx, "PIN verification failed", "remaining_attempts", remaining)
		return VerifyResult{Status: VerifyRejected, RemainingAttempts: remaining}, nil
	}

	g.cacheSecret(plaintext)
	common.WipeByteArray(plaintext)
	g.failedAttempts = 0
	g.consecutiveLocks = 0
	g.lastActivity = now

	g.log.Info(ctx, "PIN verified, session started")
	return VerifyResult{Status: VerifySuccess}, nil
}

// ChangePin re-encrypts the wallet secret under a new PIN. The new PIN is
// validated first, with no state mutation on failure. The current PIN is
// then checked against the stored record; this check intentionally neither
// consumes a lockout attempt nor is blocked by an active lockout (see the
// design notes before changing that). On success a wholly new record with
// a fresh salt and IV replaces the persisted one and the cached secret is
// refreshed.
func (g *Gate) ChangePin(ctx context.Context, currentPin, newPin string) error {
	if err := pinpolicy.ValidateFormat(newPin); err != nil {
		return fmt.Errorf("invalid new PIN: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	rec, err := g.store.Load(ctx)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("setup required: %w", err)
		}
		return fmt.Errorf("%w: load credential: %v", common.ErrorInternal, err)
	}

	plaintext, err := openRecord(currentPin, rec)
	if err != nil {
		return ErrWrongPin
	}
	defer common.WipeByteArray(plaintext)

	newRec, err := sealSecret(newPin, plaintext)
	if err != nil {
		return err
	}
	if err := g.store.Save(ctx, newRec); err != nil {
		return fmt.Errorf("%w: save credential: %v", common.ErrorInternal, err)
	}

	g.cacheSecret(plaintext)
	g.lastActivity = g.now()

	g.log.Info(ctx, "PIN changed")
	return nil
}

// CheckSession reports whether a session is active. If the idle timeout
// is enabled and has elapsed, the cached secret is cleared and false is
// returned.
func (g *Gate) CheckSession() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.checkSessionLocked()
}

// UpdateActivity refreshes the session idle timer. No-op without an
// active session.
func (g *Gate) UpdateActivity() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.secret != nil {
		g.lastActivity = g.now()
	}
}

// Lock unconditionally clears the cached secret. Idempotent.
func (g *Gate) Lock() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clearSecretLocked()
}

// Reset clears all counters, timers, and the cached secret. This is an
// administrative/test escape hatch, not part of the normal flow.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clearSecretLocked()
	g.failedAttempts = 0
	g.consecutiveLocks = 0
	g.lockUntil = time.Time{}
	g.lastActivity = time.Time{}
}

// CachedSecret returns a copy of the decrypted wallet secret, or
// ErrNotAuthenticated when no session is active (including a session that
// just expired). The caller must wipe the returned copy after use.
func (g *Gate) CachedSecret() ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.checkSessionLocked() {
		return nil, ErrNotAuthenticated
	}
	out := make([]byte, len(g.secret))
	copy(out, g.secret)
	return out, nil
}

// SetSessionTimeout sets the idle timeout in minutes; 0 disables it.
func (g *Gate) SetSessionTimeout(minutes int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if minutes < 0 {
		minutes = 0
	}
	g.timeoutMinutes = minutes
}

// SessionTimeout returns the configured idle timeout in minutes.
func (g *Gate) SessionTimeout() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.timeoutMinutes
}

// IsLocked reports whether a lockout is currently in effect.
func (g *Gate) IsLocked() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.lockUntil.IsZero() && g.now().Before(g.lockUntil)
}

// LockedUntil returns the lockout expiry, or the zero time when not locked.
func (g *Gate) LockedUntil() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.lockUntil.IsZero() || !g.now().Before(g.lockUntil) {
		return time.Time{}
	}
	return g.lockUntil
}

func (g *Gate) checkSessionLocked() bool {
	if g.secret == nil {
		return false
	}
	if g.timeoutMinutes > 0 {
		idle := g.now().Sub(g.lastActivity)
		if idle >= time.Duration(g.timeoutMinutes)*time.Minute {
			g.clearSecretLocked()
			return false
		}
	}
	return true
}

func (g *Gate) cacheSecret(secret []byte) {
	g.clearSecretLocked()
	g.secret = make([]byte, len(secret))
	copy(g.secret, secret)
}

func (g *Gate) clearSecretLocked() {
	if g.secret != nil {
		common.WipeByteArray(g.secret)
		g.secret = nil
	}
}

// lockDuration returns the backoff for the n-th consecutive lockout:
// 5, 10, 20, 30, 30, ... minutes.
func lockDuration(n int) time.Duration {
	d := baseLockDuration
	for i := 1; i < n; i++ {
		d *= 2
		if d >= maxLockDuration {
			return maxLockDuration
		}
	}
	if d > maxLockDuration {
		return maxLockDuration
	}
	return d
}

// sealSecret encrypts secret under a key derived from pin with a fresh
// salt and IV, producing a complete record. The derived key is wiped on
// every exit path.
func sealSecret(pin string, secret []byte) (*credential.Record, error) {
	salt := common.GenerateRandByteArray(cryptox.SaltSize)

	key := cryptox.DeriveKey([]byte(pin), salt)
	defer common.WipeByteArray(key)

	iv, ciphertext, tag, err := cryptox.Encrypt(secret, key)
	if err != nil {
		return nil, fmt.Errorf("encrypt secret: %w", err)
	}

	return &credential.Record{
		Version:    credential.CurrentVersion,
		Salt:       salt,
		IV:         iv,
		AuthTag:    tag,
		Ciphertext: ciphertext,
	}, nil
}

// openRecord derives the key from pin and the record's salt and attempts
// decryption. The derived key is wiped on every exit path.
func openRecord(pin string, rec *credential.Record) ([]byte, error) {
	key := cryptox.DeriveKey([]byte(pin), rec.Salt)
	defer common.WipeByteArray(key)

	return cryptox.Decrypt(rec.Ciphertext, key, rec.IV, rec.AuthTag)
}
