package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/walletvault/internal/common"
	"github.com/dmitrijs2005/walletvault/internal/credential"
	"github.com/dmitrijs2005/walletvault/internal/logging"
	"github.com/dmitrijs2005/walletvault/internal/pinpolicy"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

// fakeStore is an in-memory CredentialStore.
type fakeStore struct {
	rec       *credential.Record
	loadCalls int
	saveCalls int
	loadErr   error
	saveErr   error
}

func (f *fakeStore) Load(ctx context.Context) (*credential.Record, error) {
	f.loadCalls++
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.rec == nil {
		return nil, common.ErrorNotFound
	}
	return f.rec, nil
}

func (f *fakeStore) Save(ctx context.Context, r *credential.Record) error {
	f.saveCalls++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.rec = r
	return nil
}

// testClock drives the gate's clock from the test.
type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time          { return c.t }
func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestGate(t *testing.T) (*Gate, *fakeStore, *testClock) {
	t.Helper()
	store := &fakeStore{}
	clock := &testClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	g := NewGate(store, logging.NewDiscardLogger())
	g.now = clock.now
	return g, store, clock
}

const (
	testPIN    = "Test1234"
	wrongPIN   = "Wrong999"
	testSecret = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

func setUpGate(t *testing.T) (*Gate, *fakeStore, *testClock) {
	t.Helper()
	g, store, clock := newTestGate(t)
	require.NoError(t, g.Setup(context.Background(), testPIN, []byte(testSecret)))
	g.Lock()
	return g, store, clock
}

// ---- setup ----

func TestSetup_CreatesRecordAndSession(t *testing.T) {
	g, store, _ := newTestGate(t)
	ctx := context.Background()

	require.NoError(t, g.Setup(ctx, testPIN, []byte(testSecret)))
	require.NotNil(t, store.rec)
	require.NoError(t, store.rec.Validate())

	secret, err := g.CachedSecret()
	require.NoError(t, err)
	require.Equal(t, []byte(testSecret), secret)
}

func TestSetup_SessionSurvivesIdleTimeout(t *testing.T) {
	g, _, _ := newTestGate(t)
	ctx := context.Background()

	g.SetSessionTimeout(15)
	require.NoError(t, g.Setup(ctx, testPIN, []byte(testSecret)))

	require.True(t, g.CheckSession())
	secret, err := g.CachedSecret()
	require.NoError(t, err)
	require.Equal(t, []byte(testSecret), secret)
}

func TestSetup_RejectsInvalidPin(t *testing.T) {
	g, store, _ := newTestGate(t)

	err := g.Setup(context.Background(), "short1", []byte(testSecret))
	require.ErrorIs(t, err, pinpolicy.ErrTooShort)
	require.Zero(t, store.saveCalls)
}

func TestSetup_RejectsSecondSetup(t *testing.T) {
	g, _, _ := setUpGate(t)
	err := g.Setup(context.Background(), "Other123", []byte("x"))
	require.ErrorIs(t, err, ErrAlreadySetUp)
}

// ---- verify ----

func TestVerifyPin_Success(t *testing.T) {
	g, _, _ := setUpGate(t)
	ctx := context.Background()

	res, err := g.VerifyPin(ctx, testPIN)
	require.NoError(t, err)
	require.Equal(t, VerifySuccess, res.Status)

	secret, err := g.CachedSecret()
	require.NoError(t, err)
	require.Equal(t, []byte(testSecret), secret)
}

func TestVerifyPin_WithoutSetup(t *testing.T) {
	g, _, _ := newTestGate(t)

	_, err := g.VerifyPin(context.Background(), testPIN)
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.Contains(t, err.Error(), "setup required")
}

func TestVerifyPin_StoreFailureIsInternal(t *testing.T) {
	g, store, _ := setUpGate(t)
	store.loadErr = errors.New("disk gone")

	_, err := g.VerifyPin(context.Background(), testPIN)
	require.ErrorIs(t, err, common.ErrorInternal)
}

func TestVerifyPin_WrongPinCountsDown(t *testing.T) {
	g, _, _ := setUpGate(t)
	ctx := context.Background()

	res, err := g.VerifyPin(ctx, wrongPIN)
	require.NoError(t, err)
	require.Equal(t, VerifyRejected, res.Status)
	require.Equal(t, 2, res.RemainingAttempts)

	res, err = g.VerifyPin(ctx, wrongPIN)
	require.NoError(t, err)
	require.Equal(t, VerifyRejected, res.Status)
	require.Equal(t, 1, res.RemainingAttempts)
}

func TestVerifyPin_LockoutTrigger(t *testing.T) {
	g, store, clock := setUpGate(t)
	ctx := context.Background()

	for i := 0; i < MaxAttempts-1; i++ {
		res, err := g.VerifyPin(ctx, wrongPIN)
		require.NoError(t, err)
		require.Equal(t, VerifyRejected, res.Status)
	}

	res, err := g.VerifyPin(ctx, wrongPIN)
	require.NoError(t, err)
	require.Equal(t, VerifyLocked, res.Status)
	require.True(t, res.LockUntil.After(clock.now()))
	require.True(t, g.IsLocked())

	// Correct PIN while locked still fails and does not hit storage.
	loadsBefore := store.loadCalls
	res, err = g.VerifyPin(ctx, testPIN)
	require.NoError(t, err)
	require.Equal(t, VerifyLocked, res.Status)
	require.Equal(t, loadsBefore, store.loadCalls)
}

func TestVerifyPin_BackoffSequence(t *testing.T) {
	g, _, clock := setUpGate(t)
	ctx := context.Background()

	want := []time.Duration{
		5 * time.Minute,
		10 * time.Minute,
		20 * time.Minute,
		30 * time.Minute,
		30 * time.Minute,
	}

	for _, d := range want {
		var res VerifyResult
		var err error
		for i := 0; i < MaxAttempts; i++ {
			res, err = g.VerifyPin(ctx, wrongPIN)
			require.NoError(t, err)
		}
		require.Equal(t, VerifyLocked, res.Status)
		require.Equal(t, d, res.LockUntil.Sub(clock.now()))

		// Let the lock expire before provoking the next one.
		clock.advance(d + time.Second)
	}
}

func TestVerifyPin_LockExpiry(t *testing.T) {
	g, _, clock := setUpGate(t)
	ctx := context.Background()

	for i := 0; i < MaxAttempts; i++ {
		_, err := g.VerifyPin(ctx, wrongPIN)
		require.NoError(t, err)
	}
	require.True(t, g.IsLocked())

	clock.advance(5*time.Minute + time.Second)
	require.False(t, g.IsLocked())
	require.True(t, g.LockedUntil().IsZero())

	res, err := g.VerifyPin(ctx, testPIN)
	require.NoError(t, err)
	require.Equal(t, VerifySuccess, res.Status)
}

func TestVerifyPin_SuccessResetsCounters(t *testing.T) {
	g, _, clock := setUpGate(t)
	ctx := context.Background()

	// Provoke one lockout so consecutiveLocks is non-zero, then recover.
	for i := 0; i < MaxAttempts; i++ {
		_, err := g.VerifyPin(ctx, wrongPIN)
		require.NoError(t, err)
	}
	clock.advance(5*time.Minute + time.Second)

	res, err := g.VerifyPin(ctx, testPIN)
	require.NoError(t, err)
	require.Equal(t, VerifySuccess, res.Status)

	// After a success the next lockout starts from the base duration again.
	for i := 0; i < MaxAttempts; i++ {
		res, err = g.VerifyPin(ctx, wrongPIN)
		require.NoError(t, err)
	}
	require.Equal(t, VerifyLocked, res.Status)
	require.Equal(t, 5*time.Minute, res.LockUntil.Sub(clock.now()))
}

// ---- change pin ----

func TestChangePin_Success(t *testing.T) {
	g, _, _ := setUpGate(t)
	ctx := context.Background()

	oldRecSalt := append([]byte(nil), mustLoad(t, g).Salt...)
	oldRecIV := append([]byte(nil), mustLoad(t, g).IV...)

	require.NoError(t, g.ChangePin(ctx, testPIN, "NewPin456"))

	// Fresh salt and IV on re-encryption.
	rec := mustLoad(t, g)
	require.NotEqual(t, oldRecSalt, rec.Salt)
	require.NotEqual(t, oldRecIV, rec.IV)

	// Cached secret survives the change.
	secret, err := g.CachedSecret()
	require.NoError(t, err)
	require.Equal(t, []byte(testSecret), secret)

	g.Lock()
	res, err := g.VerifyPin(ctx, "NewPin456")
	require.NoError(t, err)
	require.Equal(t, VerifySuccess, res.Status)

	g.Lock()
	res, err = g.VerifyPin(ctx, testPIN)
	require.NoError(t, err)
	require.Equal(t, VerifyRejected, res.Status)
}

func TestChangePin_InvalidNewPinFailsFast(t *testing.T) {
	g, store, _ := setUpGate(t)

	loadsBefore := store.loadCalls
	err := g.ChangePin(context.Background(), testPIN, "nodigits")
	require.ErrorIs(t, err, pinpolicy.ErrNeedsDigit)
	require.Equal(t, loadsBefore, store.loadCalls, "validation must not touch storage")
}

func TestChangePin_WrongCurrentPin(t *testing.T) {
	g, store, _ := setUpGate(t)

	savesBefore := store.saveCalls
	err := g.ChangePin(context.Background(), wrongPIN, "NewPin456")
	require.ErrorIs(t, err, ErrWrongPin)
	require.Equal(t, savesBefore, store.saveCalls, "failed change must not mutate state")
}

func TestChangePin_BypassesLockout(t *testing.T) {
	g, _, _ := setUpGate(t)
	ctx := context.Background()

	for i := 0; i < MaxAttempts; i++ {
		_, err := g.VerifyPin(ctx, wrongPIN)
		require.NoError(t, err)
	}
	require.True(t, g.IsLocked())

	// Changing the PIN is not blocked by the lockout and does not clear it.
	require.NoError(t, g.ChangePin(ctx, testPIN, "NewPin456"))
	require.True(t, g.IsLocked())
}

func TestChangePin_SaveFailureIsInternal(t *testing.T) {
	g, store, _ := setUpGate(t)
	store.saveErr = errors.New("disk gone")

	err := g.ChangePin(context.Background(), testPIN, "NewPin5678")
	require.ErrorIs(t, err, common.ErrorInternal)
}

func TestChangePin_FailureDoesNotConsumeAttempts(t *testing.T) {
	g, _, _ := setUpGate(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		err := g.ChangePin(ctx, wrongPIN, "NewPin456")
		require.ErrorIs(t, err, ErrWrongPin)
	}
	require.False(t, g.IsLocked())

	res, err := g.VerifyPin(ctx, wrongPIN)
	require.NoError(t, err)
	require.Equal(t, MaxAttempts-1, res.RemainingAttempts)
}

// ---- session ----

func TestCheckSession_TimeoutExpiresSecret(t *testing.T) {
	g, _, clock := setUpGate(t)
	ctx := context.Background()

	g.SetSessionTimeout(1)
	res, err := g.VerifyPin(ctx, testPIN)
	require.NoError(t, err)
	require.Equal(t, VerifySuccess, res.Status)
	require.True(t, g.CheckSession())

	clock.advance(61 * time.Second)
	require.False(t, g.CheckSession())

	_, err = g.CachedSecret()
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestCheckSession_ActivityKeepsSessionAlive(t *testing.T) {
	g, _, clock := setUpGate(t)
	ctx := context.Background()

	g.SetSessionTimeout(1)
	_, err := g.VerifyPin(ctx, testPIN)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		clock.advance(40 * time.Second)
		g.UpdateActivity()
	}
	require.True(t, g.CheckSession())
}

func TestCheckSession_ZeroTimeoutNeverExpires(t *testing.T) {
	g, _, clock := setUpGate(t)
	ctx := context.Background()

	g.SetSessionTimeout(0)
	_, err := g.VerifyPin(ctx, testPIN)
	require.NoError(t, err)

	clock.advance(24 * time.Hour)
	require.True(t, g.CheckSession())
}

func TestLock_ClearsSecretIdempotently(t *testing.T) {
	g, _, _ := setUpGate(t)
	ctx := context.Background()

	_, err := g.VerifyPin(ctx, testPIN)
	require.NoError(t, err)

	g.Lock()
	g.Lock()
	require.False(t, g.CheckSession())
	_, err = g.CachedSecret()
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestReset_ClearsEverything(t *testing.T) {
	g, _, _ := setUpGate(t)
	ctx := context.Background()

	for i := 0; i < MaxAttempts; i++ {
		_, err := g.VerifyPin(ctx, wrongPIN)
		require.NoError(t, err)
	}
	require.True(t, g.IsLocked())

	g.Reset()
	require.False(t, g.IsLocked())
	require.False(t, g.CheckSession())

	res, err := g.VerifyPin(ctx, testPIN)
	require.NoError(t, err)
	require.Equal(t, VerifySuccess, res.Status)
}

func TestCachedSecret_ReturnsCopy(t *testing.T) {
	g, _, _ := setUpGate(t)
	ctx := context.Background()

	_, err := g.VerifyPin(ctx, testPIN)
	require.NoError(t, err)

	first, err := g.CachedSecret()
	require.NoError(t, err)
	for i := range first {
		first[i] = 0
	}

	second, err := g.CachedSecret()
	require.NoError(t, err)
	require.Equal(t, []byte(testSecret), second)
}

func TestCachedSecret_BeforeVerify(t *testing.T) {
	g, _, _ := setUpGate(t)
	_, err := g.CachedSecret()
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestSessionTimeout_NegativeClamped(t *testing.T) {
	g, _, _ := newTestGate(t)
	g.SetSessionTimeout(-5)
	require.Equal(t, 0, g.SessionTimeout())
}

func TestLockDuration_Sequence(t *testing.T) {
	want := []time.Duration{
		5 * time.Minute, 10 * time.Minute, 20 * time.Minute,
		30 * time.Minute, 30 * time.Minute, 30 * time.Minute,
	}
	for i, d := range want {
		require.Equal(t, d, lockDuration(i+1), "lock %d", i+1)
	}
}

func mustLoad(t *testing.T, g *Gate) *credential.Record {
	t.Helper()
	rec, err := g.store.Load(context.Background())
	require.NoError(t, err)
	return rec
}
