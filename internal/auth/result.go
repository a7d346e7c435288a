package auth

import "time"

// VerifyStatus tags the outcome of a PIN verification attempt.
type VerifyStatus int

const (
	// VerifySuccess means the PIN was correct and a session is now active.
	VerifySuccess VerifyStatus = iota
	// VerifyRejected means the PIN was wrong; RemainingAttempts tells how
	// many tries are left before a lockout.
	VerifyRejected
	// VerifyLocked means attempts are exhausted or a lockout is already in
	// effect; LockUntil carries the expiry for a UI countdown.
	VerifyLocked
)

// VerifyResult is the tagged outcome of Gate.VerifyPin. Exactly the fields
// relevant to Status are populated.
type VerifyResult struct {
	Status            VerifyStatus
	RemainingAttempts int       // valid when Status == VerifyRejected
	LockUntil         time.Time // valid when Status == VerifyLocked
}
