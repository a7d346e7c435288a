package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/walletvault/internal/auth"
	"github.com/dmitrijs2005/walletvault/internal/common"
	"github.com/dmitrijs2005/walletvault/internal/cryptox"
	"github.com/dmitrijs2005/walletvault/internal/pinpolicy"
	"github.com/dmitrijs2005/walletvault/internal/repositories/settings"
)

// Setup creates the credential record on first use: a new PIN and the
// wallet private key to protect.
func (a *App) Setup(ctx context.Context) {
	if ok, err := a.gate.IsSetUp(ctx); err != nil {
		fmt.Println("Error:", err)
		return
	} else if ok {
		fmt.Println("Already set up. Use 'changepin' to change the PIN.")
		return
	}

	pin, err := GetPIN("Choose a PIN (min 8 chars, letters and digits)", os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer common.WipeByteArray(pin)

	if err := pinpolicy.ValidateFormat(string(pin)); err != nil {
		fmt.Println("Invalid PIN:", err)
		return
	}
	if s := pinpolicy.Strength(string(pin)); s < 50 {
		fmt.Printf("Warning: PIN strength is %d/100, consider something stronger\n", s)
	}

	confirm, err := GetPIN("Confirm PIN", os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer common.WipeByteArray(confirm)

	if !cryptox.SecureCompare(pin, confirm) {
		fmt.Println("PINs do not match")
		return
	}

	secret, err := GetPIN("Wallet private key", os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer common.WipeByteArray(secret)

	if len(secret) == 0 {
		fmt.Println("Private key must not be empty")
		return
	}

	if err := a.gate.Setup(ctx, string(pin), secret); err != nil {
		fmt.Println("Setup failed:", err)
		return
	}
	fmt.Println("Vault created and unlocked.")
}

// Unlock verifies the PIN and starts a session.
func (a *App) Unlock(ctx context.Context) {
	pin, err := GetPIN("PIN", os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer common.WipeByteArray(pin)

	res, err := a.gate.VerifyPin(ctx, string(pin))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			fmt.Println("No vault yet, run 'setup' first.")
			return
		}
		fmt.Println("Error:", err)
		return
	}

	switch res.Status {
	case auth.VerifySuccess:
		fmt.Println("Unlocked.")
	case auth.VerifyRejected:
		fmt.Printf("Incorrect PIN, %d attempt(s) remaining\n", res.RemainingAttempts)
	case auth.VerifyLocked:
		fmt.Printf("Locked out until %s\n", res.LockUntil.Local().Format(time.Kitchen))
	}
}

// LockNow clears the cached secret immediately.
func (a *App) LockNow(ctx context.Context) {
	a.gate.Lock()
	fmt.Println("Locked.")
}

// Status reports vault, session, and lockout state.
func (a *App) Status(ctx context.Context) {
	ok, err := a.gate.IsSetUp(ctx)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	if !ok {
		fmt.Println("No vault yet, run 'setup' first.")
		return
	}

	if until := a.gate.LockedUntil(); !until.IsZero() {
		fmt.Printf("Locked out until %s\n", until.Local().Format(time.Kitchen))
		return
	}
	if a.isUnlocked() {
		fmt.Println("Session active.")
	} else {
		fmt.Println("Locked, run 'unlock'.")
	}
	if m := a.gate.SessionTimeout(); m > 0 {
		fmt.Printf("Session timeout: %d minute(s)\n", m)
	} else {
		fmt.Println("Session timeout: disabled")
	}
}

// ChangePin re-encrypts the secret under a new PIN. The current PIN is
// required; an active session is not.
func (a *App) ChangePin(ctx context.Context) {
	current, err := GetPIN("Current PIN", os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer common.WipeByteArray(current)

	newPin, err := GetPIN("New PIN", os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer common.WipeByteArray(newPin)

	confirm, err := GetPIN("Confirm new PIN", os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer common.WipeByteArray(confirm)

	if !cryptox.SecureCompare(newPin, confirm) {
		fmt.Println("PINs do not match")
		return
	}

	if err := a.gate.ChangePin(ctx, string(current), string(newPin)); err != nil {
		switch {
		case errors.Is(err, auth.ErrWrongPin):
			fmt.Println("Current PIN incorrect")
		case errors.Is(err, common.ErrorNotFound):
			fmt.Println("No vault yet, run 'setup' first.")
		default:
			fmt.Println("Error:", err)
		}
		return
	}
	fmt.Println("PIN changed.")
}

// Strength scores a candidate PIN without storing anything.
func (a *App) Strength(ctx context.Context) {
	pin, err := GetPIN("PIN to score", os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer common.WipeByteArray(pin)

	if err := pinpolicy.ValidateFormat(string(pin)); err != nil {
		fmt.Println("Format:", err)
	} else {
		fmt.Println("Format: ok")
	}
	fmt.Printf("Strength: %d/100\n", pinpolicy.Strength(string(pin)))
}

// SetTimeout updates the session idle timeout (minutes; 0 disables) in
// both the gate and the settings store.
func (a *App) SetTimeout(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: timeout <minutes>")
		return
	}
	var minutes int
	if _, err := fmt.Sscanf(args[0], "%d", &minutes); err != nil || minutes < 0 {
		fmt.Println("Usage: timeout <minutes>")
		return
	}

	if err := settings.SetInt(ctx, a.repos.Settings, settings.KeySessionTimeoutMinutes, minutes); err != nil {
		fmt.Println("Error:", err)
		return
	}
	a.gate.SetSessionTimeout(minutes)
	a.touch()

	if minutes == 0 {
		fmt.Println("Session timeout disabled.")
	} else {
		fmt.Printf("Session timeout set to %d minute(s)\n", minutes)
	}
}
