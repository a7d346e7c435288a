package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/walletvault/internal/common"
	"github.com/dmitrijs2005/walletvault/internal/models"
	"github.com/google/uuid"
)

// AddWallet records a new wallet's name and chain address. Requires an
// active session.
func (a *App) AddWallet(ctx context.Context) {
	if !a.isUnlocked() {
		fmt.Println("Session expired, run 'unlock' first.")
		return
	}
	a.touch()

	name, err := GetSimpleText(a.reader, "Wallet name", os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	if name == "" {
		fmt.Println("Name must not be empty")
		return
	}

	address, err := GetSimpleText(a.reader, "Chain address", os.Stdout)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	if address == "" {
		fmt.Println("Address must not be empty")
		return
	}

	w := &models.Wallet{
		ID:        uuid.NewString(),
		Name:      name,
		Address:   address,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.repos.Wallet.Add(ctx, w); err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println("Added wallet", w.ID)
}

// ListWallets prints all recorded wallets. Requires an active session.
func (a *App) ListWallets(ctx context.Context) {
	if !a.isUnlocked() {
		fmt.Println("Session expired, run 'unlock' first.")
		return
	}
	a.touch()

	list, err := a.repos.Wallet.GetAll(ctx)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	if len(list) == 0 {
		fmt.Println("No wallets yet.")
		return
	}
	for _, w := range list {
		fmt.Printf("%s  %-20s %s\n", w.ID, w.Name, w.Address)
	}
}

// DeleteWallet removes a wallet by ID. Requires an active session.
func (a *App) DeleteWallet(ctx context.Context, args []string) {
	if !a.isUnlocked() {
		fmt.Println("Session expired, run 'unlock' first.")
		return
	}
	a.touch()

	if len(args) != 1 {
		fmt.Println("Usage: delete <id>")
		return
	}
	if err := a.repos.Wallet.DeleteByID(ctx, args[0]); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			fmt.Println("No wallet with that ID")
			return
		}
		fmt.Println("Error:", err)
		return
	}
	fmt.Println("Deleted.")
}
