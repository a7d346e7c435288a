package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	switch {
	case a.gate.IsLocked():
		return "(locked out)"
	case a.isUnlocked():
		return "(unlocked)"
	default:
		return "(locked)"
	}
}

// Root runs the command loop until EOF or an exit command.
func (a *App) Root(ctx context.Context) {
	fmt.Println("Welcome to walletvault (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("wv %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			a.help()
		case "setup":
			a.Setup(ctx)
		case "unlock":
			a.Unlock(ctx)
		case "lock":
			a.LockNow(ctx)
		case "status":
			a.Status(ctx)
		case "changepin":
			a.ChangePin(ctx)
		case "strength":
			a.Strength(ctx)
		case "timeout":
			a.SetTimeout(ctx, args)
		case "addwallet":
			a.AddWallet(ctx)
		case "list":
			a.ListWallets(ctx)
		case "delete":
			a.DeleteWallet(ctx, args)
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}
	}
}

func (a *App) help() {
	if a.isUnlocked() {
		fmt.Println("Available commands: lock, status, changepin, strength, timeout <min>, addwallet, list, delete <id>, exit")
	} else {
		fmt.Println("Available commands: setup, unlock, status, strength, exit")
	}
}
