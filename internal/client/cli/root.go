package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	if a.userName == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", a.userName)
}

func (a *App) Root(ctx context.Context) {

	log.Println("Welcome to TaskVault CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("tv %s> ", a.getStatus())
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

		var err error

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Println("Available commands: list, add, done <id>, rm <id>, attach <id>, logout, exit")
			} else {
				fmt.Println("Available commands: register, login, ping, exit")
			}
		case "register":
			err = a.Register(ctx)
		case "login":
			err = a.Login(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "ping":
			if err = a.client.Ping(ctx); err == nil {
				fmt.Println("Server is up")
			}
		case "list", "l":
			err = a.list(ctx)
		case "add":
			err = a.add(ctx)
		case "done":
			err = a.done(ctx, args)
		case "rm":
			err = a.remove(ctx, args)
		case "attach":
			err = a.attach(ctx, args)
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}

		if err != nil {
			log.Printf("Error: %s", err.Error())
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}
