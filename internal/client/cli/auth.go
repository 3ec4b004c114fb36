package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/taskvault/taskvault/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts the user for an email, display name and password and
// attempts to create a new account. A successful registration also starts
// a session, so no separate login is needed.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	name, err := getSimpleText(a.reader, "Enter name", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.client.Register(ctx, email, name, string(password))
	if err != nil {
		return err
	}

	a.userName = user.Name
	fmt.Println("Success!")
	return nil
}

// Login prompts the user for credentials and tries to authenticate.
// The password is securely wiped before returning.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.client.Login(ctx, email, string(password))
	if err != nil {
		log.Printf("Login unsuccessfull: %s", err.Error())
		return err
	}

	a.userName = user.Name
	log.Printf("Login successfull")
	return nil
}

// Logout ends the server session and forgets the cached identity.
func (a *App) Logout(ctx context.Context) error {
	if err := a.client.Logout(ctx); err != nil {
		return err
	}
	a.userName = ""
	return nil
}
