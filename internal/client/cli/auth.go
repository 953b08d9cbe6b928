package cli

import (
	"context"
	"fmt"

	"github.com/antonkuzmin/adminctl/internal/client/render"
	"github.com/antonkuzmin/adminctl/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Login prompts for credentials and tries to establish a session through
// the gate. On success the owner profile is shown, the console's default
// view. Validation and remote failures land on the notification channel;
// the underlying error is returned unchanged.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}

	if err := a.gate.Login(ctx, username, password); err != nil {
		return err
	}
	return a.ShowProfile(ctx)
}

// Logout destroys the stored credential and clears the session.
func (a *App) Logout(ctx context.Context) error {
	a.gate.Logout()
	printlnFn("Logged out.")
	return nil
}

// ShowProfile fetches and prints the current owner profile.
func (a *App) ShowProfile(ctx context.Context) error {
	owner, err := a.api.Profile(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "ID:       %d\n", owner.ID)
	fmt.Fprintf(a.out, "Username: %s\n", owner.Username)
	fmt.Fprintf(a.out, "Created:  %s\n", render.FormatTimestamp(owner.CreatedAt))
	fmt.Fprintf(a.out, "Updated:  %s\n", render.FormatTimestamp(owner.UpdatedAt))
	return nil
}

// ChangePassword prompts for a new owner password with confirmation and
// saves it against the profile. The two entries must match and be non-empty.
func (a *App) ChangePassword(ctx context.Context) error {
	owner, err := a.api.Profile(ctx)
	if err != nil {
		return err
	}

	password, err := getPassword("New password", a.out)
	if err != nil {
		return err
	}
	confirm, err := getPassword("Repeat password", a.out)
	if err != nil {
		return err
	}

	if password == "" {
		a.bus.SetError(`field "password" is required`)
		return common.ErrFieldRequired
	}
	if password != confirm {
		a.bus.SetError("passwords do not match")
		return common.ErrPasswordMismatch
	}

	if _, err := a.api.UpdateOwner(ctx, owner.ID, owner.Username, password); err != nil {
		return err
	}
	a.bus.SetMessage("Password updated")
	return nil
}

// ShowConfig prints the effective configuration.
func (a *App) ShowConfig() error {
	fmt.Fprintf(a.out, "oauth_base_url:      %s\n", a.config.OauthBaseURL)
	fmt.Fprintf(a.out, "storage_base_url:    %s\n", a.config.StorageBaseURL)
	fmt.Fprintf(a.out, "credential_file:     %s\n", a.config.CredentialFile)
	fmt.Fprintf(a.out, "token_ttl:           %s\n", a.config.TokenTTL)
	fmt.Fprintf(a.out, "revalidate_interval: %s\n", a.config.RevalidateInterval)
	fmt.Fprintf(a.out, "request_timeout:     %s\n", a.config.RequestTimeout)
	return nil
}
