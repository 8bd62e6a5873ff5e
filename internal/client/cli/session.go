package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/kymbms/name-card-manage/internal/client/models"
)

func (a *App) Register(ctx context.Context) error {

	userName, err := GetSimpleText(a.reader, "Enter user name (email)", os.Stdout)
	if err != nil {
		printlnFn(err.Error())
		return err
	}

	password, err := GetPassword(os.Stdout)
	if err != nil {
		printlnFn(err.Error())
		return err
	}

	identity, err := a.remote.Register(ctx, userName, password)
	if err != nil {
		printlnFn(err.Error())
		return err
	}

	a.engine.SetIdentity(ctx, identity)
	printlnFn("Success!")
	return nil
}

func (a *App) Login(ctx context.Context) error {

	userName, err := GetSimpleText(a.reader, "Enter user name (email)", os.Stdout)
	if err != nil {
		printlnFn(err.Error())
		return err
	}

	password, err := GetPassword(os.Stdout)
	if err != nil {
		printlnFn(err.Error())
		return err
	}

	identity, err := a.remote.Login(ctx, userName, password)
	if err != nil {
		printlnFn(err.Error())
		return err
	}

	a.engine.SetIdentity(ctx, identity)
	printlnFn("Success!")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.remote.Logout(ctx); err != nil {
		printlnFn(err.Error())
		return err
	}
	a.engine.SetIdentity(ctx, models.Guest)
	printlnFn("Logged out.")
	return nil
}

// Migrate re-runs the guest-data upload by hand, even when the migration
// marker says it already happened.
func (a *App) Migrate(ctx context.Context) error {
	identity := a.engine.Identity()
	if identity.IsGuest() {
		printlnFn("Sign in first: migration uploads guest cards into your account.")
		return nil
	}

	if err := a.migrate.Run(ctx, identity, true); err != nil {
		printlnFn(fmt.Sprintf("Migration failed: %v", err))
		return err
	}

	a.engine.Reload(ctx)
	printlnFn("Migration complete.")
	return nil
}
