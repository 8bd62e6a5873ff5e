package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/kymbms/name-card-manage/internal/client/models"
)

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func formatLine(c models.Contact) string {
	star := " "
	if c.IsFavorite {
		star = "*"
	}
	line := fmt.Sprintf("%s %d  %s", star, c.ID, c.Name)
	if c.Company != "" {
		line += "  (" + c.Company + ")"
	}
	return line
}

func printCard(c models.Contact) {
	printlnFn(fmt.Sprintf("Name:    %s", c.Name))
	if c.Company != "" {
		printlnFn(fmt.Sprintf("Company: %s", c.Company))
	}
	if c.Role != "" {
		printlnFn(fmt.Sprintf("Role:    %s", c.Role))
	}
	if c.Phone != "" {
		printlnFn(fmt.Sprintf("Phone:   %s", c.Phone))
	}
	if c.Email != "" {
		printlnFn(fmt.Sprintf("Email:   %s", c.Email))
	}
	if c.Address != "" {
		printlnFn(fmt.Sprintf("Address: %s", c.Address))
	}
	if c.Website != "" {
		printlnFn(fmt.Sprintf("Website: %s", c.Website))
	}
	if c.Memo != "" {
		printlnFn(fmt.Sprintf("Memo:    %s", c.Memo))
	}
	if c.IsFavorite {
		printlnFn("Favorite: yes")
	}
}

func (a *App) List(ctx context.Context) error {
	state := a.engine.State()
	if state.Loading {
		printlnFn("(syncing...)")
	}
	if len(state.Contacts) == 0 {
		printlnFn("No cards yet. Type 'add' to create one.")
		return nil
	}
	for _, c := range state.Contacts {
		printlnFn(formatLine(c))
	}
	return nil
}

func (a *App) findContact(id int64) (models.Contact, bool) {
	for _, c := range a.engine.State().Contacts {
		if c.ID == id {
			return c, true
		}
	}
	return models.Contact{}, false
}

func (a *App) Show(ctx context.Context, raw string) error {
	id, err := parseID(raw)
	if err != nil {
		printlnFn(err.Error())
		return err
	}

	c, ok := a.findContact(id)
	if !ok {
		printlnFn(fmt.Sprintf("No card with id %d", id))
		return nil
	}

	printCard(c)
	return nil
}

// promptCard collects the card fields interactively. Only the name is
// required; everything else may be left empty.
func (a *App) promptCard() (models.Contact, error) {
	var c models.Contact

	name, err := GetSimpleText(a.reader, "Name", os.Stdout)
	if err != nil {
		return c, err
	}
	if name == "" {
		return c, fmt.Errorf("name is required")
	}
	c.Name = name

	fields := []struct {
		prompt string
		dst    *string
	}{
		{"Company (optional)", &c.Company},
		{"Role (optional)", &c.Role},
		{"Phone (optional)", &c.Phone},
		{"Email (optional)", &c.Email},
		{"Memo (optional)", &c.Memo},
	}
	for _, f := range fields {
		v, err := GetSimpleText(a.reader, f.prompt, os.Stdout)
		if err != nil {
			return c, err
		}
		*f.dst = v
	}

	return c, nil
}

func (a *App) Add(ctx context.Context) error {
	draft, err := a.promptCard()
	if err != nil {
		printlnFn(err.Error())
		return err
	}

	added, err := a.engine.AddContact(ctx, draft)
	if err != nil {
		printlnFn(err.Error())
		return err
	}

	printlnFn(fmt.Sprintf("Added card %d.", added.ID))
	return nil
}

func (a *App) Delete(ctx context.Context, raw string) error {
	id, err := parseID(raw)
	if err != nil {
		printlnFn(err.Error())
		return err
	}

	if err := a.engine.DeleteContact(ctx, id); err != nil {
		printlnFn(err.Error())
		return err
	}

	printlnFn(fmt.Sprintf("Deleted card %d.", id))
	return nil
}

func (a *App) Favorite(ctx context.Context, raw string) error {
	id, err := parseID(raw)
	if err != nil {
		printlnFn(err.Error())
		return err
	}

	if err := a.engine.ToggleFavorite(ctx, id); err != nil {
		printlnFn(err.Error())
		return err
	}

	if c, ok := a.findContact(id); ok && c.IsFavorite {
		printlnFn(fmt.Sprintf("Card %d marked as favorite.", id))
	} else {
		printlnFn(fmt.Sprintf("Card %d unmarked.", id))
	}
	return nil
}

func (a *App) MyCard(ctx context.Context) error {
	state := a.engine.State()
	if state.MyCard == nil || state.MyCard.Name == "" {
		printlnFn("No card of your own yet. Type 'setcard' to create one.")
		return nil
	}
	printCard(*state.MyCard)
	return nil
}

func (a *App) SetMyCard(ctx context.Context) error {
	card, err := a.promptCard()
	if err != nil {
		printlnFn(err.Error())
		return err
	}

	if err := a.engine.UpdateMyCard(ctx, card); err != nil {
		printlnFn(err.Error())
		return err
	}

	printlnFn("Your card is saved.")
	return nil
}
