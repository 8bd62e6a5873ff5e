package cli

import (
	"context"
	"fmt"
	"os"
)

// Export writes a portable snapshot of the whole local cache to path.
func (a *App) Export(ctx context.Context, path string) error {
	data, err := a.local.Export(ctx)
	if err != nil {
		printlnFn(err.Error())
		return err
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		printlnFn(err.Error())
		return err
	}

	printlnFn(fmt.Sprintf("Exported to %s.", path))
	return nil
}

// Import restores a snapshot produced by Export, replacing local contents,
// and reloads the visible state.
func (a *App) Import(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		printlnFn(err.Error())
		return err
	}

	if err := a.local.Import(ctx, data); err != nil {
		printlnFn(err.Error())
		return err
	}

	a.engine.Reload(ctx)
	printlnFn(fmt.Sprintf("Imported from %s.", path))
	return nil
}
