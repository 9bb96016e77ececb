package cli

import (
	"os"

	"github.com/charmbracelet/huh"
)

// confirm asks a yes/no question. Without a terminal on stdin it returns def.
func confirm(title, description string, def bool) (bool, error) {
	if !isTerminal(os.Stdin) {
		return def, nil
	}
	ok := def
	err := huh.NewConfirm().
		Title(title).
		Description(description).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	return ok, err
}
