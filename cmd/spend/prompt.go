package main

import "github.com/pterm/pterm"

// prompter asks the user for input during interactive commands.
type prompter interface {
	Select(label string, options []string) (string, error)
	Text(label, current string) (string, error)
	Confirm(label string) (bool, error)
}

type ptermPrompter struct{}

func (ptermPrompter) Select(label string, options []string) (string, error) {
	return pterm.DefaultInteractiveSelect.
		WithOptions(options).
		WithDefaultText(label).
		Show()
}

func (ptermPrompter) Text(label, current string) (string, error) {
	return pterm.DefaultInteractiveTextInput.
		WithDefaultValue(current).
		Show(label)
}

func (ptermPrompter) Confirm(label string) (bool, error) {
	return pterm.DefaultInteractiveConfirm.Show(label)
}
