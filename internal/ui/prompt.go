package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"

	"pacdeck/internal/history"
)

// Confirm prompts the user for yes/no confirmation.
func Confirm(prompt string, defaultYes bool) (bool, error) {
	label := prompt
	if defaultYes {
		label += " [Y/n]"
	} else {
		label += " [y/N]"
	}

	p := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if defaultYes {
		p.Default = "y"
	}

	result, err := p.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		if errors.Is(err, promptui.ErrInterrupt) {
			return false, err
		}
		return defaultYes, nil
	}

	return parseAnswer(result, defaultYes), nil
}

func parseAnswer(answer string, defaultYes bool) bool {
	answer = strings.ToLower(strings.TrimSpace(answer))
	if answer == "" {
		return defaultYes
	}
	return answer == "y" || answer == "yes"
}

// SelectEntry prompts the user to pick one journal entry.
func SelectEntry(entries []history.Entry, prompt string) (*history.Entry, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("no operations to select from")
	}
	if len(entries) == 1 {
		return &entries[0], nil
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ .Operation | cyan }} {{ .Package | bold }} {{ .FormatTime | faint }}",
		Inactive: "  {{ .Operation }} {{ .Package }} {{ .FormatTime | faint }}",
		Selected: "✓ {{ .Operation | cyan }} {{ .Package | bold }}",
		Details: `
--------- Operation ----------
{{ "ID:" | faint }}	{{ .ID }}
{{ "When:" | faint }}	{{ .FormatTime }}
{{ "Message:" | faint }}	{{ .Message }}`,
	}

	searcher := func(input string, index int) bool {
		return strings.Contains(strings.ToLower(entries[index].Package), strings.ToLower(input))
	}

	p := promptui.Select{
		Label:     prompt,
		Items:     entries,
		Templates: templates,
		Size:      10,
		Searcher:  searcher,
	}

	index, _, err := p.Run()
	if err != nil {
		return nil, err
	}
	return &entries[index], nil
}
