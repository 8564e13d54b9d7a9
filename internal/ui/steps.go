package ui

import (
	"github.com/fatih/color"

	"pacdeck/pkg/pacman"
)

func stepColor(step string) *color.Color {
	switch step {
	case pacman.StepInstalled, pacman.StepUpToDate, pacman.StepLastUpdate:
		return Success
	case pacman.StepUpdateAvailable, pacman.StepQueued, pacman.StepPendingUpdates:
		return Warning
	case pacman.StepNotInRepo, pacman.StepQueryFailed, pacman.StepValidation, pacman.StepHistoryParse:
		return Error
	case pacman.StepNotInstalled, pacman.StepQuery:
		return Muted
	}
	return Info
}
