package pacman

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestClassifyFailure_DependencyConflict(t *testing.T) {
	output := `resolving dependencies...
looking for conflicting packages...
error: failed to prepare transaction (could not satisfy dependencies)
:: installing gst-plugins-base-libs (1.26.10-3) breaks dependency 'gst-plugins-base-libs=1.26.10-1' required by gst-plugins-bad-libs`

	pacErr := ClassifyFailure(output, 1)
	if pacErr == nil {
		t.Fatal("expected PacmanError, got nil")
	}
	if pacErr.Type != ErrorDependencyConflict {
		t.Errorf("expected dependency conflict, got %v", pacErr.Type)
	}
	if len(pacErr.Packages) != 2 {
		t.Errorf("expected 2 affected packages, got %d: %v", len(pacErr.Packages), pacErr.Packages)
	}
	if pacErr.Suggestion == "" {
		t.Error("expected non-empty Suggestion")
	}
}

func TestClassifyFailure_MultipleConflicts(t *testing.T) {
	output := `error: failed to prepare transaction (could not satisfy dependencies)
:: installing gst-plugins-base-libs (1.26.10-3) breaks dependency 'gst-plugins-base-libs=1.26.10-1' required by gst-plugins-bad-libs
:: installing pipewire (1.2.3-4) breaks dependency 'pipewire=1.2.3-1' required by wireplumber`

	pacErr := ClassifyFailure(output, 1)
	if pacErr == nil {
		t.Fatal("expected PacmanError, got nil")
	}
	if len(pacErr.Packages) != 4 {
		t.Errorf("expected 4 affected packages, got %d: %v", len(pacErr.Packages), pacErr.Packages)
	}
}

func TestClassifyFailure_PackageConflict(t *testing.T) {
	pacErr := ClassifyFailure(":: iptables and iptables-nft are in conflict", 1)
	if pacErr == nil || pacErr.Type != ErrorDependencyConflict {
		t.Fatalf("expected dependency conflict, got %v", pacErr)
	}
	if len(pacErr.Packages) != 2 || pacErr.Packages[0] != "iptables" {
		t.Errorf("unexpected packages: %v", pacErr.Packages)
	}
}

func TestClassifyFailure_NotFound(t *testing.T) {
	pacErr := ClassifyFailure("error: target not found: nosuchpkg", 1)
	if pacErr == nil || pacErr.Type != ErrorPackageNotFound {
		t.Fatalf("expected target not found, got %v", pacErr)
	}
	if len(pacErr.Packages) != 1 || pacErr.Packages[0] != "nosuchpkg" {
		t.Errorf("unexpected packages: %v", pacErr.Packages)
	}
	if pacErr.Error() != "target not found: nosuchpkg" {
		t.Errorf("unexpected message: %q", pacErr.Error())
	}
}

func TestClassifyFailure_DatabaseLocked(t *testing.T) {
	pacErr := ClassifyFailure("error: failed to init transaction (unable to lock database)", 1)
	if pacErr == nil || pacErr.Type != ErrorDatabaseLocked {
		t.Fatalf("expected database locked, got %v", pacErr)
	}
}

func TestClassifyFailure_AuthDismissed(t *testing.T) {
	if pacErr := ClassifyFailure("Error executing command as another user: Request dismissed", 126); pacErr == nil || pacErr.Type != ErrorAuthDismissed {
		t.Fatalf("expected auth dismissed, got %v", pacErr)
	}
	if pacErr := ClassifyFailure("", pkexecUnauthorized); pacErr == nil || pacErr.Type != ErrorAuthDismissed {
		t.Fatalf("expected auth dismissed from exit code, got %v", pacErr)
	}
}

func TestClassifyFailure_Unknown(t *testing.T) {
	if pacErr := ClassifyFailure("something odd happened", 1); pacErr != nil {
		t.Errorf("expected nil for unknown failure, got %v", pacErr)
	}
	if pacErr := ClassifyFailure("", 0); pacErr != nil {
		t.Errorf("expected nil for empty input, got %v", pacErr)
	}
}

func TestPacmanErrorMatchesNonZeroExit(t *testing.T) {
	wrapped := fmt.Errorf("install: %w", ClassifyFailure("error: target not found: x", 1))

	if !errors.Is(wrapped, ErrNonZeroExit) {
		t.Error("expected classified failure to match ErrNonZeroExit")
	}
	var pacErr *PacmanError
	if !errors.As(wrapped, &pacErr) || pacErr.Type != ErrorPackageNotFound {
		t.Errorf("errors.As() = %v", pacErr)
	}
}

func TestFormatFailure(t *testing.T) {
	pacErr := &PacmanError{
		Type:       ErrorDependencyConflict,
		Packages:   []string{"a", "b"},
		Suggestion: "upgrade first",
	}
	msg := FormatFailure(pacErr)

	for _, want := range []string{"Dependency conflict", "upgrade first", "    - a", "    - b"} {
		if !strings.Contains(msg, want) {
			t.Errorf("FormatFailure() missing %q in:\n%s", want, msg)
		}
	}
}
