package pacman

import (
	"strings"
)

// ParseVersion extracts a version from one line of pacman output.
//
// Two report formats are understood and tried in this order:
//
//	"name version ..."   (pacman -Q)   the second whitespace token
//	"Label : value ..."  (pacman -Si)  the first token after the first colon
//
// A lone ":" is never taken as a version, so "Version : 1.0-1" falls through
// to the second form.
func ParseVersion(line string) (string, bool) {
	if fields := strings.Fields(line); len(fields) >= 2 && fields[1] != ":" {
		return fields[1], true
	}

	if _, value, ok := strings.Cut(line, ":"); ok {
		if fields := strings.Fields(value); len(fields) > 0 {
			return fields[0], true
		}
	}

	return "", false
}

// ParseRepoVersion finds the "Version" line of a pacman -Si report and returns
// its value.
func ParseRepoVersion(output string) (string, bool) {
	for _, line := range strings.Split(output, "\n") {
		if !strings.HasPrefix(strings.TrimSpace(line), "Version") {
			continue
		}
		_, value, ok := strings.Cut(line, ":")
		if !ok {
			return "", false
		}
		fields := strings.Fields(value)
		if len(fields) == 0 {
			return "", false
		}
		return fields[0], true
	}
	return "", false
}

// ParseInstalledVersion returns the version from the first parseable line of a
// pacman -Q report.
func ParseInstalledVersion(output string) (string, bool) {
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if v, ok := ParseVersion(line); ok {
			return v, true
		}
	}
	return "", false
}
