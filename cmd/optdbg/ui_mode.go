package main

import (
	"fmt"
	"os"
	"strings"
)

type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiModeAuto, nil
	case "on":
		return uiModeOn, nil
	case "off":
		return uiModeOff, nil
	default:
		return "", fmt.Errorf("invalid --ui value %q for the analyze progress view (expected auto|on|off)", value)
	}
}

// shouldUseTUI decides whether analyze draws its per-stage progress view
// on stderr. In auto mode the view is skipped when stage and function
// trace events already stream there.
func shouldUseTUI(mode uiMode, traceOnStderr bool) bool {
	switch mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	default:
		return !traceOnStderr && isTerminal(os.Stderr)
	}
}
