package diag

import (
	"fmt"
	"strings"
)

// Severity ranks how much a missed optimization is likely to cost.
// Lower values are more severe.
type Severity uint8

const (
	// SevCritical blocks a major transformation such as vectorization.
	SevCritical Severity = iota
	SevHigh
	SevMedium
	SevLow
	// SevInfo is informational only.
	SevInfo
)

// NumSeverities is the number of severity levels.
const NumSeverities = 5

func (s Severity) String() string {
	switch s {
	case SevCritical:
		return "CRITICAL"
	case SevHigh:
		return "HIGH"
	case SevMedium:
		return "MEDIUM"
	case SevLow:
		return "LOW"
	case SevInfo:
		return "INFO"
	}
	return "UNKNOWN"
}

// Tag is the fixed-width marker printed in front of report headings.
func (s Severity) Tag() string {
	switch s {
	case SevCritical:
		return "[!!]"
	case SevHigh:
		return "[! ]"
	case SevMedium:
		return "[~ ]"
	case SevLow:
		return "[- ]"
	default:
		return "[i ]"
	}
}

// Valid reports whether s is one of the defined levels.
func (s Severity) Valid() bool {
	return s <= SevInfo
}

// AtLeast reports whether s is as severe as min or more.
func (s Severity) AtLeast(min Severity) bool {
	return s <= min
}

// ParseSeverity accepts the level names in any case.
func ParseSeverity(v string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "critical":
		return SevCritical, nil
	case "high":
		return SevHigh, nil
	case "medium":
		return SevMedium, nil
	case "low":
		return SevLow, nil
	case "info":
		return SevInfo, nil
	}
	return SevLow, fmt.Errorf("unknown severity %q (want critical|high|medium|low|info)", v)
}

func (s Severity) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid severity %d", uint8(s))
	}
	return []byte(strings.ToLower(s.String())), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
