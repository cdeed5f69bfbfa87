package version

import (
	"strings"
	"testing"
)

func TestPretty(t *testing.T) {
	orig := Version
	defer func() { Version = orig }()

	Version = "1.2.3-rc1"
	if got := Pretty(false); got != "1.2.3-rc1" {
		t.Errorf("Pretty(false) = %q", got)
	}
	colored := Pretty(true)
	if !strings.Contains(colored, "\x1b[") || !strings.HasSuffix(colored, "-rc1") {
		t.Errorf("Pretty(true) = %q", colored)
	}

	Version = "nightly"
	if got := Pretty(true); got != "nightly" {
		t.Errorf("non-semver Pretty(true) = %q, want it unchanged", got)
	}
}

func TestCurrent(t *testing.T) {
	origCommit, origDate := GitCommit, BuildDate
	defer func() { GitCommit, BuildDate = origCommit, origDate }()

	GitCommit = "abc123def456"
	BuildDate = "2024-01-15T10:30:00Z"
	info := Current()
	if info.Version != Version || info.GitCommit != "abc123def456" || info.BuildDate != "2024-01-15T10:30:00Z" {
		t.Errorf("Current() = %+v", info)
	}
}
