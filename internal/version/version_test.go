package version

import (
	"strings"
	"testing"
)

func TestFullIncludesCommit(t *testing.T) {
	if Version == "" || Commit == "" {
		t.Fatal("init should populate Version and Commit")
	}
	if !strings.Contains(Full(), Commit) {
		t.Errorf("Full() = %q, missing commit %q", Full(), Commit)
	}
}

func TestIdentity(t *testing.T) {
	id := Identity()
	if !strings.HasPrefix(id, AppName+" ") {
		t.Errorf("Identity() = %q, want prefix %q", id, AppName)
	}
	if FirmwareRevision() != Version {
		t.Errorf("FirmwareRevision() = %q, want %q", FirmwareRevision(), Version)
	}
}
