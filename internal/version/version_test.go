package version

import (
	"runtime/debug"
	"testing"
)

func TestFromBuildInfo(t *testing.T) {
	savedVersion, savedCommit := Version, Commit
	defer func() { Version, Commit = savedVersion, savedCommit }()

	Version, Commit = "", ""
	fromBuildInfo(&debug.BuildInfo{
		Main: debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.modified", Value: "true"},
		},
	}, true)

	if Version != "v0.3.1" {
		t.Errorf("Version = %q, want v0.3.1", Version)
	}
	if Commit != "0123456-dirty" {
		t.Errorf("Commit = %q, want 0123456-dirty", Commit)
	}
	if Full() != "v0.3.1 (commit: 0123456-dirty)" {
		t.Errorf("Full() = %q", Full())
	}
}

func TestFromBuildInfo_Devel(t *testing.T) {
	savedVersion, savedCommit := Version, Commit
	defer func() { Version, Commit = savedVersion, savedCommit }()

	Version, Commit = "", ""
	fromBuildInfo(&debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, true)

	if Version != "" || Commit != "" {
		t.Errorf("got Version=%q Commit=%q, want both empty", Version, Commit)
	}
}
