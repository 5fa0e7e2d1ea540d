package version

import "testing"

func TestString(t *testing.T) {
	orig := [3]string{Version, Commit, BuildDate}
	t.Cleanup(func() { Version, Commit, BuildDate = orig[0], orig[1], orig[2] })

	Version, Commit, BuildDate = "v1.2.3", "abc123", "2026-10-17"
	if got, want := String(), "v1.2.3 (commit abc123, built 2026-10-17)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
