package opcontrol

import (
	"os"
	"testing"
)

func TestIsDaemonized(t *testing.T) {
	old, had := os.LookupEnv(DaemonEnvVar)
	defer func() {
		if had {
			os.Setenv(DaemonEnvVar, old)
		} else {
			os.Unsetenv(DaemonEnvVar)
		}
	}()

	os.Unsetenv(DaemonEnvVar)
	if IsDaemonized() {
		t.Fatalf("expected not daemonized when env var unset")
	}

	os.Setenv(DaemonEnvVar, "1")
	if !IsDaemonized() {
		t.Fatalf("expected daemonized when env var set to 1")
	}
}
