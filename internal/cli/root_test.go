package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestExecute_Help(t *testing.T) {
	var buf bytes.Buffer
	RootCmd.SetOut(&buf)
	RootCmd.SetErr(&buf)
	RootCmd.SetArgs([]string{"--help"})
	defer RootCmd.SetArgs(nil)

	if err := Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "pubpulse") {
		t.Errorf("help output missing the command name\n%s", out)
	}
	if !strings.Contains(out, "run") {
		t.Errorf("help output missing the run subcommand\n%s", out)
	}
}

func TestRootCommand(t *testing.T) {
	if RootCmd.Use != "pubpulse" {
		t.Errorf("Use = %q, want pubpulse", RootCmd.Use)
	}
	if RootCmd.Version != version {
		t.Errorf("Version = %q, want %q", RootCmd.Version, version)
	}

	var found bool
	for _, c := range RootCmd.Commands() {
		if c.Name() == "run" {
			found = true
		}
	}
	if !found {
		t.Error("run subcommand is not registered")
	}
}
