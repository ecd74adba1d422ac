package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "hotspotctl dev") {
		t.Errorf("unexpected version output %q", out)
	}
}

func TestVersionCommandJSON(t *testing.T) {
	out, err := runCLI(t, "version", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var info map[string]string
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info["version"] != "dev" {
		t.Errorf("expected version dev, got %q", info["version"])
	}
}

func TestAdminKeyCommand(t *testing.T) {
	out, err := runCLI(t, "admin-key", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var generated struct {
		Key  string `json:"key"`
		Hash string `json:"hash"`
	}
	if err := json.Unmarshal([]byte(out), &generated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(generated.Key, "hk_") {
		t.Errorf("expected hk_ prefix, got %q", generated.Key)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(generated.Hash), []byte(generated.Key)); err != nil {
		t.Errorf("hash does not match key: %v", err)
	}
}

func TestUnknownCommand(t *testing.T) {
	if _, err := runCLI(t, "rewind"); err == nil {
		t.Error("expected error for unknown command")
	}
}
