package secrets

import (
	"strings"
	"testing"

	"github.com/zalando/go-keyring"
)

func TestResolve_EnvironmentWins(t *testing.T) {
	keyring.MockInit()
	t.Setenv("JOBSCOUT_TEST_SECRET", "from-env")
	if err := Store("JOBSCOUT_TEST_SECRET", "from-keychain"); err != nil {
		t.Fatalf("store: %v", err)
	}

	got, err := Resolve("JOBSCOUT_TEST_SECRET")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from-env" {
		t.Errorf("got %q, want the environment value", got)
	}
}

func TestResolve_FallsBackToKeychain(t *testing.T) {
	keyring.MockInit()
	t.Setenv("JOBSCOUT_TEST_SECRET", "")
	if err := Store("JOBSCOUT_TEST_SECRET", "stored"); err != nil {
		t.Fatalf("store: %v", err)
	}

	got, err := Resolve("JOBSCOUT_TEST_SECRET")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "stored" {
		t.Errorf("got %q, want the keychain value", got)
	}
}

func TestResolve_MissingNamesBothPlaces(t *testing.T) {
	keyring.MockInit()
	t.Setenv("JOBSCOUT_TEST_SECRET", "")

	_, err := Resolve("JOBSCOUT_TEST_SECRET")
	if err == nil {
		t.Fatal("expected an error for a missing secret")
	}
	if !strings.Contains(err.Error(), "environment") || !strings.Contains(err.Error(), "keychain") {
		t.Errorf("error should mention both lookup places, got: %v", err)
	}
}

func TestStore_RejectsEmptyValues(t *testing.T) {
	keyring.MockInit()
	if err := Store("NAME", "  "); err == nil {
		t.Error("expected an error for a blank value")
	}
	if err := Store("", "value"); err == nil {
		t.Error("expected an error for a blank name")
	}
}

func TestDelete_RemovesStoredSecret(t *testing.T) {
	keyring.MockInit()
	t.Setenv("JOBSCOUT_TEST_SECRET", "")
	if err := Store("JOBSCOUT_TEST_SECRET", "v"); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := Delete("JOBSCOUT_TEST_SECRET"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := Resolve("JOBSCOUT_TEST_SECRET"); err == nil {
		t.Error("secret should be gone after delete")
	}
}

func TestDelete_MissingIsNotAnError(t *testing.T) {
	keyring.MockInit()
	if err := Delete("JOBSCOUT_NEVER_STORED"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
