package subnet

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileFallsBackToDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	c := New(path)
	c.Load()
	if got := c.Subnet(); got != Default {
		t.Fatalf("expected default subnet %v, got %v", Default, got)
	}
}

func TestLoadMalformedFileFallsBackToDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := New(path)
	c.Load()
	if got := c.Subnet(); got != Default {
		t.Fatalf("expected default subnet %v, got %v", Default, got)
	}
}

func TestSetPersistsAndRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "settings.json")
	c := New(path)
	c.Load()

	want := [3]byte{16, 32, 48}
	if err := c.Set(want, true); err != nil {
		t.Fatalf("Set: %v", err)
	}

	c2 := New(path)
	c2.Load()
	if got := c2.Subnet(); got != want {
		t.Fatalf("expected reloaded subnet %v, got %v", want, got)
	}
	if got := c2.BroadcastAddr(); got != "16.32.48.255" {
		t.Fatalf("unexpected broadcast address %q", got)
	}
}

func TestSetWithoutPersistDoesNotWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	c := New(path)
	c.Load()

	if err := c.Set([3]byte{1, 2, 3}, false); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no file to be written, stat err = %v", err)
	}
}
