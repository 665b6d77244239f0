package store

import "testing"

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewMemory(t *testing.T) {
	s := newTestStore(t)

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/sub/timebill.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopen — should succeed and not re-migrate.
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	s2.Close()
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	s := newTestStore(t)

	if err := s.SetSetting(KeyEndpoint, "https://example.test/graphql"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSetting(KeyToken, "secret"); err != nil {
		t.Fatal(err)
	}

	endpoint, token, err := s.Remote()
	if err != nil {
		t.Fatal(err)
	}
	if endpoint != "https://example.test/graphql" || token != "secret" {
		t.Fatalf("unexpected remote settings: %q %q", endpoint, token)
	}

	// Overwrite wins.
	if err := s.SetSetting(KeyToken, "rotated"); err != nil {
		t.Fatal(err)
	}
	v, err := s.GetSetting(KeyToken)
	if err != nil {
		t.Fatal(err)
	}
	if v != "rotated" {
		t.Fatalf("expected rotated, got %q", v)
	}
}

func TestDefaultsSeeded(t *testing.T) {
	s := newTestStore(t)
	settings, err := s.GetAllSettings()
	if err != nil {
		t.Fatal(err)
	}
	if len(settings) != 2 {
		t.Fatalf("expected 2 seeded settings, got %d", len(settings))
	}
}

func TestGetMissingSetting(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetSetting("nope"); err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}
