package secrets

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func readRecord(t *testing.T, path string) Record {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return rec
}

func TestGetOrCreate_CreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".uix-secrets")

	rec, err := GetOrCreate(path)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	raw, err := hex.DecodeString(rec.SecretKey)
	if err != nil {
		t.Fatalf("secret key is not hex: %v", err)
	}
	if len(raw) != keySize {
		t.Fatalf("secret key has %d bytes, want %d", len(raw), keySize)
	}
	if onDisk := readRecord(t, path); onDisk != rec {
		t.Fatalf("persisted record %+v differs from returned %+v", onDisk, rec)
	}
}

func TestGetOrCreate_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".uix-secrets")

	first, err := GetOrCreate(path)
	if err != nil {
		t.Fatalf("first GetOrCreate: %v", err)
	}
	before, _ := os.Stat(path)

	second, err := GetOrCreate(path)
	if err != nil {
		t.Fatalf("second GetOrCreate: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical records, got %q and %q", first.SecretKey, second.SecretKey)
	}
	after, _ := os.Stat(path)
	if !after.ModTime().Equal(before.ModTime()) {
		t.Fatal("secrets file was rewritten on a clean read")
	}
}

func TestGetOrCreate_KeepsExistingKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{name: "plain", key: "existing"},
		{name: "whitespace only", key: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ".uix-secrets")
			data, _ := json.Marshal(Record{SecretKey: tt.key})
			if err := os.WriteFile(path, data, 0o600); err != nil {
				t.Fatal(err)
			}

			rec, err := GetOrCreate(path)
			if err != nil {
				t.Fatalf("GetOrCreate: %v", err)
			}
			if rec.SecretKey != tt.key {
				t.Fatalf("expected existing key %q, got %q", tt.key, rec.SecretKey)
			}
		})
	}
}

func TestGetOrCreate_RegeneratesInvalidContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not json", content: "{{{ definitely not json"},
		{name: "missing key", content: `{"other":"value"}`},
		{name: "empty key", content: `{"secretKey":""}`},
		{name: "empty file", content: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ".uix-secrets")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}

			rec, err := GetOrCreate(path)
			if err != nil {
				t.Fatalf("GetOrCreate: %v", err)
			}
			if rec.SecretKey == "" {
				t.Fatal("expected a regenerated key")
			}
			if onDisk := readRecord(t, path); onDisk != rec {
				t.Fatalf("corrupt content was not replaced: %+v", onDisk)
			}
		})
	}
}

func TestGetOrCreate_CorruptionBetweenCallsRegeneratesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".uix-secrets")

	first, err := GetOrCreate(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("garbage"), 0o600); err != nil {
		t.Fatal(err)
	}

	healed, err := GetOrCreate(path)
	if err != nil {
		t.Fatal(err)
	}
	if healed == first {
		t.Fatal("expected a new key after corruption")
	}

	again, err := GetOrCreate(path)
	if err != nil {
		t.Fatal(err)
	}
	if again != healed {
		t.Fatal("healed secret was regenerated a second time")
	}
}

func TestGetOrCreate_WriteFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", ".uix-secrets")

	if _, err := GetOrCreate(path); err == nil {
		t.Fatal("expected write error for unwritable path")
	}
}

func TestDeriveIdentity(t *testing.T) {
	a := Record{SecretKey: "first secret"}
	b := Record{SecretKey: "second secret"}

	idA := DeriveIdentity(a)
	if idA != DeriveIdentity(a) {
		t.Fatal("DeriveIdentity is not deterministic")
	}
	if idA == DeriveIdentity(b) {
		t.Fatal("distinct secrets produced the same identity")
	}
	if len(idA) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(idA))
	}
	if idA == a.SecretKey {
		t.Fatal("identity must not equal the secret")
	}

	// sha256("abc")
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := DeriveIdentity(Record{SecretKey: "abc"}); got != want {
		t.Fatalf("DeriveIdentity(abc) = %s, want %s", got, want)
	}
}
