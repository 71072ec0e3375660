// Package secrets persists the per-instance signing secret and derives the
// public instance identifier from it.
package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
)

// keySize is the number of random bytes in a generated secret key.
const keySize = 32

// Record is the on-disk content of the secrets file.
type Record struct {
	SecretKey string `json:"secretKey"`
}

// GetOrCreate returns the secret stored at path. A missing, unreadable or
// corrupt file, or one without a secretKey, is replaced by a freshly
// generated record. Only write failures are returned.
func GetOrCreate(path string) (Record, error) {
	if rec, ok := load(path); ok {
		return rec, nil
	}
	return generate(path)
}

// DeriveIdentity returns the hex SHA-256 digest of the secret key. The digest
// is safe to publish; it cannot be reversed into the key.
func DeriveIdentity(rec Record) string {
	sum := sha256.Sum256([]byte(rec.SecretKey))
	return hex.EncodeToString(sum[:])
}

func load(path string) (Record, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[Secrets] read %s failed, regenerating: %v", path, err)
		}
		return Record{}, false
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		log.Printf("[Secrets] %s is not valid JSON, regenerating", path)
		return Record{}, false
	}
	if rec.SecretKey == "" {
		log.Printf("[Secrets] %s has no secretKey, regenerating", path)
		return Record{}, false
	}
	return rec, true
}

func generate(path string) (Record, error) {
	buf := make([]byte, keySize)
	if _, err := rand.Read(buf); err != nil {
		return Record{}, fmt.Errorf("secrets: generate key: %w", err)
	}
	rec := Record{SecretKey: hex.EncodeToString(buf)}

	data, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("secrets: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return Record{}, fmt.Errorf("secrets: write %s: %w", path, err)
	}
	return rec, nil
}
