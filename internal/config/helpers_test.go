package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

const minimalBridgeConfig = `{"bridge":{"name":"Homebridge","username":"0E:11:22:33:44:55","pin":"031-45-154","port":51826},"platforms":[]}`

// singleEnv returns an environment for single-instance mode rooted at a
// fresh storage directory containing bridgeJSON.
func singleEnv(t *testing.T, bridgeJSON string) (Environment, string) {
	t.Helper()
	storage := t.TempDir()
	writeFile(t, filepath.Join(storage, "config.json"), bridgeJSON)
	return Environment{StoragePath: storage, HomeDir: t.TempDir(), GOOS: "linux"}, storage
}

// multimodeEnv lays out a multimode root with registryJSON and one
// storage directory per named instance.
func multimodeEnv(t *testing.T, registryJSON string, instances map[string]string) (Environment, string) {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ui.json"), registryJSON)
	for dir, bridgeJSON := range instances {
		writeFile(t, filepath.Join(root, dir, "config.json"), bridgeJSON)
	}
	return Environment{Multimode: root, HomeDir: t.TempDir(), GOOS: "linux"}, root
}
