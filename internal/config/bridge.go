package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ConfigPlatform is the platform tag under which the UI keeps its settings
// inside the bridge configuration.
const ConfigPlatform = "config"

// BridgeConfig is the on-disk bridge configuration (config.json). It is only
// ever read.
type BridgeConfig struct {
	Bridge      BridgeSection     `json:"bridge"`
	Platforms   []PlatformEntry   `json:"platforms,omitempty"`
	Accessories []json.RawMessage `json:"accessories,omitempty"`
	Plugins     []string          `json:"plugins,omitempty"`
}

// UnmarshalJSON decodes the bridge configuration. A platforms or accessories
// member that is not an array is read as empty.
func (c *BridgeConfig) UnmarshalJSON(data []byte) error {
	var doc struct {
		Bridge      BridgeSection   `json:"bridge"`
		Platforms   json.RawMessage `json:"platforms"`
		Accessories json.RawMessage `json:"accessories"`
		Plugins     []string        `json:"plugins"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	cfg := BridgeConfig{Bridge: doc.Bridge, Plugins: doc.Plugins}

	if isJSONArray(doc.Platforms) {
		if err := json.Unmarshal(doc.Platforms, &cfg.Platforms); err != nil {
			return err
		}
	}
	if isJSONArray(doc.Accessories) {
		if err := json.Unmarshal(doc.Accessories, &cfg.Accessories); err != nil {
			return err
		}
	}

	*c = cfg
	return nil
}

func isJSONArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

// BridgeSection identifies the bridge on the network.
type BridgeSection struct {
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
	Pin      string `json:"pin,omitempty"`
	Port     int    `json:"port,omitempty"`
}

// PlatformEntry is one element of the platforms array. Entries tagged
// ConfigPlatform decode into UI; object entries keep their raw members in
// Attributes, which is the only view of platforms this package does not own.
// Any other value is kept verbatim in Raw with an empty tag.
type PlatformEntry struct {
	Platform   string
	UI         *UIConfig
	Attributes map[string]json.RawMessage
	Raw        json.RawMessage
}

func (p *PlatformEntry) UnmarshalJSON(data []byte) error {
	var attrs map[string]json.RawMessage
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '{' {
		*p = PlatformEntry{Raw: append(json.RawMessage(nil), data...)}
		return nil
	}
	if err := json.Unmarshal(data, &attrs); err != nil {
		return err
	}
	entry := PlatformEntry{Attributes: attrs}

	if raw, ok := attrs["platform"]; ok {
		// A non-string tag is simply not a platform we recognise.
		_ = json.Unmarshal(raw, &entry.Platform)
	}

	if entry.Platform == ConfigPlatform {
		var ui UIConfig
		if err := json.Unmarshal(data, &ui); err != nil {
			return fmt.Errorf("platform %q: %w", ConfigPlatform, err)
		}
		entry.UI = &ui
	}

	*p = entry
	return nil
}

func (p PlatformEntry) MarshalJSON() ([]byte, error) {
	if p.Attributes == nil && p.Raw != nil {
		return p.Raw, nil
	}
	return json.Marshal(p.Attributes)
}

// ConfigPlatform returns a copy of the first UI settings entry.
func (c *BridgeConfig) ConfigPlatform() (UIConfig, bool) {
	for _, p := range c.Platforms {
		if p.UI != nil {
			return p.UI.clone(), true
		}
	}
	return UIConfig{}, false
}

// LoadBridgeConfig reads and parses the bridge configuration at path. A
// missing or malformed file is fatal: the bridge cannot start from it either.
func LoadBridgeConfig(path string) (*BridgeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{File: path, Err: err}
	}

	var cfg BridgeConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigError{File: path, Field: jsonErrorField(err), Err: err}
	}
	return &cfg, nil
}

func jsonErrorField(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return typeErr.Field
	}
	return ""
}
