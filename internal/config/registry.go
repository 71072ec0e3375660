package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/homebridge/uix/internal/constants"
)

// Registry is the multimode registry (ui.json): the instances managed by
// one control plane plus the network settings they share.
type Registry struct {
	Path      string               `json:"-"`
	Instances []InstanceDescriptor `json:"instances"`
	Port      int                  `json:"port,omitempty"`
	Host      string               `json:"host,omitempty"`
	Auth      string               `json:"auth,omitempty"`
	SSL       *SSLConfig           `json:"ssl,omitempty"`
	ProxyHost string               `json:"proxyHost,omitempty"`
	Debug     bool                 `json:"debug,omitempty"`
}

// InstanceDescriptor describes one bridge instance in the registry.
type InstanceDescriptor struct {
	Name             string `json:"name"`
	Path             string `json:"path"`
	Insecure         bool   `json:"insecure,omitempty"`
	NoTimestamps     bool   `json:"noTimestamps,omitempty"`
	CustomPluginPath string `json:"customPluginPath,omitempty"`
}

func (d *InstanceDescriptor) UnmarshalJSON(data []byte) error {
	type plain InstanceDescriptor
	var aux struct {
		plain
		// Registries written by older releases spell the flag "noTimstamps".
		LegacyNoTimestamps bool `json:"noTimstamps"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*d = InstanceDescriptor(aux.plain)
	d.NoTimestamps = d.NoTimestamps || aux.LegacyNoTimestamps
	return nil
}

// LoadRegistry reads the registry at path. Comments and trailing commas are
// accepted since the file is edited by hand.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{File: path, Err: err}
	}

	var reg Registry
	if err := json.Unmarshal(jsonc.ToJSON(data), &reg); err != nil {
		return nil, &ConfigError{File: path, Field: jsonErrorField(err), Err: err}
	}
	reg.Path = path

	if err := reg.validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *Registry) validate() error {
	if len(r.Instances) == 0 {
		return &ConfigError{File: r.Path, Field: "instances", Err: ErrNoInstances}
	}

	seen := make(map[string]struct{}, len(r.Instances))
	for i, inst := range r.Instances {
		field := fmt.Sprintf("instances[%d]", i)
		if strings.TrimSpace(inst.Name) == "" {
			return &ConfigError{File: r.Path, Field: field + ".name", Err: errors.New("name is required")}
		}
		if strings.TrimSpace(inst.Path) == "" {
			return &ConfigError{File: r.Path, Field: field + ".path", Err: errors.New("path is required")}
		}
		if _, dup := seen[inst.Name]; dup {
			return &ConfigError{File: r.Path, Field: field + ".name", Err: fmt.Errorf("duplicate instance name %q", inst.Name)}
		}
		seen[inst.Name] = struct{}{}
	}

	if r.Auth != "" && !slices.Contains(constants.AllowedAuthModes, r.Auth) {
		return &ConfigError{File: r.Path, Field: "auth", Err: fmt.Errorf("unsupported auth mode %q", r.Auth)}
	}
	return nil
}

// Lookup returns the descriptor called name, or the first descriptor when
// name is empty. An unknown name never falls back to another instance.
func (r *Registry) Lookup(name string) (InstanceDescriptor, error) {
	if name == "" {
		return r.Instances[0], nil
	}
	for _, inst := range r.Instances {
		if inst.Name == name {
			return inst, nil
		}
	}
	return InstanceDescriptor{}, InstanceNotFoundError{Name: name, Registry: r.Path}
}

// applyShared overrides the network settings every multimode instance
// inherits from the registry.
func (r *Registry) applyShared(ui *UIConfig) {
	ui.Port = r.Port
	if ui.Port == 0 {
		ui.Port = DefaultPort
	}
	ui.Auth = r.Auth
	if ui.Auth == "" {
		ui.Auth = DefaultAuth
	}
	ui.Host = r.Host
	ui.Debug = r.Debug
	ui.ProxyHost = r.ProxyHost
	ui.SSL = nil
	if r.SSL != nil {
		ssl := *r.SSL
		ui.SSL = &ssl
	}
}
