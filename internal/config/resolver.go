package config

import "sync/atomic"

// Resolver owns the active InstanceConfig. Readers take the current snapshot
// with Current; ChangeInstance publishes a complete replacement. Concurrent
// ChangeInstance calls must be serialised by the caller.
type Resolver struct {
	env     Environment
	current atomic.Pointer[InstanceConfig]
}

// NewResolver resolves the default instance for env.
func NewResolver(env Environment) (*Resolver, error) {
	return NewResolverFor(env, "")
}

// NewResolverFor resolves instance directly, without touching any other
// registry entry. An empty instance selects the default.
func NewResolverFor(env Environment, instance string) (*Resolver, error) {
	cfg, err := Resolve(env, instance)
	if err != nil {
		return nil, err
	}
	r := &Resolver{env: env}
	r.current.Store(cfg)
	return r, nil
}

// Current returns the active snapshot.
func (r *Resolver) Current() *InstanceConfig {
	return r.current.Load()
}

// ChangeInstance re-runs the full resolution for name and makes the result
// active. On error the previous snapshot stays active.
func (r *Resolver) ChangeInstance(name string) (*InstanceConfig, error) {
	if r.env.Multimode == "" {
		return nil, ErrNotMultimode
	}
	cfg, err := Resolve(r.env, name)
	if err != nil {
		return nil, err
	}
	r.current.Store(cfg)
	return cfg, nil
}

// Reload resolves the active instance again, picking up on-disk changes.
func (r *Resolver) Reload() (*InstanceConfig, error) {
	cfg, err := Resolve(r.env, r.Current().Instance)
	if err != nil {
		return nil, err
	}
	r.current.Store(cfg)
	return cfg, nil
}

// Instances returns the registry descriptors in order.
func (r *Resolver) Instances() ([]InstanceDescriptor, error) {
	if r.env.Multimode == "" {
		return nil, ErrNotMultimode
	}
	reg, err := LoadRegistry(RegistryPath(r.env))
	if err != nil {
		return nil, err
	}
	return append([]InstanceDescriptor(nil), reg.Instances...), nil
}
