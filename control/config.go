// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Thread-safe configuration store with dynamic update and hot-reload propagation.

package control

import (
	"sync"
	"time"
)

// LaunchConfig holds the subset of a Chromium launch/session configuration
// that can be inspected or hot-reloaded at runtime.
type LaunchConfig struct {
	DebuggingPort     int
	Headless          bool
	ChromePath        string
	ReconnectMaxDelay time.Duration
}

// ConfigStore holds one LaunchConfig snapshot with atomic read/write access
// and listener support. Adapted from the reference's generic map[string]any
// store: cdp-launch's runtime-reloadable settings are a fixed, known shape,
// so a typed snapshot catches a misspelled field at compile time instead of
// leaving it silently missing from a map.
type ConfigStore struct {
	mu        sync.RWMutex
	config    LaunchConfig
	listeners []func()
}

// NewConfigStore initializes a new config store with a zero-value LaunchConfig.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{listeners: make([]func(), 0)}
}

// GetSnapshot returns a copy of the current config.
func (cs *ConfigStore) GetSnapshot() LaunchConfig {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.config
}

// SetConfig replaces the stored config and dispatches reload listeners.
func (cs *ConfigStore) SetConfig(newCfg LaunchConfig) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.config = newCfg
	cs.dispatchReload()
}

// OnReload registers a listener hook called on config changes.
func (cs *ConfigStore) OnReload(fn func()) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}

// dispatchReload invokes all listeners.
func (cs *ConfigStore) dispatchReload() {
	for _, fn := range cs.listeners {
		go fn()
	}
}
