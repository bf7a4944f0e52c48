// Copyright (c) 2025 ChatDB
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain provides centralized, thread-safe keychain operations for chatdb.
// This module manages all interactions with the OS keychain/credential store,
// providing a unified interface for storing and retrieving database credentials.
//
// The package supports multiple operating systems including macOS Keychain and
// Windows Credential Manager, with thread-safe operations and proper error handling.
package keychain

import (
	"errors"
	"runtime"
	"sync"

	"github.com/99designs/keyring"
)

// Global keychain manager instance
var (
	globalManager *Manager
	globalError   error
	mu            sync.Mutex
)

// Manager provides centralized, thread-safe operations for the OS keychain.
type Manager struct {
	mu      sync.RWMutex
	ring    keyring.Keyring
	backend keychainBackend
}

// keychainBackend defines the interface for keychain operations.
type keychainBackend interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "chatdb"

// Keys used for storing secrets in the OS keychain.
const (
	KeyDBPassword = "db_password"
	KeyDBDSN      = "db_dsn"
)

// NewManager creates a new keychain manager with the OS keyring initialized.
func NewManager() (*Manager, error) {
	// Try native security backend first on macOS
	if runtime.GOOS == "darwin" {
		backend, err := newSecurityBackend()
		if err == nil {
			return &Manager{backend: backend}, nil
		}
		// Fall through to keyring library if security command fails
	}

	ring, err := openRing()
	if err != nil {
		return nil, err
	}

	return &Manager{
		ring: ring,
	}, nil
}

// GetManager returns the global keychain manager instance.
// If not initialized, it will be created on first call.
// If initialization fails, it will retry on subsequent calls.
func GetManager() (*Manager, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalManager != nil {
		return globalManager, nil
	}

	globalManager, globalError = NewManager()
	if globalError != nil {
		return nil, globalError
	}

	return globalManager, nil
}

// openRing opens the OS keyring using native platform backends only.
// Forces use of macOS Keychain or Windows Credential Manager - no file fallback.
func openRing() (keyring.Keyring, error) {
	if runtime.GOOS != "darwin" && runtime.GOOS != "windows" {
		return nil, errors.New("secure storage not supported on this OS (macOS/Windows only)")
	}

	var allowedBackends []keyring.BackendType
	if runtime.GOOS == "darwin" {
		// Try macOS Keychain first, then pass (password store) as fallback
		// Pass requires 'pass' utility installed: brew install pass
		allowedBackends = []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.PassBackend,
		}
	} else if runtime.GOOS == "windows" {
		allowedBackends = []keyring.BackendType{keyring.WinCredBackend}
	}

	cfg := keyring.Config{
		ServiceName:     ServiceName,
		AllowedBackends: allowedBackends,
		PassPrefix:      ServiceName,
	}

	// Hint prefixes where supported to minimize namespace collisions
	if runtime.GOOS == "windows" {
		cfg.WinCredPrefix = ServiceName
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		if runtime.GOOS == "darwin" {
			return nil, errors.New("macOS Keychain unavailable. On macOS 26.0+, install 'pass': brew install pass gnupg && gpg --generate-key && pass init <gpg-key-id>")
		}
		return nil, err
	}

	return ring, nil
}

// SaveDBPassword stores the database password in the keychain.
// This method is thread-safe.
func (m *Manager) SaveDBPassword(password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.backend != nil {
		return m.backend.Set(KeyDBPassword, password)
	}

	return m.ring.Set(keyring.Item{Key: KeyDBPassword, Data: []byte(password)})
}

// LoadDBPassword retrieves the database password from the keychain.
// This method is thread-safe.
func (m *Manager) LoadDBPassword() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.backend != nil {
		return m.backend.Get(KeyDBPassword)
	}

	it, err := m.ring.Get(KeyDBPassword)
	if err != nil {
		return "", err
	}
	return string(it.Data), nil
}

// SaveDBDSN stores the database DSN in the keychain.
// This method is thread-safe.
func (m *Manager) SaveDBDSN(dsn string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.backend != nil {
		return m.backend.Set(KeyDBDSN, dsn)
	}

	return m.ring.Set(keyring.Item{Key: KeyDBDSN, Data: []byte(dsn)})
}

// LoadDBDSN retrieves the database DSN from the keychain.
// This method is thread-safe.
func (m *Manager) LoadDBDSN() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.backend != nil {
		return m.backend.Get(KeyDBDSN)
	}

	it, err := m.ring.Get(KeyDBDSN)
	if err != nil {
		return "", err
	}
	return string(it.Data), nil
}

// ClearDB removes DB-related secrets from the keychain.
// This method is thread-safe.
func (m *Manager) ClearDB() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.backend != nil {
		_ = m.backend.Delete(KeyDBPassword)
		_ = m.backend.Delete(KeyDBDSN)
		return nil
	}

	_ = m.ring.Remove(KeyDBPassword)
	_ = m.ring.Remove(KeyDBDSN)
	return nil
}
