//go:build !windows

package envpath

import (
	"github.com/cockroachdb/errors"
)

var errUnsupported = errors.WithHint(
	errors.New("persistent PATH is stored in the Windows registry"),
	"add the directories to your shell profile instead",
)

// RegistryStore is unavailable off Windows.
type RegistryStore struct{}

func NewSystemStore() Store { return RegistryStore{} }

func (RegistryStore) Read(Scope) (string, error) { return "", errUnsupported }

func (RegistryStore) Write(Scope, string) error { return errUnsupported }

func (RegistryStore) Broadcast() error { return nil }

func IsElevated() bool { return false }
