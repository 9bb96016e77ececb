// Package envpath appends directories to the persistent Windows PATH.
package envpath

import (
	"strings"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/errs"
)

// Separator of the stored PATH value.
const Separator = ";"

// Scope selects the user or the machine environment.
type Scope int

const (
	ScopeUser Scope = iota
	ScopeMachine
)

func (s Scope) String() string {
	if s == ScopeMachine {
		return "machine"
	}
	return "user"
}

// Store reads and writes the persistent PATH of a scope.
type Store interface {
	Read(scope Scope) (string, error)
	Write(scope Scope, value string) error
	// Broadcast tells running programs the environment changed.
	Broadcast() error
}

// Split breaks a PATH value into its non-empty entries.
func Split(value string) []string {
	var out []string
	for _, p := range strings.Split(value, Separator) {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// AddPaths appends the entries of paths missing from existing. Entries match
// exactly, case included. When nothing is added existing is returned as is.
func AddPaths(existing string, paths []string) (string, []string) {
	entries := Split(existing)
	have := make(map[string]bool, len(entries))
	for _, e := range entries {
		have[e] = true
	}
	var added []string
	for _, p := range paths {
		if strings.TrimSpace(p) == "" || have[p] {
			continue
		}
		have[p] = true
		added = append(added, p)
	}
	if len(added) == 0 {
		return existing, nil
	}
	return strings.Join(append(entries, added...), Separator), added
}

// Result describes one PATH update.
type Result struct {
	Scope          Scope
	Added          []string
	AlreadyPresent bool
}

// Configurator writes PATH in the widest scope the process may change.
type Configurator struct {
	Store    Store
	Elevated bool
	Log      *log.Logger
}

// Apply adds paths to the machine PATH when elevated, otherwise to the user
// PATH. A denied machine write falls back to the user scope.
func (c *Configurator) Apply(paths []string) (Result, error) {
	scope := ScopeUser
	if c.Elevated {
		scope = ScopeMachine
	}
	res, err := c.apply(scope, paths)
	if err != nil && scope == ScopeMachine && errors.Is(err, errs.ErrPermissionDenied) {
		c.warn("machine PATH not writable, using user PATH", "err", err)
		res, err = c.apply(ScopeUser, paths)
	}
	if err != nil || res.AlreadyPresent {
		return res, err
	}
	if berr := c.Store.Broadcast(); berr != nil {
		c.warn("environment change broadcast failed", "err", berr)
	}
	return res, nil
}

func (c *Configurator) apply(scope Scope, paths []string) (Result, error) {
	res := Result{Scope: scope}
	current, err := c.Store.Read(scope)
	if err != nil {
		return res, errors.Wrapf(err, "read %s PATH", scope)
	}
	value, added := AddPaths(current, paths)
	if len(added) == 0 {
		res.AlreadyPresent = true
		return res, nil
	}
	if err := c.Store.Write(scope, value); err != nil {
		return res, errors.Wrapf(err, "write %s PATH", scope)
	}
	res.Added = added
	if c.Log != nil {
		c.Log.Info("PATH updated", "scope", scope, "added", added)
	}
	return res, nil
}

func (c *Configurator) warn(msg string, kv ...any) {
	if c.Log != nil {
		c.Log.Warn(msg, kv...)
	}
}
