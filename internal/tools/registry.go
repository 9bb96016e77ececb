package tools

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/sahilm/fuzzy"

	"github.com/SZPU-RoboMaster-Embedded-Team/install/internal/errs"
)

// Order is the fixed detection and install order.
var Order = []ToolKey{KeyMSYS2, KeyCMake, KeyMake, KeyOpenOCD, KeyArmGCC}

var builtins = map[ToolKey]func() ToolSpec{
	KeyMSYS2: func() ToolSpec {
		return ToolSpec{
			Key:         KeyMSYS2,
			DisplayName: "MSYS2",
			Package:     "MSYS2.MSYS2",
			Manager:     ManagerWinget,
			Aliases:     []string{"msys", "msys64"},
			BaseRuntime: true,
		}
	},
	KeyCMake: func() ToolSpec {
		return ToolSpec{
			Key:          KeyCMake,
			DisplayName:  "CMake",
			CheckCommand: "cmake --version",
			Package:      "cmake",
			Manager:      ManagerPacman,
		}
	},
	KeyMake: func() ToolSpec {
		return ToolSpec{
			Key:          KeyMake,
			DisplayName:  "Make",
			CheckCommand: "make --version",
			Package:      "make",
			Manager:      ManagerPacman,
			Aliases:      []string{"gnumake", "gmake"},
		}
	},
	KeyOpenOCD: func() ToolSpec {
		return ToolSpec{
			Key:           KeyOpenOCD,
			DisplayName:   "OpenOCD",
			CheckCommand:  "openocd --version",
			Package:       "mingw-w64-x86_64-openocd",
			Manager:       ManagerPacman,
			PreferRuntime: true,
		}
	},
	KeyArmGCC: func() ToolSpec {
		return ToolSpec{
			Key:           KeyArmGCC,
			DisplayName:   "ARM GCC (arm-none-eabi)",
			CheckCommand:  "arm-none-eabi-gcc --version",
			Package:       "mingw-w64-x86_64-arm-none-eabi-gcc",
			Manager:       ManagerPacman,
			Aliases:       []string{"arm-gcc", "armgcc", "arm-none-eabi-gcc", "gcc-arm"},
			PreferRuntime: true,
		}
	},
}

// Registry is an immutable, ordered tool table.
type Registry struct {
	specs []ToolSpec
	index map[ToolKey]int
}

// NewRegistry validates specs and keeps their order.
func NewRegistry(specs ...ToolSpec) (*Registry, error) {
	r := &Registry{index: make(map[ToolKey]int, len(specs))}
	bases := 0
	for _, s := range specs {
		if strings.TrimSpace(string(s.Key)) == "" {
			return nil, errors.New("tool spec without key")
		}
		if _, dup := r.index[s.Key]; dup {
			return nil, errors.Newf("duplicate tool key %q", s.Key)
		}
		if s.BaseRuntime {
			bases++
		}
		s.Aliases = append([]string(nil), s.Aliases...)
		r.index[s.Key] = len(r.specs)
		r.specs = append(r.specs, s)
	}
	if bases > 1 {
		return nil, errors.New("more than one base runtime in tool table")
	}
	return r, nil
}

// Default builds the built-in table in Order. packages overrides package
// names by tool key.
func Default(packages map[string]string) (*Registry, error) {
	specs := make([]ToolSpec, 0, len(Order))
	for _, k := range Order {
		s := builtins[k]()
		if p := strings.TrimSpace(packages[string(k)]); p != "" {
			s.Package = p
		}
		specs = append(specs, s)
	}
	for k := range packages {
		if _, ok := builtins[ToolKey(k)]; !ok {
			return nil, errors.WithHint(
				errs.NotFoundf("package override for unknown tool %q", k),
				"known tools: "+joinKeys(Order))
		}
	}
	return NewRegistry(specs...)
}

func (r *Registry) Lookup(key ToolKey) (ToolSpec, bool) {
	i, ok := r.index[key]
	if !ok {
		return ToolSpec{}, false
	}
	return r.specs[i], true
}

// All returns the specs in registry order.
func (r *Registry) All() []ToolSpec {
	out := make([]ToolSpec, len(r.specs))
	copy(out, r.specs)
	return out
}

// Base returns the base runtime spec, if the table has one.
func (r *Registry) Base() (ToolSpec, bool) {
	for _, s := range r.specs {
		if s.BaseRuntime {
			return s, true
		}
	}
	return ToolSpec{}, false
}

// Resolve maps a user-typed name to a tool key. Keys, display names and
// aliases match case-insensitively; unknown names get a fuzzy suggestion.
func (r *Registry) Resolve(name string) (ToolKey, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	names := make(map[string]ToolKey)
	for _, s := range r.specs {
		names[strings.ToLower(string(s.Key))] = s.Key
		names[strings.ToLower(s.DisplayName)] = s.Key
		for _, a := range s.Aliases {
			names[strings.ToLower(a)] = s.Key
		}
	}
	if k, ok := names[n]; ok {
		return k, nil
	}
	err := errs.NotFoundf("unknown tool %q", name)
	candidates := make([]string, 0, len(names))
	for c := range names {
		candidates = append(candidates, c)
	}
	sort.Strings(candidates)
	if matches := fuzzy.Find(n, candidates); len(matches) > 0 {
		return "", errors.WithHintf(err, "did you mean %q?", string(names[matches[0].Str]))
	}
	return "", errors.WithHint(err, "known tools: "+joinKeys(r.keys()))
}

func (r *Registry) keys() []ToolKey {
	out := make([]ToolKey, 0, len(r.specs))
	for _, s := range r.specs {
		out = append(out, s.Key)
	}
	return out
}

func joinKeys(keys []ToolKey) string {
	ss := make([]string, len(keys))
	for i, k := range keys {
		ss[i] = string(k)
	}
	return strings.Join(ss, ", ")
}
