package platform

import (
	"sort"
	"strings"
	"sync"

	apperrors "github.com/tordrt/schemasync/internal/errors"
)

// Constructor builds the capability record of one dialect
type Constructor func() *Info

// Registry maps dialect names to their capability records.
// Instances are built on first lookup and cached.
type Registry struct {
	mu           sync.Mutex
	constructors map[string]Constructor
	cache        map[string]*Info
}

// NewRegistry returns a registry holding every built-in dialect
func NewRegistry() *Registry {
	return &Registry{
		constructors: map[string]Constructor{
			"sql92":       sql92,
			"axion":       axion,
			"cloudscape":  func() *Info { return derby("cloudscape") },
			"db2":         func() *Info { return db2("db2") },
			"db2v8":       func() *Info { return db2v8() },
			"derby":       func() *Info { return derby("derby") },
			"firebird":    func() *Info { return firebird("firebird") },
			"h2":          h2,
			"hsqldb":      hsqldb,
			"interbase":   interbase,
			"maxdb":       func() *Info { return maxdb("maxdb") },
			"sapdb":       func() *Info { return maxdb("sapdb") },
			"mckoi":       mckoi,
			"mssql":       mssql,
			"mysql":       func() *Info { return mysql("mysql") },
			"mysql5":      func() *Info { return mysql("mysql5") },
			"mariadb":     func() *Info { return mysql("mariadb") },
			"oracle8":     func() *Info { return oracle("oracle8", false) },
			"oracle9":     func() *Info { return oracle("oracle9", true) },
			"oracle10":    func() *Info { return oracle("oracle10", true) },
			"postgresql":  postgresql,
			"sqlite":      sqlite,
			"sybase":      func() *Info { return sybase("sybase", false) },
			"sybasease15": func() *Info { return sybase("sybasease15", true) },
		},
		cache: make(map[string]*Info),
	}
}

func db2v8() *Info {
	i := db2("db2v8")
	i.setLimits(128, 128, 128, 128)
	return i
}

// Register adds or replaces a dialect constructor
func (r *Registry) Register(name string, c Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := strings.ToLower(name)
	r.constructors[key] = c
	delete(r.cache, key)
}

// Lookup returns the capability record for a dialect name, case-insensitively
func (r *Registry) Lookup(name string) (*Info, error) {
	key := strings.ToLower(strings.TrimSpace(name))

	r.mu.Lock()
	defer r.mu.Unlock()

	if info, ok := r.cache[key]; ok {
		return info, nil
	}
	c, ok := r.constructors[key]
	if !ok {
		err := apperrors.NewUnsupported(name, "schema operations")
		err.Reason = "unknown dialect"
		return nil, err
	}
	info := c()
	r.cache[key] = info
	return info, nil
}

// MustLookup is Lookup for built-in names; it panics on unknown dialects
func (r *Registry) MustLookup(name string) *Info {
	info, err := r.Lookup(name)
	if err != nil {
		panic(err)
	}
	return info
}

// Names returns all registered dialect names, sorted
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
