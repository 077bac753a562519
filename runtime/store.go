// store.go — the mapping (Process, Var) -> Value, spec.md §3/§4.1.
//
// Reads distinguish "absent" from any stored value by way of the second
// return; writes overwrite unconditionally. There is no delete operation —
// the language has no use for one.
package runtime

// storeKey is the internal composite key; process and var never contain the
// separator a caller could use to forge a collision because they come from
// the lexer's identifier rule, but we keep the struct form anyway so nothing
// downstream can get that assumption wrong by accident.
type storeKey struct {
	Process string
	Var     string
}

// Store owns the full (process, var) -> Value mapping for one simulator run.
type Store struct {
	vals map[storeKey]Value
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{vals: make(map[storeKey]Value)}
}

// Get returns the value stored for (process, var), and whether it was
// present at all. A missing entry is distinct from any storable value.
func (s *Store) Get(process, v string) (Value, bool) {
	val, ok := s.vals[storeKey{process, v}]
	return val, ok
}

// Set writes (process, var) := v, overwriting any previous value.
func (s *Store) Set(process, v string, val Value) {
	s.vals[storeKey{process, v}] = val
}

// Snapshot returns a flat copy of the store's contents, keyed by
// "process.var", for reporting and JSON emission. Iteration order over a Go
// map is unspecified, so callers that need a stable order must sort the
// returned keys themselves.
func (s *Store) Snapshot() map[string]Value {
	out := make(map[string]Value, len(s.vals))
	for k, v := range s.vals {
		out[k.Process+"."+k.Var] = v
	}
	return out
}
