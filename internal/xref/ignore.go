package xref

// IgnoreSet is a fixed set of module names treated as side-effect-free.
// It is consulted at render time only; extraction captures all calls so a
// different ignore configuration needs no re-extraction.
type IgnoreSet map[string]struct{}

// NewIgnoreSet builds an IgnoreSet from module names.
func NewIgnoreSet(names ...string) IgnoreSet {
	s := make(IgnoreSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Contains reports whether the module is ignored.
func (s IgnoreSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// DefaultIgnore lists standard library modules whose calls carry no
// architectural information. The set is compiled in; runtime configuration
// is out of scope.
var DefaultIgnore = NewIgnoreSet(
	"erlang",
	"lists",
	"maps",
	"proplists",
	"string",
	"binary",
	"math",
	"ordsets",
	"orddict",
	"sets",
	"dict",
	"queue",
	"array",
	"re",
	"unicode",
	"io_lib",
)
