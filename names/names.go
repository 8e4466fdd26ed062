// Package names provides a prefix index over the resolved display
// names of every subprogram in a Full Context.
//
// This is the complement of the PC-keyed lookups the core resolver
// provides: given a partial function name (as a user might type at a
// breakpoint prompt), find the candidate functions it could refer to.
// It's built on github.com/derekparker/trie, the same structure
// go-delve/delve uses for interactive command-name completion,
// repurposed here for symbol names instead of command names.
package names

import (
	"github.com/derekparker/trie"
)

// Ref identifies a subprogram by its position in a Full Context: the
// compilation unit index and the subprogram DIE's offset within the
// .debug_info section.
type Ref struct {
	CUIndex   int
	DIEOffset int64
}

// Index supports prefix lookup of function display names.
type Index struct {
	t     *trie.Trie
	exact map[string][]Ref
}

// Entry is one name/ref pair to seed an Index with.
type Entry struct {
	Name string
	Ref  Ref
}

// NewIndex builds an Index from name/ref pairs. The same name may be
// added more than once (distinct functions can share a display name,
// e.g. across translation units for a static function); all matching
// refs are kept.
func NewIndex(entries []Entry) *Index {
	idx := &Index{t: trie.New(), exact: make(map[string][]Ref)}
	for _, e := range entries {
		idx.Add(e.Name, e.Ref)
	}
	return idx
}

// Add inserts one more (name, ref) pair into the index.
func (idx *Index) Add(name string, ref Ref) {
	if _, ok := idx.exact[name]; !ok {
		idx.t.Add(name, nil)
	}
	idx.exact[name] = append(idx.exact[name], ref)
}

// Lookup returns every ref registered under the exact name.
func (idx *Index) Lookup(name string) []Ref {
	return idx.exact[name]
}

// PrefixSearch returns every distinct name in the index with the
// given prefix.
func (idx *Index) PrefixSearch(prefix string) []string {
	return idx.t.PrefixSearch(prefix)
}

// Refs returns every ref for every name with the given prefix, in no
// particular order.
func (idx *Index) Refs(prefix string) []Ref {
	var out []Ref
	for _, name := range idx.PrefixSearch(prefix) {
		out = append(out, idx.exact[name]...)
	}
	return out
}
