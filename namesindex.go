// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwarfpc

import (
	"fmt"

	"github.com/dwarfpc/dwarfpc/names"
)

// NameIndex walks every compilation unit in f, resolves the display
// name of each top-level subprogram (the same name DisplayName would
// return for a Frame pointing at it), and returns a prefix-searchable
// names.Index over them. Only top-level subprograms with code ranges
// of their own are indexed: inlined-subroutine instances are not, and
// a function that exists only as inlined instances (its subprogram
// DIE has no ranges) does not appear in the index.
//
// The index is rebuilt from scratch on every call; a caller that
// queries repeatedly against an unchanging binary should build it
// once and hold onto the result.
func (f *Full) NameIndex() (*names.Index, error) {
	var entries []names.Entry
	for i, unit := range f.light.units {
		idx := f.cuIndex[unit]
		if err := idx.ensure(f.light.dw); err != nil {
			return nil, fmt.Errorf("indexing functions in unit at %#x: %w", unit.offset, err)
		}
		for _, sp := range idx.subprograms {
			fn := &Function{full: f, node: &funcNode{entry: sp.entry, unit: unit}}
			name := fn.DisplayName()
			if name == "" {
				continue
			}
			entries = append(entries, names.Entry{
				Name: name,
				Ref:  names.Ref{CUIndex: i, DIEOffset: int64(sp.entry.Offset)},
			})
		}
	}
	return names.NewIndex(entries), nil
}
