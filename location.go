// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwarfpc

import (
	"debug/dwarf"
	"fmt"
	"io"
	"sort"
)

// Location is a source position: a file path, a 1-based line number,
// and a column. Column is 0 when the line table doesn't carry column
// information for the row.
type Location struct {
	File   string
	Line   int
	Column int
}

// FindLocation resolves pc to the source location of the line-table
// row that covers it: the compilation unit containing pc, the
// sequence within that unit's line-number program containing pc, and
// the last row in that sequence whose address is no greater than pc.
//
// It reports false, not an error, when pc isn't covered by any known
// compilation unit or sequence -- this is routine for addresses
// outside the program's own code (PLT stubs, the dynamic linker,
// JIT-generated code) and callers shouldn't need to distinguish it
// from other forms of "no information."
func (l *Light) FindLocation(pc uint64) (Location, bool, error) {
	unit, ok := l.unitFor(pc)
	if !ok {
		return Location{}, false, nil
	}
	seq, ok := unit.sequenceFor(pc)
	if !ok {
		return Location{}, false, nil
	}

	lr, err := l.dw.LineReader(unit.entry)
	if err != nil {
		return Location{}, false, fmt.Errorf("decoding line table header: %w", err)
	}

	n := sort.Search(len(seq.waypoints), func(i int) bool {
		return seq.waypoints[i].pc > pc
	}) - 1
	if n < 0 {
		n = 0
	}
	lr.Seek(seq.waypoints[n].pos)

	var line, last dwarf.LineEntry
	var haveLast bool
	for {
		if err := lr.Next(&line); err != nil {
			if err == io.EOF {
				break
			}
			return Location{}, false, fmt.Errorf("reading line table: %w", err)
		}
		if line.EndSequence || line.Address > pc {
			break
		}
		last, haveLast = line, true
	}
	if !haveLast {
		return Location{}, false, nil
	}

	return Location{
		File:   fileName(last.File),
		Line:   last.Line,
		Column: last.Column,
	}, true, nil
}
