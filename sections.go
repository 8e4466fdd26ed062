// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dwarfpc resolves a program-counter value within a loaded
// object file into source-level debugging information: the chain of
// inlined frames active at that PC, the symbolic function name for
// each frame, the source file/line/column, and the stack variables in
// scope.
//
// It consumes a flat view of an object file's DWARF debug sections
// (dwarfpc does not itself parse ELF/Mach-O/PE containers -- see
// Sections) and builds the indexing structures described by a Light
// and, optionally, a Full Context.
package dwarfpc

import (
	"debug/dwarf"
	"encoding/binary"
	"fmt"
)

// ByteOrder is the endianness of an object file's sections.
type ByteOrder = binary.ByteOrder

// Sections is a read-only view of an object file's DWARF debug
// sections, named the way the DWARF standard names them (without a
// leading ".debug_" or "__debug_" container-format prefix). A caller
// that has already parsed the container format (ELF, Mach-O, PE, ...)
// supplies this; dwarfpc never parses a container itself.
//
// Any section the caller doesn't have should be left as a nil slice
// rather than omitted -- the zero value of Sections is a valid, if
// useless, view with every section empty.
type Sections struct {
	Abbrev []byte // .debug_abbrev
	Info   []byte // .debug_info
	Line   []byte // .debug_line
	Ranges []byte // .debug_ranges (DWARF <=4); .debug_rnglists is not read
	Str    []byte // .debug_str
	Loc    []byte // .debug_loc (DWARF <=4)

	// Order is the byte order of every section above.
	Order ByteOrder

	// AddrSize is the native address size of the object, in bytes
	// (4 or 8). It's used to decode the loc section, which (unlike
	// the sections the standard library already parses) carries no
	// self-describing address size.
	AddrSize int
}

// openDWARF builds a *dwarf.Data from s, the same way an object-file
// parser's DWARF() method would. Byte order is sniffed by the
// standard library itself from the .debug_info header, so s.Order is
// only consulted by dwarfpc's own loc-list decoding.
func (s Sections) openDWARF() (*dwarf.Data, error) {
	dw, err := dwarf.New(s.Abbrev, nil, nil, s.Info, s.Line, nil, s.Ranges, s.Str)
	if err != nil {
		return nil, fmt.Errorf("decoding DWARF sections: %w", err)
	}
	return dw, nil
}
