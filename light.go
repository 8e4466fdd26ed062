// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwarfpc

import (
	"debug/dwarf"
	"fmt"
	"io"
	"sort"

	"github.com/dwarfpc/dwarfpc/demangle"
)

// LanguageCode is a DWARF DW_LANG_* constant, as found in a
// compilation unit's DW_AT_language attribute.
type LanguageCode = demangle.LanguageCode

// lineWaypoint is a sampled position in a sequence's line-number
// program, used to bound the cost of seeking to an arbitrary pc
// within the sequence to a short forward scan instead of a scan from
// the sequence's first row. Grounded on dbg/lines.go's lineTableCache
// waypoint scheme, sampled per sequence instead of across the whole
// line table.
type lineWaypoint struct {
	pc  uint64
	pos dwarf.LineReaderPos
}

const waypointFreq = 32

// lineSequence is one DWARF line-number program sequence: a
// contiguous run of rows in strictly increasing address order,
// terminated by an end-sequence marker. DWARF permits a CU's sequences
// to appear out of address order in the section, so unitInfo keeps
// them pre-sorted.
type lineSequence struct {
	Range     Range
	waypoints []lineWaypoint
}

// unitInfo is the per-compilation-unit state a Light context holds:
// everything the Location Resolver and Function Index Builder need
// that isn't worth re-deriving from the DIE tree on every query.
type unitInfo struct {
	entry    *dwarf.Entry
	offset   dwarf.Offset
	compDir  string
	name     string
	language LanguageCode
	baseAddr uint64
	hasBase  bool

	ranges    []Range
	sequences []lineSequence
	files     []*dwarf.LineFile
}

type unitRangeEntry struct {
	Range Range
	unit  *unitInfo
}

// Light is a Light Context: an index of a single object's
// compilation units and their address ranges, built without walking
// into any subprogram's children. It's cheap to build and enough to
// answer "what file and line is this pc in," but not enough to
// recover inline frames or stack variables -- for that, see
// (*Light).ParseFunctions.
//
// A Light is immutable after construction and safe for concurrent use
// by multiple goroutines, provided each goroutine uses its own
// iterators (line readers, DIE readers) rather than sharing them.
type Light struct {
	dw       *dwarf.Data
	sections Sections
	cfg      config

	units []*unitInfo

	// unitRanges is sorted ascending by Range.Begin and, per DWARF's
	// guarantee that a CU's address ranges don't overlap another CU's,
	// disjoint. A binary search over it is the first step of every
	// pc-based query.
	unitRanges []unitRangeEntry
}

// NewLight builds a Light Context from an object's DWARF sections.
func NewLight(sections Sections, opts ...Option) (*Light, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	dw, err := sections.openDWARF()
	if err != nil {
		return nil, err
	}

	l := &Light{dw: dw, sections: sections, cfg: cfg}
	if err := l.indexUnits(); err != nil {
		return nil, err
	}
	return l, nil
}

// indexUnits walks the top-level DIE of every compilation unit,
// building unitInfo for each one that carries the attributes a
// Light Context needs. A CU missing any of them is skipped
// entirely: it contributes no ranges and is invisible to every query
// this package offers, the same way an inline-only subprogram
// contributes no ranges of its own.
func (l *Light) indexUnits() error {
	dr := l.dw.Reader()
	for {
		ent, err := dr.Next()
		if err != nil {
			return fmt.Errorf("reading compilation unit: %w", err)
		}
		if ent == nil {
			break
		}
		dr.SkipChildren()

		if ent.Tag != dwarf.TagCompileUnit {
			continue
		}

		unit, ok, err := l.buildUnit(ent)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		l.units = append(l.units, unit)
		for _, r := range unit.ranges {
			l.unitRanges = append(l.unitRanges, unitRangeEntry{r, unit})
		}
	}

	sort.Slice(l.unitRanges, func(i, j int) bool {
		return l.unitRanges[i].Range.Begin < l.unitRanges[j].Range.Begin
	})
	for i := 1; i < len(l.unitRanges); i++ {
		if l.unitRanges[i-1].Range.End > l.unitRanges[i].Range.Begin {
			l.cfg.logger.Warnf("dwarfpc: overlapping compilation unit ranges at %#x; DWARF guarantees these are disjoint, trusting the earlier one", l.unitRanges[i].Range.Begin)
		}
	}
	return nil
}

func (l *Light) buildUnit(ent *dwarf.Entry) (*unitInfo, bool, error) {
	if ent.Val(dwarf.AttrStmtList) == nil {
		l.cfg.logger.Debugf("dwarfpc: skipping compilation unit at %#x: no DW_AT_stmt_list", ent.Offset)
		return nil, false, nil
	}
	if ent.Val(dwarf.AttrLowpc) == nil {
		l.cfg.logger.Debugf("dwarfpc: skipping compilation unit at %#x: no DW_AT_low_pc", ent.Offset)
		return nil, false, nil
	}
	langVal := ent.Val(dwarf.AttrLanguage)
	if langVal == nil {
		l.cfg.logger.Debugf("dwarfpc: skipping compilation unit at %#x: no DW_AT_language", ent.Offset)
		return nil, false, nil
	}

	lang, ok := langVal.(int64)
	if !ok {
		return nil, false, fmt.Errorf("compilation unit at %#x: DW_AT_language has unexpected type %T", ent.Offset, langVal)
	}

	unit := &unitInfo{
		entry:    ent,
		offset:   ent.Offset,
		language: LanguageCode(lang),
	}
	if v, ok := ent.Val(dwarf.AttrCompDir).(string); ok {
		unit.compDir = v
	}
	if v, ok := ent.Val(dwarf.AttrName).(string); ok {
		unit.name = v
	}
	if v, ok := ent.Val(dwarf.AttrLowpc).(uint64); ok {
		unit.baseAddr = v
		unit.hasBase = true
	}

	ranges, err := entryRanges(l.dw, ent)
	if err != nil && err != ErrNoRangeInformation {
		return nil, false, fmt.Errorf("decoding compilation unit ranges: %w", err)
	}
	unit.ranges = ranges

	if len(unit.ranges) == 0 {
		l.cfg.logger.Debugf("dwarfpc: skipping compilation unit at %#x: no usable ranges", ent.Offset)
		return nil, false, nil
	}

	if err := l.buildLineTable(unit); err != nil {
		return nil, false, fmt.Errorf("decoding line table for compilation unit at %#x: %w", ent.Offset, err)
	}

	return unit, true, nil
}

// buildLineTable decomposes unit's line-number program into sequences
// sorted ascending by start address, each with its own sampled
// waypoints for fast seeking. Grounded on dbg/lines.go's
// lineTableCache.ensure, restructured around explicit per-sequence
// boundaries instead of one table-wide waypoint list, to
// match the two-level (sequence, then row) search the resolver does.
func (l *Light) buildLineTable(unit *unitInfo) error {
	lr, err := l.dw.LineReader(unit.entry)
	if err != nil {
		return fmt.Errorf("decoding line table header: %w", err)
	}
	if lr == nil {
		// dw.LineReader returns nil, nil for a CU with no line table.
		// We already required DW_AT_stmt_list to reach here, but a
		// unit whose stmt_list points at an empty table is legal.
		return nil
	}

	var cur *lineSequence
	var line dwarf.LineEntry
	rowsSinceWaypoint := waypointFreq
	for {
		pos := lr.Tell()
		if err := lr.Next(&line); err != nil {
			if err == io.EOF {
				break
			}
			return err
		}

		if cur == nil {
			cur = &lineSequence{Range: Range{Begin: line.Address}}
			rowsSinceWaypoint = waypointFreq
		}

		if rowsSinceWaypoint >= waypointFreq {
			cur.waypoints = append(cur.waypoints, lineWaypoint{line.Address, pos})
			rowsSinceWaypoint = 0
		}
		rowsSinceWaypoint++

		if line.EndSequence {
			cur.Range.End = line.Address
			if !cur.Range.empty() {
				unit.sequences = append(unit.sequences, *cur)
			}
			cur = nil
		}
	}

	sort.Slice(unit.sequences, func(i, j int) bool {
		return unit.sequences[i].Range.Begin < unit.sequences[j].Range.Begin
	})
	unit.files = lr.Files()
	return nil
}

// unitFor returns the unit whose range covers addr, if any.
func (l *Light) unitFor(addr uint64) (*unitInfo, bool) {
	i := sort.Search(len(l.unitRanges), func(i int) bool {
		return l.unitRanges[i].Range.End > addr
	})
	if i >= len(l.unitRanges) || !l.unitRanges[i].Range.Contains(addr) {
		return nil, false
	}
	return l.unitRanges[i].unit, true
}

// sequenceFor returns the line-table sequence within unit that covers
// addr, if any.
func (u *unitInfo) sequenceFor(addr uint64) (*lineSequence, bool) {
	seqs := u.sequences
	i := sort.Search(len(seqs), func(i int) bool {
		return seqs[i].Range.End > addr
	})
	if i >= len(seqs) || !seqs[i].Range.Contains(addr) {
		return nil, false
	}
	return &seqs[i], true
}

// fileName returns the already-composed (comp_dir + directory +
// filename) path for a dwarf.LineFile, or "" for a nil file.
// dwarf.LineFile.Name is pre-joined by the standard library's line
// table reader, so there's no path composition left to do here.
func fileName(f *dwarf.LineFile) string {
	if f == nil {
		return ""
	}
	return f.Name
}
