// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwarfpc

import "debug/dwarf"

// Range is a half-open program-counter interval [Begin, End).
type Range struct {
	Begin, End uint64
}

// Contains reports whether pc falls within r.
func (r Range) Contains(pc uint64) bool {
	return r.Begin <= pc && pc < r.End
}

func (r Range) empty() bool {
	return r.End <= r.Begin
}

// entryRanges is the range iterator adapter: it turns a DIE's range
// attributes (DW_AT_ranges, or the DW_AT_low_pc/DW_AT_high_pc pair)
// into a list of Ranges, the way dwarf.Data.Ranges already does for
// us, distinguishing "this DIE carries no range information at all"
// (ErrNoRangeInformation) from "this DIE's ranges decode to an empty
// list" (a valid outcome for, e.g., a DIE whose every listed range is
// zero-length).
//
// Zero-length ranges within the list (low_pc == high_pc, or an
// .debug_ranges entry with equal bounds) are dropped: they carry no
// addresses and would otherwise poison range-based indexes built on
// top of this.
func entryRanges(dw *dwarf.Data, ent *dwarf.Entry) ([]Range, error) {
	if ent.AttrField(dwarf.AttrRanges) == nil &&
		(ent.AttrField(dwarf.AttrLowpc) == nil || ent.AttrField(dwarf.AttrHighpc) == nil) {
		return nil, ErrNoRangeInformation
	}
	raw, err := dw.Ranges(ent)
	if err != nil {
		return nil, err
	}
	out := make([]Range, 0, len(raw))
	for _, r := range raw {
		rg := Range{r[0], r[1]}
		if !rg.empty() {
			out = append(out, rg)
		}
	}
	return out, nil
}
