// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwarfpc

import (
	"debug/dwarf"
	"testing"
)

func TestUnitForFindsContainingUnit(t *testing.T) {
	u1 := &unitInfo{name: "a.c"}
	u2 := &unitInfo{name: "b.c"}
	l := &Light{
		unitRanges: []unitRangeEntry{
			{Range: Range{Begin: 0x1000, End: 0x1100}, unit: u1},
			{Range: Range{Begin: 0x2000, End: 0x2200}, unit: u2},
		},
	}

	if got, ok := l.unitFor(0x1050); !ok || got != u1 {
		t.Errorf("unitFor(0x1050) = %v, %v, want u1, true", got, ok)
	}
	if got, ok := l.unitFor(0x2100); !ok || got != u2 {
		t.Errorf("unitFor(0x2100) = %v, %v, want u2, true", got, ok)
	}
	if _, ok := l.unitFor(0x1100); ok {
		t.Error("unitFor(0x1100) reported a match, want false (end is exclusive)")
	}
	if _, ok := l.unitFor(0x1900); ok {
		t.Error("unitFor(0x1900) reported a match, want false (gap between units)")
	}
}

func TestUnitForEmpty(t *testing.T) {
	l := &Light{}
	if _, ok := l.unitFor(0x1000); ok {
		t.Error("unitFor on an empty Light reported a match")
	}
}

func TestSequenceForFindsContainingSequence(t *testing.T) {
	u := &unitInfo{
		sequences: []lineSequence{
			{Range: Range{Begin: 0x1000, End: 0x1050}},
			{Range: Range{Begin: 0x1100, End: 0x1200}},
		},
	}

	if seq, ok := u.sequenceFor(0x1020); !ok || seq.Range.Begin != 0x1000 {
		t.Errorf("sequenceFor(0x1020) = %v, %v, want the first sequence", seq, ok)
	}
	if seq, ok := u.sequenceFor(0x1150); !ok || seq.Range.Begin != 0x1100 {
		t.Errorf("sequenceFor(0x1150) = %v, %v, want the second sequence", seq, ok)
	}
	if _, ok := u.sequenceFor(0x1080); ok {
		t.Error("sequenceFor(0x1080) reported a match, want false (gap between sequences)")
	}
	if _, ok := u.sequenceFor(0x1050); ok {
		t.Error("sequenceFor(0x1050) reported a match, want false (end is exclusive)")
	}
}

func TestFileNameNilFile(t *testing.T) {
	if got := fileName(nil); got != "" {
		t.Errorf("fileName(nil) = %q, want \"\"", got)
	}
}

func TestBuildUnitRequiresLowpcEvenWithRanges(t *testing.T) {
	l := &Light{cfg: defaultConfig()}
	ent := &dwarf.Entry{Field: []dwarf.Field{
		{Attr: dwarf.AttrStmtList, Val: int64(0), Class: dwarf.ClassLinePtr},
		{Attr: dwarf.AttrRanges, Val: int64(0), Class: dwarf.ClassRangeListPtr},
		{Attr: dwarf.AttrLanguage, Val: int64(0x04), Class: dwarf.ClassConstant},
	}}

	_, ok, err := l.buildUnit(ent)
	if err != nil {
		t.Fatalf("buildUnit: %v", err)
	}
	if ok {
		t.Error("buildUnit admitted a compilation unit with DW_AT_ranges but no DW_AT_low_pc")
	}
}
