// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwarfpc

import (
	"debug/dwarf"
	"testing"
)

// buildOriginTestData assembles a minimal, hand-encoded DWARF4
// .debug_abbrev/.debug_info pair: one compilation unit whose children
// are three subprograms.
//
//   - dieB (offset 12) carries DW_AT_name = "foo" directly.
//   - dieA (offset 17) carries no name, only DW_AT_abstract_origin
//     pointing at dieB.
//   - dieC (offset 22) carries no name, and DW_AT_abstract_origin
//     pointing at itself -- the cycle resolveAttr's hop limit exists to
//     survive.
func buildOriginTestData(t *testing.T) *dwarf.Data {
	t.Helper()

	abbrev := []byte{
		// 1: compile_unit, has children, no attributes.
		0x01, 0x11, 0x01, 0x00, 0x00,
		// 2: subprogram, no children, DW_AT_name/DW_FORM_string.
		0x02, 0x2e, 0x00, 0x03, 0x08, 0x00, 0x00,
		// 3: subprogram, no children, DW_AT_abstract_origin/DW_FORM_ref4.
		0x03, 0x2e, 0x00, 0x31, 0x13, 0x00, 0x00,
		// table terminator
		0x00,
	}

	info := []byte{
		// unit_length = 24 (filled in below), version 4, abbrev_offset 0, addr_size 8.
		0x18, 0x00, 0x00, 0x00,
		0x04, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0x08,
		// offset 11: CU DIE (abbrev 1)
		0x01,
		// offset 12: dieB (abbrev 2), name "foo\0"
		0x02, 'f', 'o', 'o', 0x00,
		// offset 17: dieA (abbrev 3), abstract_origin -> 12
		0x03, 0x0c, 0x00, 0x00, 0x00,
		// offset 22: dieC (abbrev 3), abstract_origin -> itself (22)
		0x03, 0x16, 0x00, 0x00, 0x00,
		// offset 27: null entry, ends CU's children.
		0x00,
	}

	dw, err := dwarf.New(abbrev, nil, nil, info, nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("dwarf.New: %v", err)
	}
	return dw
}

func readOriginTestDIEs(t *testing.T, dw *dwarf.Data) (cu, dieB, dieA, dieC *dwarf.Entry) {
	t.Helper()
	dr := dw.Reader()
	next := func(name string) *dwarf.Entry {
		e, err := dr.Next()
		if err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}
		if e == nil {
			t.Fatalf("reading %s: unexpected end of DIE tree", name)
		}
		return e
	}
	cu = next("cu")
	dieB = next("dieB")
	dieA = next("dieA")
	dieC = next("dieC")
	return
}

func TestResolveAttrDirect(t *testing.T) {
	dw := buildOriginTestData(t)
	_, dieB, _, _ := readOriginTestDIEs(t, dw)

	// dieB carries the attribute directly; dw is never consulted.
	name, ok, err := resolveAttr(nil, dieB, dwarf.AttrName, 64)
	if err != nil {
		t.Fatalf("resolveAttr: %v", err)
	}
	if !ok || name != "foo" {
		t.Fatalf("resolveAttr(dieB) = %q, %v, want \"foo\", true", name, ok)
	}
}

func TestResolveAttrFollowsAbstractOrigin(t *testing.T) {
	dw := buildOriginTestData(t)
	_, _, dieA, _ := readOriginTestDIEs(t, dw)

	name, ok, err := resolveAttr(dw, dieA, dwarf.AttrName, 64)
	if err != nil {
		t.Fatalf("resolveAttr: %v", err)
	}
	if !ok || name != "foo" {
		t.Fatalf("resolveAttr(dieA) = %q, %v, want \"foo\", true", name, ok)
	}
}

func TestResolveAttrOneHopLimitStillFinds(t *testing.T) {
	dw := buildOriginTestData(t)
	_, _, dieA, _ := readOriginTestDIEs(t, dw)

	name, ok, err := resolveAttr(dw, dieA, dwarf.AttrName, 1)
	if err != nil {
		t.Fatalf("resolveAttr: %v", err)
	}
	if !ok || name != "foo" {
		t.Fatalf("resolveAttr(dieA, limit=1) = %q, %v, want \"foo\", true", name, ok)
	}
}

func TestResolveAttrCycleTerminates(t *testing.T) {
	dw := buildOriginTestData(t)
	_, _, _, dieC := readOriginTestDIEs(t, dw)

	name, ok, err := resolveAttr(dw, dieC, dwarf.AttrName, 8)
	if err != nil {
		t.Fatalf("resolveAttr: %v", err)
	}
	if ok {
		t.Fatalf("resolveAttr(dieC) = %q, true, want false (self-referential abstract_origin)", name)
	}
}

func TestResolveAttrZeroLimitNeverFollows(t *testing.T) {
	dw := buildOriginTestData(t)
	_, _, dieA, _ := readOriginTestDIEs(t, dw)

	_, ok, err := resolveAttr(dw, dieA, dwarf.AttrName, 0)
	if err != nil {
		t.Fatalf("resolveAttr: %v", err)
	}
	if ok {
		t.Fatal("resolveAttr(dieA, limit=0) reported success, want false")
	}
}
