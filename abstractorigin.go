// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwarfpc

import (
	"debug/dwarf"
	"fmt"
)

// resolveAttr reads a string-valued attribute from ent, following
// DW_AT_abstract_origin and DW_AT_specification references when ent
// doesn't carry the attribute directly. An inlined subroutine
// typically has neither DW_AT_name nor DW_AT_type of its own; both
// live on the out-of-line abstract instance it was inlined from, and
// that instance may itself be a specification of a declaration
// elsewhere.
//
// The chain is bounded by limit hops. Malformed DWARF can in
// principle point an abstract_origin chain back on itself; rather than
// looping forever, resolveAttr gives up and reports the attribute
// absent once the limit is reached.
func resolveAttr(dw *dwarf.Data, ent *dwarf.Entry, attr dwarf.Attr, limit int) (string, bool, error) {
	for hop := 0; ; hop++ {
		if v, ok := ent.Val(attr).(string); ok {
			return v, true, nil
		}

		if hop >= limit {
			return "", false, nil
		}

		next, ok, err := followOrigin(dw, ent)
		if err != nil {
			return "", false, err
		}
		if !ok {
			return "", false, nil
		}
		ent = next
	}
}

// followOrigin resolves ent's DW_AT_abstract_origin or
// DW_AT_specification reference, whichever is present, to the entry it
// points at.
func followOrigin(dw *dwarf.Data, ent *dwarf.Entry) (*dwarf.Entry, bool, error) {
	off, ok := originOffset(ent)
	if !ok {
		return nil, false, nil
	}

	r := dw.Reader()
	r.Seek(off)
	next, err := r.Next()
	if err != nil {
		return nil, false, fmt.Errorf("following abstract origin at %#x: %w", off, err)
	}
	if next == nil {
		return nil, false, nil
	}
	return next, true, nil
}

func originOffset(ent *dwarf.Entry) (dwarf.Offset, bool) {
	if v, ok := ent.Val(dwarf.AttrAbstractOrigin).(dwarf.Offset); ok {
		return v, true
	}
	if v, ok := ent.Val(dwarf.AttrSpecification).(dwarf.Offset); ok {
		return v, true
	}
	return 0, false
}
