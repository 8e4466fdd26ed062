// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwarfpc

import "debug/dwarf"

// Function is a handle to one subprogram or inlined subroutine
// returned by a Full Context query. It's a thin, reusable view over
// the underlying DIE: name resolution and stack-variable enumeration
// re-read the DWARF data on every call rather than caching state on
// Function itself, so a Function is safe to hold onto and query
// repeatedly, including for pcs other than the one it was obtained
// from.
type Function struct {
	full *Full
	node *funcNode
}

// Offset is the .debug_info section offset of the function's own
// entry (the DW_TAG_subprogram or DW_TAG_inlined_subroutine, not any
// abstract origin it refers to). It is a stable identity for the
// function across calls.
func (fn *Function) Offset() dwarf.Offset {
	return fn.node.entry.Offset
}

// Depth is the function's inlining depth at the pc it was resolved
// for: 0 for the outermost, non-inlined subprogram, increasing by one
// for each level of inlining.
func (fn *Function) Depth() int {
	return fn.node.depth
}

// Language is the source language of the compilation unit containing
// the function.
func (fn *Function) Language() LanguageCode {
	return fn.node.unit.language
}

// RawName returns the function's name as it appears in the DWARF data
// (mangled, for languages that mangle names), following
// DW_AT_abstract_origin/DW_AT_specification references as needed. It
// reads DW_AT_linkage_name, the attribute DWARF producers use for the
// mangled symbol (DW_AT_name, by contrast, typically holds the plain
// source identifier). It reports false if no name could be found
// within the configured abstract-origin hop limit.
func (fn *Function) RawName() (string, bool, error) {
	dw := fn.full.light.dw
	limit := fn.full.light.cfg.abstractOriginDepthLimit
	return resolveAttr(dw, fn.node.entry, dwarf.AttrLinkageName, limit)
}

// DemangledName returns the function's demangled name, using the
// configured demangling strategy for the compilation unit's language.
// It reports false if the raw name is unavailable or the configured
// demangler doesn't recognize it (which is routine: a great many
// symbols aren't mangled names at all).
func (fn *Function) DemangledName() (string, bool, error) {
	raw, ok, err := fn.RawName()
	if err != nil || !ok {
		return "", false, err
	}
	demangled, ok := fn.full.light.cfg.demangle.Demangle(fn.Language(), raw)
	return demangled, ok, nil
}

// DisplayName returns the best available name for the function: the
// demangled name if one is available, otherwise the raw name,
// otherwise "". This mirrors the fallback a caller would otherwise
// have to reimplement around RawName and DemangledName every time it
// wants to print something for a frame.
func (fn *Function) DisplayName() string {
	if name, ok, _ := fn.DemangledName(); ok {
		return name
	}
	if name, ok, _ := fn.RawName(); ok {
		return name
	}
	return ""
}
