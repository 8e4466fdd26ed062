// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwarfpc

import (
	"debug/dwarf"
	"fmt"

	"github.com/dwarfpc/dwarfpc/internal/loclist"
)

// Variable is a formal parameter or local variable in scope at the pc
// a Function's StackVariablesAt was called with.
type Variable struct {
	// Name is the variable's name, or "" if it has none (DWARF allows
	// unnamed formal parameters, notably for varargs markers).
	Name string

	// Location is the variable's DWARF location expression, exactly as
	// encoded: either the exprloc read directly from DW_AT_location,
	// or the expression selected from the .debug_loc list entry that
	// covers the query pc. Evaluating it (resolving register numbers,
	// applying DW_OP_fbreg against a frame base, and so on) requires a
	// running process or a register snapshot this package doesn't
	// have, so it's returned unevaluated.
	Location []byte
}

// StackVariablesAt returns the formal parameters and local variables
// in lexical scope at pc within fn. pc must fall within fn's own
// range; it need not be the pc fn was originally resolved for.
//
// Each call re-opens its own DIE reader rather than sharing one across
// calls, so concurrent calls on the same Function (or on different
// Functions from the same Full Context) don't interfere with each
// other.
func (fn *Function) StackVariablesAt(pc uint64) ([]Variable, error) {
	dw := fn.full.light.dw
	dr := dw.Reader()
	dr.Seek(fn.node.entry.Offset)
	root, err := dr.Next()
	if err != nil {
		return nil, fmt.Errorf("re-reading function at %#x: %w", fn.node.entry.Offset, err)
	}
	if root == nil || !root.Children {
		return nil, nil
	}

	locReader := loclist.NewReader(fn.full.light.sections.Loc, fn.full.light.sections.Order, fn.full.light.sections.AddrSize, fn.node.unit.baseAddr)

	var vars []Variable
	if err := walkScope(dw, dr, locReader, pc, &vars); err != nil {
		return nil, err
	}
	return vars, nil
}

// walkScope consumes dr's current sibling list (the children of
// whatever entry was last read), collecting variables in scope at pc
// and skipping subtrees that don't apply: nested functions (a
// different frame entirely) and lexical blocks whose range excludes
// pc.
func walkScope(dw *dwarf.Data, dr *dwarf.Reader, lr *loclist.Reader, pc uint64, vars *[]Variable) error {
	for {
		ent, err := dr.Next()
		if err != nil {
			return fmt.Errorf("walking lexical scope: %w", err)
		}
		if ent == nil || ent.Tag == 0 {
			return nil
		}

		switch ent.Tag {
		case dwarf.TagFormalParameter, dwarf.TagVariable:
			v, ok, err := variableAt(lr, ent, pc)
			if err != nil {
				return err
			}
			if ok {
				*vars = append(*vars, v)
			}
			if ent.Children {
				dr.SkipChildren()
			}

		case dwarf.TagLexicalBlock:
			inScope, err := blockContains(dw, ent, pc)
			if err != nil {
				return err
			}
			if !inScope {
				dr.SkipChildren()
				continue
			}
			if ent.Children {
				if err := walkScope(dw, dr, lr, pc, vars); err != nil {
					return err
				}
			}

		case dwarf.TagSubprogram, dwarf.TagInlinedSubroutine:
			// A distinct frame; its locals aren't in scope here.
			dr.SkipChildren()

		default:
			dr.SkipChildren()
		}
	}
}

// blockContains reports whether pc falls within a lexical block's
// range. A block with no range information of its own inherits its
// parent's scope entirely, per DWARF convention, so it's treated as
// always containing pc.
func blockContains(dw *dwarf.Data, block *dwarf.Entry, pc uint64) (bool, error) {
	ranges, err := entryRanges(dw, block)
	if err == ErrNoRangeInformation {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("decoding lexical block ranges at %#x: %w", block.Offset, err)
	}
	for _, r := range ranges {
		if r.Contains(pc) {
			return true, nil
		}
	}
	return false, nil
}

func variableAt(lr *loclist.Reader, ent *dwarf.Entry, pc uint64) (Variable, bool, error) {
	name, _ := ent.Val(dwarf.AttrName).(string)

	field := ent.AttrField(dwarf.AttrLocation)
	if field == nil {
		return Variable{}, false, nil
	}

	switch field.Class {
	case dwarf.ClassExprLoc:
		expr, ok := field.Val.([]byte)
		if !ok {
			return Variable{}, false, nil
		}
		return Variable{Name: name, Location: expr}, true, nil

	case dwarf.ClassLocListPtr:
		off, ok := field.Val.(int64)
		if !ok {
			return Variable{}, false, nil
		}
		entry, found, err := lr.Find(int(off), pc)
		if err != nil {
			return Variable{}, false, fmt.Errorf("decoding location list for %q at %#x: %w", name, ent.Offset, err)
		}
		if !found {
			return Variable{}, false, nil
		}
		return Variable{Name: name, Location: entry.Expr}, true, nil

	default:
		return Variable{}, false, nil
	}
}
