// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwarfpc

import (
	"debug/dwarf"
	"fmt"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/dwarfpc/dwarfpc/internal/ivtree"
)

// defaultInlineCacheSize bounds the number of subprograms' inline-site
// trees held in memory at once. An unbounded cache here would let a
// long-lived Full over a binary with tens of thousands of functions
// retain every one of them for the life of the process merely because
// each was queried once.
const defaultInlineCacheSize = 4096

// funcNode is one node in a subprogram's inline-site tree: either the
// subprogram itself (depth 0) or a DW_TAG_inlined_subroutine nested
// somewhere beneath it (depth = inlining depth, not DIE-tree depth).
type funcNode struct {
	entry *dwarf.Entry
	unit  *unitInfo
	depth int

	// callFile, callLine, and callColumn describe the call site at
	// which this function was inlined: the source position inside the
	// *caller* that invoked it. They're the zero value for depth 0,
	// since a non-inlined subprogram's call site (if any) isn't this
	// binary's concern.
	callFile             *dwarf.LineFile
	callLine, callColumn int
}

type subprogramRange struct {
	Range Range
	entry *dwarf.Entry
}

// cuFuncIndex is the disjoint index of top-level
// subprogram code ranges within one compilation unit. DWARF guarantees
// a function's own (non-inlined) code doesn't overlap another
// function's, so unlike the inline-site tree this needs no interval
// tree, just a sorted slice and a binary search -- grounded on
// dbg/ranges.go's AddrToSubprogram, which makes the same assumption.
type cuFuncIndex struct {
	unit *unitInfo

	once        sync.Once
	err         error
	subprograms []subprogramRange
}

func (c *cuFuncIndex) ensure(dw *dwarf.Data) error {
	c.once.Do(func() {
		dr := dw.Reader()
		dr.Seek(c.unit.offset)
		cuEnt, err := dr.Next()
		if err != nil {
			c.err = fmt.Errorf("re-reading compilation unit at %#x: %w", c.unit.offset, err)
			return
		}
		if cuEnt == nil || !cuEnt.Children {
			return
		}
		for {
			sub, err := dr.Next()
			if err != nil {
				c.err = fmt.Errorf("indexing subprograms in compilation unit at %#x: %w", c.unit.offset, err)
				return
			}
			if sub == nil || sub.Tag == 0 {
				break
			}
			dr.SkipChildren()
			if sub.Tag != dwarf.TagSubprogram {
				continue
			}
			ranges, err := entryRanges(dw, sub)
			if err == ErrNoRangeInformation {
				// Inlined everywhere it's used; it never owns its own
				// code, so it's invisible to a pc-keyed lookup until
				// it's found as a funcNode at some caller's depth > 0.
				continue
			}
			if err != nil {
				c.err = fmt.Errorf("decoding subprogram ranges at %#x: %w", sub.Offset, err)
				return
			}
			for _, r := range ranges {
				c.subprograms = append(c.subprograms, subprogramRange{r, sub})
			}
		}
		sort.Slice(c.subprograms, func(i, j int) bool {
			return c.subprograms[i].Range.Begin < c.subprograms[j].Range.Begin
		})
	})
	return c.err
}

func (c *cuFuncIndex) find(addr uint64) (*dwarf.Entry, bool) {
	i := sort.Search(len(c.subprograms), func(i int) bool {
		return c.subprograms[i].Range.End > addr
	})
	if i >= len(c.subprograms) || !c.subprograms[i].Range.Contains(addr) {
		return nil, false
	}
	return c.subprograms[i].entry, true
}

// Full is a Full Context: a Light Context plus the ability to recover
// inlined frame chains and stack variables. Building one walks every
// compilation unit's top-level subprograms (cheap); the more expensive
// walk into each subprogram's inline sites happens lazily, the first
// time a pc within that subprogram is queried, and the result is kept
// in a bounded cache.
type Full struct {
	light *Light

	cuIndex map[*unitInfo]*cuFuncIndex

	cacheMu     sync.Mutex
	inlineCache *lru.Cache
}

// ParseFunctions builds a Full Context on top of l.
func (l *Light) ParseFunctions() (*Full, error) {
	cache, err := lru.New(defaultInlineCacheSize)
	if err != nil {
		return nil, fmt.Errorf("allocating inline-site cache: %w", err)
	}
	f := &Full{
		light:       l,
		cuIndex:     make(map[*unitInfo]*cuFuncIndex, len(l.units)),
		inlineCache: cache,
	}
	for _, unit := range l.units {
		idx := &cuFuncIndex{unit: unit}
		if err := idx.ensure(l.dw); err != nil {
			return nil, err
		}
		f.cuIndex[unit] = idx
	}
	return f, nil
}

// inlineTree returns the interval tree of every funcNode (the
// subprogram itself, plus every inlined subroutine nested beneath it,
// at any depth) within subprogram, building and caching it on first
// use.
func (f *Full) inlineTree(unit *unitInfo, subprogram *dwarf.Entry) (*ivtree.Tree, error) {
	f.cacheMu.Lock()
	if v, ok := f.inlineCache.Get(subprogram.Offset); ok {
		f.cacheMu.Unlock()
		return v.(*ivtree.Tree), nil
	}
	f.cacheMu.Unlock()

	dr := f.light.dw.Reader()
	dr.Seek(subprogram.Offset)
	root, err := dr.Next()
	if err != nil {
		return nil, fmt.Errorf("re-reading subprogram at %#x: %w", subprogram.Offset, err)
	}
	if root == nil {
		return nil, fmt.Errorf("subprogram at %#x vanished on re-read", subprogram.Offset)
	}

	var elems []ivtree.Element
	if err := f.addFuncNode(&elems, unit, root, 0); err != nil {
		return nil, err
	}
	if root.Children {
		if err := f.walkInlineChildren(dr, &elems, unit, 1); err != nil {
			return nil, err
		}
	}

	tree := ivtree.Build(elems)
	f.cacheMu.Lock()
	f.inlineCache.Add(subprogram.Offset, tree)
	f.cacheMu.Unlock()
	return tree, nil
}

// walkInlineChildren performs the DFS that turns a subprogram's DIE
// subtree into funcNodes tagged by inlining depth. Only
// DW_TAG_inlined_subroutine entries increase depth; lexical blocks are
// transparent (an inlined call can appear nested inside one), and a
// nested DW_TAG_subprogram is a distinct real function that happens to
// be lexically nested in the DWARF and has no bearing on this
// subprogram's inlining, so its subtree is skipped entirely.
//
// Grounded on dbg/inline.go's Data.inlineRanges, which does the same
// walk to build a disjoint Caller-linked map; this
// produces independent funcNodes instead, since the Function Index
// needs every overlapping inlining level, not just the innermost.
func (f *Full) walkInlineChildren(dr *dwarf.Reader, elems *[]ivtree.Element, unit *unitInfo, depth int) error {
	for {
		ent, err := dr.Next()
		if err != nil {
			return fmt.Errorf("walking inline sites: %w", err)
		}
		if ent == nil || ent.Tag == 0 {
			return nil
		}

		switch ent.Tag {
		case dwarf.TagInlinedSubroutine:
			if err := f.addFuncNode(elems, unit, ent, depth); err != nil {
				return err
			}
			if ent.Children {
				if err := f.walkInlineChildren(dr, elems, unit, depth+1); err != nil {
					return err
				}
			}
		case dwarf.TagSubprogram:
			dr.SkipChildren()
		default:
			if ent.Children {
				if err := f.walkInlineChildren(dr, elems, unit, depth); err != nil {
					return err
				}
			}
		}
	}
}

func (f *Full) addFuncNode(elems *[]ivtree.Element, unit *unitInfo, ent *dwarf.Entry, depth int) error {
	ranges, err := entryRanges(f.light.dw, ent)
	if err == ErrNoRangeInformation {
		f.light.cfg.logger.Debugf("dwarfpc: %#x has no range information, excluding it from the function index", ent.Offset)
		return nil
	}
	if err != nil {
		return fmt.Errorf("decoding ranges for %#x: %w", ent.Offset, err)
	}

	node := &funcNode{entry: ent, unit: unit, depth: depth}
	if v, ok := ent.Val(dwarf.AttrCallLine).(int64); ok {
		node.callLine = int(v)
	}
	if v, ok := ent.Val(dwarf.AttrCallColumn).(int64); ok {
		node.callColumn = int(v)
	}
	if v, ok := ent.Val(dwarf.AttrCallFile).(int64); ok && v > 0 && int(v) < len(unit.files) {
		node.callFile = unit.files[v]
	}

	for _, r := range ranges {
		*elems = append(*elems, ivtree.Element{
			Range: ivtree.Interval{Low: r.Begin, High: r.End},
			Value: node,
		})
	}
	return nil
}

// functionsAt returns every funcNode covering pc, sorted by
// descending depth (innermost inlined frame first).
func (f *Full) functionsAt(pc uint64) ([]*funcNode, error) {
	unit, ok := f.light.unitFor(pc)
	if !ok {
		return nil, nil
	}
	cu := f.cuIndex[unit]
	if err := cu.ensure(f.light.dw); err != nil {
		return nil, err
	}
	subprogram, ok := cu.find(pc)
	if !ok {
		return nil, nil
	}
	tree, err := f.inlineTree(unit, subprogram)
	if err != nil {
		return nil, err
	}

	matches := tree.Find(pc, nil)
	nodes := make([]*funcNode, len(matches))
	for i, m := range matches {
		nodes[i] = m.Value.(*funcNode)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].depth > nodes[j].depth
	})
	return nodes, nil
}
