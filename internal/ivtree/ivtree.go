// Package ivtree implements an immutable interval tree that supports
// overlapping ranges.
//
// This is deliberately a different data structure from the CU range
// table, which is disjoint by construction and so only needs a sorted
// slice and binary search. Function ranges are not disjoint -- an
// outer subprogram's range contains the ranges of everything inlined
// into it -- so a point query has to be able to return more than one
// match.
package ivtree

import "sort"

// Interval is a half-open range [Low, High).
type Interval struct {
	Low, High uint64
}

// Contains reports whether addr falls in i.
func (i Interval) Contains(addr uint64) bool {
	return i.Low <= addr && addr < i.High
}

func (i Interval) empty() bool {
	return i.High <= i.Low
}

// Element is one entry bulk-loaded into a Tree.
type Element struct {
	Range Interval
	Value interface{}
}

// Tree is an immutable, bulk-loaded interval tree keyed by a uint64
// range. Find returns every element whose range covers a point.
//
// Tree is built once from a fixed set of elements and never mutated
// again, so it's represented as a balanced binary search tree over
// elements sorted by Range.Low, augmented at each node with the
// maximum Range.High anywhere in its subtree. That's enough to answer
// a point "stabbing" query in O(log n + k) without needing to visit
// subtrees that can't possibly contain a match.
type Tree struct {
	nodes []node
}

type node struct {
	Element
	maxHigh uint64
	left    int // index into nodes, or -1
	right   int // index into nodes, or -1
}

// Build bulk-loads elems into a new Tree. Empty ranges are dropped.
// Build does not modify elems, but it does allocate a sorted copy.
func Build(elems []Element) *Tree {
	kept := make([]Element, 0, len(elems))
	for _, e := range elems {
		if !e.Range.empty() {
			kept = append(kept, e)
		}
	}
	sort.Slice(kept, func(i, j int) bool {
		return kept[i].Range.Low < kept[j].Range.Low
	})

	t := &Tree{nodes: make([]node, len(kept))}
	if len(kept) > 0 {
		t.build(kept, 0, len(kept))
	}
	return t
}

// build recursively assembles the balanced tree over kept[lo:hi],
// taking the median element as the root so the tree has height
// O(log n). It returns the index of the subtree's root in t.nodes, or
// -1 for an empty range. Node indices below the root are assigned by
// the recursive calls; by construction, every index in [lo, hi) is
// used exactly once across the whole build.
func (t *Tree) build(elems []Element, lo, hi int) int {
	if lo >= hi {
		return -1
	}
	mid := (lo + hi) / 2

	left := t.build(elems, lo, mid)
	right := t.build(elems, mid+1, hi)

	maxHigh := elems[mid].Range.High
	if left >= 0 && t.nodes[left].maxHigh > maxHigh {
		maxHigh = t.nodes[left].maxHigh
	}
	if right >= 0 && t.nodes[right].maxHigh > maxHigh {
		maxHigh = t.nodes[right].maxHigh
	}

	t.nodes[mid] = node{Element: elems[mid], maxHigh: maxHigh, left: left, right: right}
	return mid
}

// Find returns every element whose range covers addr. The order of
// results is unspecified; callers that need a particular order (such
// as the Frame Resolver's decreasing-depth order) must sort the
// result themselves.
//
// Find appends to and returns dst, so callers can reuse a
// stack-allocated backing array across calls to avoid heap churn for
// the common case of a handful of overlapping inline frames.
func (t *Tree) Find(addr uint64, dst []Element) []Element {
	if len(t.nodes) == 0 {
		return dst
	}
	root := len(t.nodes) / 2
	// build() always makes the overall root the median of the full
	// slice, i.e. index len(nodes)/2: the top-level call has
	// lo=0,hi=len(nodes), so mid=len(nodes)/2.
	return t.find(root, addr, dst)
}

func (t *Tree) find(i int, addr uint64, dst []Element) []Element {
	if i < 0 {
		return dst
	}
	n := &t.nodes[i]

	if n.left >= 0 && t.nodes[n.left].maxHigh > addr {
		dst = t.find(n.left, addr, dst)
	}
	if n.Range.Contains(addr) {
		dst = append(dst, n.Element)
	}
	if n.Range.Low <= addr {
		dst = t.find(n.right, addr, dst)
	}
	return dst
}

// Len returns the number of elements in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}
