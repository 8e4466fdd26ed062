// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwarfpc

// Frame is one level of an inlined call stack at a given pc: the
// function active at that level, and the source location within it.
//
// Location is nil when no line-table or call-site information could
// be recovered for this frame. Function is nil only for the last
// frame in a chain, and only when pc falls within a compilation
// unit's line table but outside every known subprogram's range (for
// example, prologue or padding bytes the compiler didn't attribute to
// a function) -- in that case the chain carries the resolved location
// with no function to attach it to.
type Frame struct {
	Function *Function
	Location *Location
}

// FrameIter produces the inlined frame chain at a pc, innermost frame
// first. The chain is fully resolved before the first call to Next --
// unlike the line-table and DIE readers elsewhere in this package, an
// interval-tree point query and a depth sort aren't expensive enough
// to warrant incremental construction -- but the sequence interface
// matches the shape callers need: stop consuming as soon as they have
// enough frames, without the package deciding how many frames "enough"
// is.
type FrameIter struct {
	frames []Frame
	pos    int
}

// Next returns the next frame in the chain, or ok == false once the
// chain is exhausted.
func (it *FrameIter) Next() (frame Frame, ok bool) {
	if it == nil || it.pos >= len(it.frames) {
		return Frame{}, false
	}
	frame = it.frames[it.pos]
	it.pos++
	return frame, true
}

// Frames resolves the inlined frame chain active at pc. The returned
// iterator yields the innermost (most deeply inlined) frame first and
// the outermost, non-inlined subprogram last.
//
// When pc isn't covered by any known function, the iterator yields a
// single Function-less frame carrying whatever location was found, or
// no frames at all if even that failed -- never an error merely for
// pc being outside every index this package built.
func (f *Full) Frames(pc uint64) (*FrameIter, error) {
	nodes, err := f.functionsAt(pc)
	if err != nil {
		return nil, err
	}

	loc, ok, err := f.light.FindLocation(pc)
	if err != nil {
		return nil, err
	}

	var innerLoc *Location
	if ok {
		innerLoc = &loc
	}
	if len(nodes) == 0 {
		return &FrameIter{frames: locationOnlyFrame(innerLoc)}, nil
	}
	return &FrameIter{frames: buildFrames(f, nodes, innerLoc)}, nil
}

// locationOnlyFrame builds the single-frame chain yielded when pc
// falls within a compilation unit's line table but outside every
// known subprogram's range: a location with no function to attach it
// to. It returns no frames at all when even the location is unknown.
func locationOnlyFrame(loc *Location) []Frame {
	if loc == nil {
		return nil
	}
	return []Frame{{Location: loc}}
}

// buildFrames assembles the Frame chain for an already depth-sorted
// list of funcNodes, carrying each frame's source location the way
// inline attribution requires: the innermost frame's location comes
// from the line table (innerLoc); every outer frame's location is the
// call site recorded on the node one level further in, since that's
// where control was when it called into the function that was inlined
// at that level.
//
// Split out from Frames so the location-carrying logic can be tested
// against hand-built funcNodes without a real DWARF object.
func buildFrames(f *Full, nodes []*funcNode, innerLoc *Location) []Frame {
	frames := make([]Frame, len(nodes))
	for i, n := range nodes {
		frames[i] = Frame{Function: &Function{full: f, node: n}}
		if i == 0 {
			frames[i].Location = innerLoc
			continue
		}
		caller := nodes[i-1]
		if caller.callFile != nil || caller.callLine != 0 || caller.callColumn != 0 {
			frames[i].Location = &Location{
				File:   fileName(caller.callFile),
				Line:   caller.callLine,
				Column: caller.callColumn,
			}
		}
	}
	return frames
}

// Query returns the full, already-materialized frame chain at pc. It's
// a convenience over Frames for callers that want every frame anyway.
func (f *Full) Query(pc uint64) ([]Frame, error) {
	it, err := f.Frames(pc)
	if err != nil {
		return nil, err
	}
	return it.frames, nil
}
