// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwarfpc

import "errors"

// ErrNoRangeInformation is returned by the range iterator adapter
// when a DIE has neither DW_AT_ranges nor a usable
// DW_AT_low_pc/DW_AT_high_pc pair. This is distinct from a DIE whose
// ranges decode to zero entries: absence of range information and an
// empty range list are different things to a caller building an
// index (inline-only subprograms legitimately have no ranges at all).
var ErrNoRangeInformation = errors.New("dwarfpc: no range information")
