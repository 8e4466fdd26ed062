// Copyright 2021 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dwarfpc

import (
	"github.com/sirupsen/logrus"

	"github.com/dwarfpc/dwarfpc/demangle"
)

// defaultAbstractOriginDepthLimit bounds the abstract_origin
// recursion when resolving a chain of DW_AT_abstract_origin or
// DW_AT_specification references. DWARF permits, but malformed files
// may exhibit, cycles in these chains, so the resolver bounds how far
// it will follow one instead of recursing unconditionally.
const defaultAbstractOriginDepthLimit = 64

// config collects the options a Light Context is built with.
type config struct {
	logger                   *logrus.Logger
	demangle                 demangle.Table
	abstractOriginDepthLimit int
}

func defaultConfig() config {
	return config{
		logger:                   defaultLogger(),
		demangle:                 demangle.Default(),
		abstractOriginDepthLimit: defaultAbstractOriginDepthLimit,
	}
}

// Option configures Light Context (and, transitively, Full Context)
// construction.
type Option func(*config)

// WithLogger overrides the logger used for soft-failure diagnostics:
// CUs skipped for missing attributes or ranges, overlapping CU ranges,
// and inlined subroutines without ranges. Top-level subprograms
// without ranges and abstract_origin chains cut off by the hop limit
// are not logged. None of these are ever surfaced to the caller as
// errors, but a host working with unfamiliar or corrupted binaries
// usually wants to see them go by.
func WithLogger(l *logrus.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithDemangler overrides the demangling strategy table. Pass
// demangle.None() to disable demangling entirely.
func WithDemangler(t demangle.Table) Option {
	return func(c *config) { c.demangle = t }
}

// WithAbstractOriginDepthLimit bounds how many DW_AT_abstract_origin
// hops resolveAttr will follow before giving up and treating the
// attribute as absent. The default is 64, far more than any
// legitimate inlining chain needs.
func WithAbstractOriginDepthLimit(n int) Option {
	return func(c *config) { c.abstractOriginDepthLimit = n }
}

func defaultLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	return l
}
