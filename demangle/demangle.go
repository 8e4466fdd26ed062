// Package demangle implements a pluggable, language-keyed name
// demangling strategy for Function.DemangledName: the choice of
// demangler is a capability selected by DW_AT_language, not a
// runtime guess based on the shape of the name.
package demangle

import (
	extdemangle "github.com/ianlancetaylor/demangle"
)

// LanguageCode mirrors the numeric values a DW_AT_language attribute
// carries (DWARF5 §7.12, Table 7.17). debug/dwarf exposes the raw
// int64 value of this attribute but, unlike DW_TAG/DW_AT/DW_FORM,
// does not name the language constants itself.
type LanguageCode int64

// Language codes relevant to demangling. Values not listed here
// (DW_LANG_Go, DW_LANG_C, ...) have no registered demangler: their
// linkage names are already the display name.
const (
	LangCPlusPlus   LanguageCode = 0x0004
	LangCPlusPlus03 LanguageCode = 0x0019
	LangCPlusPlus11 LanguageCode = 0x001a
	LangRust        LanguageCode = 0x001c
	LangCPlusPlus14 LanguageCode = 0x0021
)

// Func attempts to demangle name, reporting ok=false if name isn't in
// a form it recognizes.
type Func func(name string) (demangled string, ok bool)

// Table maps a language code to the demangler responsible for it.
type Table map[LanguageCode]Func

// Demangle looks up lang in t and applies its demangler to name. It
// reports ok=false if lang has no registered demangler or demangling
// fails; demangling failure is never an error, only an absent
// result, and callers fall back to the raw name.
func (t Table) Demangle(lang LanguageCode, name string) (string, bool) {
	f, ok := t[lang]
	if !ok {
		return "", false
	}
	return f(name)
}

// Default returns the strategy table backed by
// github.com/ianlancetaylor/demangle: every C++ dialect uses its
// Itanium demangler, Rust uses its Rust demangler (both legacy and
// the v0 scheme share the same entry point in that package).
func Default() Table {
	return Table{
		LangCPlusPlus:   itanium,
		LangCPlusPlus03: itanium,
		LangCPlusPlus11: itanium,
		LangCPlusPlus14: itanium,
		LangRust:        rust,
	}
}

func itanium(name string) (string, bool) {
	out, err := extdemangle.ToString(name)
	if err != nil {
		return "", false
	}
	return out, true
}

func rust(name string) (string, bool) {
	out, err := extdemangle.ToString(name)
	if err != nil {
		return "", false
	}
	return out, true
}

// None returns a strategy table with no registered demanglers, for
// embeddings that only ever want raw linkage names.
func None() Table {
	return Table{}
}
