package demangle

import "testing"

func TestDefaultTableItanium(t *testing.T) {
	table := Default()
	// _Z3foov is the canonical Itanium mangling of "void foo()".
	got, ok := table.Demangle(LangCPlusPlus, "_Z3foov")
	if !ok {
		t.Fatal("Demangle(_Z3foov) reported failure")
	}
	want := "foo()"
	if got != want {
		t.Errorf("Demangle(_Z3foov) = %q, want %q", got, want)
	}
}

func TestDefaultTableCxxDialectsShareItanium(t *testing.T) {
	table := Default()
	for _, lang := range []LanguageCode{LangCPlusPlus, LangCPlusPlus03, LangCPlusPlus11, LangCPlusPlus14} {
		if _, ok := table.Demangle(lang, "_Z3foov"); !ok {
			t.Errorf("Demangle with language %#x reported failure", lang)
		}
	}
}

func TestUnregisteredLanguageIsAbsent(t *testing.T) {
	table := Default()
	if _, ok := table.Demangle(LanguageCode(0x0016) /* DW_LANG_Go */, "main.foo"); ok {
		t.Error("Demangle for an unregistered language reported success")
	}
}

func TestNoneTableAlwaysAbsent(t *testing.T) {
	table := None()
	if _, ok := table.Demangle(LangCPlusPlus, "_Z3foov"); ok {
		t.Error("None() table demangled a name, want it to never do so")
	}
}

func TestFailedDemangleIsAbsentNotError(t *testing.T) {
	table := Default()
	// Not a mangled name at all -- an ordinary C-style identifier.
	if _, ok := table.Demangle(LangCPlusPlus, "plain_identifier"); ok {
		t.Error("Demangle on a non-mangled name reported success")
	}
}
