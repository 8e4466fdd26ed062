package ivtree

import (
	"reflect"
	"sort"
	"testing"
)

func values(elems []Element) []string {
	var out []string
	for _, e := range elems {
		out = append(out, e.Value.(string))
	}
	sort.Strings(out)
	return out
}

func TestFindOverlapping(t *testing.T) {
	// outer covers [0x2000,0x2100); inner is inlined at [0x2040,0x2050)
	// within outer, mimicking a subprogram with one inlined call.
	tr := Build([]Element{
		{Range: Interval{0x2000, 0x2100}, Value: "outer"},
		{Range: Interval{0x2040, 0x2050}, Value: "inner"},
	})

	cases := []struct {
		addr uint64
		want []string
	}{
		{0x2000, []string{"outer"}},
		{0x2045, []string{"inner", "outer"}},
		{0x2050, []string{"outer"}},
		{0x20ff, []string{"outer"}},
		{0x2100, nil},
		{0x1fff, nil},
	}
	for _, c := range cases {
		got := values(tr.Find(c.addr, nil))
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("Find(%#x) = %v, want %v", c.addr, got, c.want)
		}
	}
}

func TestFindManyOverlapsAndGaps(t *testing.T) {
	var elems []Element
	for i := 0; i < 50; i++ {
		low := uint64(i * 10)
		elems = append(elems, Element{Range: Interval{low, low + 5}, Value: i})
	}
	// Add a function that spans everything, like an outer caller
	// containing many inlined sites.
	elems = append(elems, Element{Range: Interval{0, 500}, Value: -1})

	tr := Build(elems)
	if tr.Len() != len(elems) {
		t.Fatalf("Len() = %d, want %d", tr.Len(), len(elems))
	}

	// Inside the 7th small interval and the big one.
	got := tr.Find(70, nil)
	if len(got) != 2 {
		t.Fatalf("Find(70) = %v, want 2 elements", got)
	}

	// In a gap between small intervals but still inside the big one.
	got = tr.Find(7, nil)
	if len(got) != 1 || got[0].Value != -1 {
		t.Fatalf("Find(7) = %v, want only the spanning element", got)
	}

	// Past everything.
	got = tr.Find(10000, nil)
	if len(got) != 0 {
		t.Fatalf("Find(10000) = %v, want none", got)
	}
}

func TestBuildDropsEmptyRanges(t *testing.T) {
	tr := Build([]Element{
		{Range: Interval{10, 10}, Value: "empty"},
		{Range: Interval{10, 20}, Value: "real"},
	})
	if tr.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (empty range should be dropped)", tr.Len())
	}
	got := tr.Find(15, nil)
	if len(got) != 1 || got[0].Value != "real" {
		t.Fatalf("Find(15) = %v, want [real]", got)
	}
}

func TestFindReusesDst(t *testing.T) {
	tr := Build([]Element{{Range: Interval{0, 10}, Value: "a"}})
	buf := make([]Element, 0, 16)
	buf = tr.Find(5, buf)
	if len(buf) != 1 {
		t.Fatalf("len(buf) = %d, want 1", len(buf))
	}
	buf = buf[:0]
	buf = tr.Find(100, buf)
	if len(buf) != 0 {
		t.Fatalf("len(buf) = %d, want 0", len(buf))
	}
}
