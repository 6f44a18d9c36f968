package view

import (
	"testing"

	"golang.org/x/text/language"
	"pgregory.net/rapid"

	"sharedlist/pkg/domain"
)

func TestSortAlphaIgnoresCase(t *testing.T) {
	list := domain.List{{ID: 1, Text: "Milk"}, {ID: 2, Text: "apples"}, {ID: 3, Text: "Bread"}}
	got := Sort(list, DefaultOrder(SortAlpha), language.English)
	if got[0].Text != "apples" || got[1].Text != "Bread" || got[2].Text != "Milk" {
		t.Fatalf("unexpected order %+v", got)
	}
	if list[0].Text != "Milk" {
		t.Fatalf("Sort must not modify its input")
	}
}

func TestSortRecentTieBreaksOnID(t *testing.T) {
	list := domain.List{{ID: 2, AddedAt: 5}, {ID: 1, AddedAt: 5}, {ID: 3, AddedAt: 9}}
	got := Sort(list, DefaultOrder(SortRecent), language.English)
	if got[0].ID != 3 || got[1].ID != 2 || got[2].ID != 1 {
		t.Fatalf("unexpected order %+v", got)
	}
}

func TestOrderSelect(t *testing.T) {
	o := DefaultOrder(SortRecent)
	if !o.Descending {
		t.Fatalf("recent defaults to newest first")
	}
	o = o.Select(SortAlpha)
	if o.Dimension != SortAlpha || o.Descending {
		t.Fatalf("switching to alpha should ascend, got %v", o)
	}
	if o = o.Select(SortAlpha); !o.Descending {
		t.Fatalf("second select should flip")
	}
	if o = o.Select(SortAlpha); o.Descending {
		t.Fatalf("third select should flip back")
	}
}

func TestParseDimension(t *testing.T) {
	if d, ok := ParseDimension("alpha"); !ok || d != SortAlpha {
		t.Fatalf("alpha not parsed")
	}
	if _, ok := ParseDimension("size"); ok {
		t.Fatalf("unknown dimension accepted")
	}
}

func genList(t *rapid.T) domain.List {
	n := rapid.IntRange(0, 12).Draw(t, "n")
	list := make(domain.List, n)
	for i := range list {
		list[i] = domain.Item{
			ID:      int64(i + 1),
			Text:    rapid.StringMatching(`[A-Za-zÄÖäö ]{1,8}`).Draw(t, "text"),
			AddedAt: rapid.Int64Range(0, 5).Draw(t, "addedAt"),
		}
	}
	return list
}

// testSortReversal_Properties checks that descending is the exact mirror of
// ascending and that sorting is a permutation.
func testSortReversal_Properties(t *rapid.T) {
	list := genList(t)
	dim := rapid.SampledFrom([]Dimension{SortAlpha, SortRecent}).Draw(t, "dim")
	asc := Sort(list, Order{Dimension: dim}, language.English)
	desc := Sort(list, Order{Dimension: dim, Descending: true}, language.English)
	if len(asc) != len(list) || len(desc) != len(list) {
		t.Fatalf("length changed")
	}
	for i := range asc {
		if asc[i].ID != desc[len(desc)-1-i].ID {
			t.Fatalf("descending is not the mirror of ascending at %d", i)
		}
	}
	twice := Sort(list, Order{Dimension: dim}.Reverse().Reverse(), language.English)
	for i := range asc {
		if asc[i].ID != twice[i].ID {
			t.Fatalf("reversing twice changed the order")
		}
	}
	seen := map[int64]bool{}
	for _, it := range asc {
		seen[it.ID] = true
	}
	if len(seen) != len(list) {
		t.Fatalf("sort dropped or duplicated items")
	}
}

func TestSortReversal_Properties(t *testing.T) {
	rapid.Check(t, testSortReversal_Properties)
}

func FuzzSortReversal_Properties(f *testing.F) {
	f.Fuzz(rapid.MakeFuzz(testSortReversal_Properties))
}
