package view

import (
	"encoding/json"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	Name string
	Amt  any
	When time.Time
}

func (r row) Field(name string) (any, bool) {
	switch name {
	case "name":
		return r.Name, r.Name != ""
	case "amt":
		return r.Amt, r.Amt != nil
	case "when":
		return r.When, !r.When.IsZero()
	}
	return nil, false
}

func names(rows []row) []string {
	var out []string
	for _, r := range rows {
		out = append(out, r.Name)
	}
	return out
}

var acc = FieldAccessor[row]()

func scenarioB() []row {
	return []row{
		{Name: "Bob", Amt: 5},
		{Name: "Amy", Amt: 5},
		{Name: "Cid", Amt: 1},
	}
}

func numbered(n int) []row {
	rows := make([]row, n)
	for i := range rows {
		rows[i] = row{Name: fmt.Sprintf("r%02d", i+1), Amt: i + 1}
	}
	return rows
}

func TestFilterMatchesCaseInsensitiveSubstring(t *testing.T) {
	got := Filter(scenarioB(), "bo", []string{"name"}, acc)
	assert.Equal(t, []string{"Bob"}, names(got))

	got = Filter(scenarioB(), "A", []string{"name"}, acc)
	assert.Equal(t, []string{"Amy"}, names(got))
}

func TestFilterBlankQueryIsIdentity(t *testing.T) {
	in := scenarioB()
	assert.Equal(t, in, Filter(in, "", []string{"name"}, acc))
	assert.Equal(t, in, Filter(in, "   ", []string{"name"}, acc))
}

func TestFilterIsSubsetAndPartitions(t *testing.T) {
	in := []row{
		{Name: "alpha", Amt: 12},
		{Name: "beta", Amt: 3},
		{Name: "gamma"},
		{Amt: 120},
	}
	fields := []string{"name", "amt"}
	got := Filter(in, "12", fields, acc)

	assert.Equal(t, []row{in[0], in[3]}, got)
	for _, r := range in {
		matched := false
		for _, g := range got {
			if g.Name == r.Name && g.Amt == r.Amt {
				matched = true
			}
		}
		assert.Equal(t, matches(r, "12", fields, acc), matched)
	}
}

func TestFilterMissingFieldIsNotAMatch(t *testing.T) {
	got := Filter([]row{{Amt: 1}}, "x", []string{"name", "nope"}, acc)
	assert.Empty(t, got)
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	in := scenarioB()
	before := append([]row(nil), in...)
	_ = Filter(in, "a", []string{"name"}, acc)
	_ = Sort(in, SortSpec{Field: "name"}, acc)
	_ = Paginate(in, 1, 2)
	assert.Equal(t, before, in)
}

func TestSortIsStable(t *testing.T) {
	got := Sort(scenarioB(), SortSpec{Field: "amt"}, acc)
	assert.Equal(t, []string{"Cid", "Bob", "Amy"}, names(got))
}

func TestSortDirectionSymmetry(t *testing.T) {
	in := []row{
		{Name: "a", Amt: 3},
		{Name: "b", Amt: 1},
		{Name: "c", Amt: 2},
		{Name: "d", Amt: 1},
	}
	asc := Sort(in, SortSpec{Field: "amt"}, acc)
	desc := Sort(asc, SortSpec{Field: "amt", Direction: Descending}, acc)

	assert.Equal(t, []string{"b", "d", "c", "a"}, names(asc))
	// ties keep their ascending relative order
	assert.Equal(t, []string{"a", "c", "b", "d"}, names(desc))
}

func TestSortAbsentValuesLast(t *testing.T) {
	in := []row{
		{Name: "none1"},
		{Name: "two", Amt: 2},
		{Name: "none2"},
		{Name: "one", Amt: 1},
	}
	assert.Equal(t, []string{"one", "two", "none1", "none2"},
		names(Sort(in, SortSpec{Field: "amt"}, acc)))
	assert.Equal(t, []string{"two", "one", "none1", "none2"},
		names(Sort(in, SortSpec{Field: "amt", Direction: Descending}, acc)))
}

func TestSortMixedNumbers(t *testing.T) {
	in := []row{
		{Name: "a", Amt: json.Number("10")},
		{Name: "b", Amt: 9.5},
		{Name: "c", Amt: int64(2)},
	}
	assert.Equal(t, []string{"c", "b", "a"}, names(Sort(in, SortSpec{Field: "amt"}, acc)))
}

func TestSortMixedKindsIsTotal(t *testing.T) {
	in := []row{
		{Name: "z", Amt: "1z"},
		{Name: "ten", Amt: 10},
		{Name: "yes", Amt: true},
		{Name: "two", Amt: 2},
		{Name: "a", Amt: "2"},
	}
	assert.Equal(t, []string{"two", "ten", "z", "a", "yes"}, names(Sort(in, SortSpec{Field: "amt"}, acc)))
	assert.Equal(t, []string{"yes", "a", "z", "ten", "two"},
		names(Sort(in, SortSpec{Field: "amt", Direction: Descending}, acc)))

	// any insertion order gives the same result
	rev := append([]row(nil), in...)
	slices.Reverse(rev)
	assert.Equal(t, names(Sort(in, SortSpec{Field: "amt"}, acc)), names(Sort(rev, SortSpec{Field: "amt"}, acc)))
}

func TestSortTimestamps(t *testing.T) {
	docs := []map[string]any{
		{"id": "1", "createdAt": "2024-03-01T10:00:00Z"},
		{"id": "2", "createdAt": "2024-01-15T08:00:00+05:30"},
		{"id": "3", "createdAt": "2024-02-01T00:00:00.000Z"},
	}
	got := Sort(docs, SortSpec{Field: "createdAt", Direction: Descending}, MapAccessor())
	var ids []string
	for _, d := range got {
		ids = append(ids, d["id"].(string))
	}
	assert.Equal(t, []string{"1", "3", "2"}, ids)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []row{{Name: "late", When: base.Add(time.Hour)}, {Name: "early", When: base}}
	assert.Equal(t, []string{"early", "late"}, names(Sort(rows, SortSpec{Field: "when"}, acc)))
}

func TestSortWithoutFieldKeepsOrder(t *testing.T) {
	in := scenarioB()
	assert.Equal(t, in, Sort(in, SortSpec{}, acc))
}

func TestPaginate(t *testing.T) {
	rows := numbered(25)

	p := Paginate(rows, 10, 3)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 25, p.TotalCount)
	assert.Len(t, p.Items, 5)
	assert.Equal(t, "r21", p.Items[0].Name)

	p = Paginate(rows, 10, 1)
	assert.Len(t, p.Items, 10)

	p = Paginate(rows, 10, 4)
	assert.Empty(t, p.Items)

	p = Paginate(numbered(20), 10, 2)
	assert.Equal(t, 2, p.TotalPages)
	assert.Len(t, p.Items, 10)

	p = Paginate([]row{}, 10, 1)
	assert.Equal(t, 1, p.TotalPages)
	assert.Empty(t, p.Items)
}

func TestPaginateBounds(t *testing.T) {
	for count := 0; count <= 23; count++ {
		for size := 1; size <= 7; size++ {
			rows := numbered(count)
			total := TotalPages(count, size)
			expected := max(1, (count+size-1)/size)
			require.Equal(t, expected, total)

			seen := 0
			for i := 1; i <= total; i++ {
				p := Paginate(rows, size, i)
				require.LessOrEqual(t, len(p.Items), size)
				seen += len(p.Items)
				if i == total && count > 0 {
					last := count % size
					if last == 0 {
						last = size
					}
					require.Len(t, p.Items, last)
				}
			}
			require.Equal(t, count, seen)
		}
	}
}

func TestMapAccessorNested(t *testing.T) {
	doc := map[string]any{
		"user":   map[string]any{"firstName": "Bob", "lastName": "Stone"},
		"status": "confirmed",
		"chef":   nil,
	}
	v, ok := Lookup(doc, "user.firstName")
	assert.True(t, ok)
	assert.Equal(t, "Bob", v)

	_, ok = Lookup(doc, "chef.name")
	assert.False(t, ok)

	_, ok = Lookup(doc, "chef")
	assert.False(t, ok)

	got := Filter([]map[string]any{doc}, "stone", []string{"user.firstName", "user.lastName"}, MapAccessor())
	assert.Len(t, got, 1)
}

func TestParseSortSpec(t *testing.T) {
	s, err := ParseSortSpec("createdAt:desc")
	require.NoError(t, err)
	assert.Equal(t, SortSpec{Field: "createdAt", Direction: Descending}, s)
	assert.Equal(t, "createdAt:desc", s.String())

	s, err = ParseSortSpec("name")
	require.NoError(t, err)
	assert.Equal(t, SortSpec{Field: "name"}, s)

	_, err = ParseSortSpec("name:sideways")
	assert.Error(t, err)
}
