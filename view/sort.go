package view

import (
	"fmt"
	"slices"
	"strings"
)

type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

func (d Direction) Flip() Direction {
	if d == Descending {
		return Ascending
	}
	return Descending
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	dir, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = dir
	return nil
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	}
	return Ascending, fmt.Errorf("invalid sort direction %q", s)
}

// SortSpec is the active column and its direction. An empty Field means unsorted.
type SortSpec struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction"`
}

// ParseSortSpec reads "field" or "field:desc".
func ParseSortSpec(s string) (SortSpec, error) {
	field, dir, _ := strings.Cut(s, ":")
	d, err := ParseDirection(dir)
	if err != nil {
		return SortSpec{}, err
	}
	return SortSpec{Field: strings.TrimSpace(field), Direction: d}, nil
}

func (s SortSpec) String() string {
	if s.Field == "" {
		return ""
	}
	return s.Field + ":" + s.Direction.String()
}

// Sort returns a stably ordered copy of records.
//
// Absent values compare equal to each other and sort after every present value in
// both directions; the direction only flips the order among present values.
func Sort[R any](records []R, spec SortSpec, acc Accessor[R]) []R {
	out := append([]R(nil), records...)
	if spec.Field == "" {
		return out
	}

	keys := make([]value, len(out))
	for i, rec := range out {
		keys[i] = classify(acc(rec, spec.Field))
	}

	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}

	slices.SortStableFunc(idx, func(i, j int) int {
		a, b := keys[i], keys[j]
		switch {
		case a.kind == kindAbsent && b.kind == kindAbsent:
			return 0
		case a.kind == kindAbsent:
			return 1
		case b.kind == kindAbsent:
			return -1
		}
		c := compare(a, b)
		if spec.Direction == Descending {
			return -c
		}
		return c
	})

	sorted := make([]R, len(out))
	for i, j := range idx {
		sorted[i] = out[j]
	}
	return sorted
}
