package view

import (
	"strings"
)

// Accessor reads a named field from a record. A false second return (or a nil value)
// means the field is absent on that record.
type Accessor[R any] func(rec R, field string) (any, bool)

// Fielder is implemented by records that know how to look up their own fields.
type Fielder interface {
	Field(name string) (any, bool)
}

func FieldAccessor[R Fielder]() Accessor[R] {
	return func(rec R, field string) (any, bool) {
		return rec.Field(field)
	}
}

// MapAccessor reads JSON documents decoded into map[string]any.
// Dotted names walk into nested objects, so "user.firstName" works on order documents.
func MapAccessor() Accessor[map[string]any] {
	return func(rec map[string]any, field string) (any, bool) {
		return Lookup(rec, field)
	}
}

func Lookup(doc map[string]any, path string) (any, bool) {
	if doc == nil {
		return nil, false
	}
	if v, ok := doc[path]; ok {
		return v, v != nil
	}

	head, rest, nested := strings.Cut(path, ".")
	if !nested {
		return nil, false
	}

	switch child := doc[head].(type) {
	case map[string]any:
		return Lookup(child, rest)
	case Fielder:
		return child.Field(rest)
	}
	return nil, false
}
