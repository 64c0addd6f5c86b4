package view

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

type kind int

const (
	kindAbsent kind = iota
	kindNumber
	kindTime
	kindString
	kindBool
	kindOther
)

type value struct {
	kind kind
	num  float64
	t    time.Time
	str  string
	b    bool
}

func classify(v any, present bool) value {
	if !present || v == nil {
		return value{kind: kindAbsent}
	}

	switch x := v.(type) {
	case string:
		if t, err := time.Parse(time.RFC3339Nano, x); err == nil {
			return value{kind: kindTime, t: t, str: x}
		}
		return value{kind: kindString, str: x}
	case time.Time:
		return value{kind: kindTime, t: x, str: x.Format(time.RFC3339Nano)}
	case *time.Time:
		if x == nil {
			return value{kind: kindAbsent}
		}
		return value{kind: kindTime, t: *x, str: x.Format(time.RFC3339Nano)}
	case bool:
		return value{kind: kindBool, b: x, str: strconv.FormatBool(x)}
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return value{kind: kindNumber, num: f, str: x.String()}
		}
		return value{kind: kindString, str: x.String()}
	case int:
		return number(float64(x), strconv.FormatInt(int64(x), 10))
	case int8:
		return number(float64(x), strconv.FormatInt(int64(x), 10))
	case int16:
		return number(float64(x), strconv.FormatInt(int64(x), 10))
	case int32:
		return number(float64(x), strconv.FormatInt(int64(x), 10))
	case int64:
		return number(float64(x), strconv.FormatInt(x, 10))
	case uint:
		return number(float64(x), strconv.FormatUint(uint64(x), 10))
	case uint8:
		return number(float64(x), strconv.FormatUint(uint64(x), 10))
	case uint16:
		return number(float64(x), strconv.FormatUint(uint64(x), 10))
	case uint32:
		return number(float64(x), strconv.FormatUint(uint64(x), 10))
	case uint64:
		return number(float64(x), strconv.FormatUint(x, 10))
	case float32:
		return number(float64(x), strconv.FormatFloat(float64(x), 'f', -1, 32))
	case float64:
		return number(x, strconv.FormatFloat(x, 'f', -1, 64))
	case fmt.Stringer:
		return value{kind: kindString, str: x.String()}
	}
	return value{kind: kindOther, str: Stringify(v)}
}

func number(f float64, s string) value {
	if math.IsNaN(f) {
		return value{kind: kindString, str: s}
	}
	return value{kind: kindNumber, num: f, str: s}
}

// Stringify renders a field value the way the filter stage searches it.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []string:
		return strings.Join(x, " ")
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			parts = append(parts, Stringify(item))
		}
		return strings.Join(parts, " ")
	case map[string]any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
	if c := classify(v, true); c.kind != kindOther {
		return c.str
	}
	return fmt.Sprint(v)
}

// compare orders two present values. Values of different kinds order by kind
// (numbers, timestamps, strings, bools, anything else), so the order stays total.
func compare(a, b value) int {
	if a.kind != b.kind {
		return cmpOrdered(float64(a.kind), float64(b.kind))
	}
	switch a.kind {
	case kindNumber:
		return cmpOrdered(a.num, b.num)
	case kindTime:
		return a.t.Compare(b.t)
	case kindBool:
		switch {
		case a.b == b.b:
			return 0
		case !a.b:
			return -1
		default:
			return 1
		}
	}
	return strings.Compare(a.str, b.str)
}

func cmpOrdered(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
