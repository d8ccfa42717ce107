package realtime

import (
	"fmt"
	"strconv"
	"strings"
)

type Op string

const (
	OpEq     Op = "eq"
	OpNeq    Op = "neq"
	OpIn     Op = "in"
	OpIsNull Op = "is"
)

// Condition is one "column=op.value" clause.
type Condition struct {
	Column string
	Op     Op
	Values []string
}

// Filter is a conjunction of conditions. The zero Filter matches every row.
type Filter struct {
	Conditions []Condition
	raw        string
}

func (f Filter) String() string { return f.raw }

// ParseFilter reads "sender_id=eq.X,recipient_id=eq.Y". Supported operators:
// eq, neq, in.(a,b) and is.null.
func ParseFilter(raw string) (Filter, error) {
	raw = strings.TrimSpace(raw)
	f := Filter{raw: raw}
	if raw == "" {
		return f, nil
	}

	for _, part := range splitClauses(raw) {
		col, expr, ok := strings.Cut(part, "=")
		col = strings.TrimSpace(col)
		if !ok || col == "" {
			return Filter{}, fmt.Errorf("filter clause %q: want column=op.value", part)
		}
		op, val, ok := strings.Cut(expr, ".")
		if !ok {
			return Filter{}, fmt.Errorf("filter clause %q: missing operator", part)
		}

		cond := Condition{Column: col, Op: Op(op)}
		switch cond.Op {
		case OpEq, OpNeq:
			cond.Values = []string{val}
		case OpIn:
			val = strings.TrimSpace(val)
			if !strings.HasPrefix(val, "(") || !strings.HasSuffix(val, ")") {
				return Filter{}, fmt.Errorf("filter clause %q: in expects (a,b)", part)
			}
			for _, v := range strings.Split(val[1:len(val)-1], ",") {
				cond.Values = append(cond.Values, strings.TrimSpace(v))
			}
		case OpIsNull:
			if val != "null" {
				return Filter{}, fmt.Errorf("filter clause %q: only is.null is supported", part)
			}
		default:
			return Filter{}, fmt.Errorf("filter clause %q: unknown operator %q", part, op)
		}
		f.Conditions = append(f.Conditions, cond)
	}
	return f, nil
}

// splitClauses splits on commas outside parentheses.
func splitClauses(raw string) []string {
	var out []string
	depth, start := 0, 0
	for i, r := range raw {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				out = append(out, raw[start:i])
				start = i + 1
			}
		}
	}
	return append(out, raw[start:])
}

func (f Filter) Match(row map[string]interface{}) bool {
	for _, c := range f.Conditions {
		v, present := row[c.Column]
		isNull := !present || v == nil

		switch c.Op {
		case OpIsNull:
			if !isNull {
				return false
			}
		case OpEq:
			if isNull || stringify(v) != c.Values[0] {
				return false
			}
		case OpNeq:
			if !isNull && stringify(v) == c.Values[0] {
				return false
			}
		case OpIn:
			if isNull || !contains(c.Values, stringify(v)) {
				return false
			}
		}
	}
	return true
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
