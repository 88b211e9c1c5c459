package pipeline

import (
	"fmt"
	"sort"
	"strings"
)

// FilterSpec maps a feature's filter keys onto store columns. Filter keys
// with no column mapping are silently dropped; the sentinel value "all" is
// excluded from the predicate set entirely.
type FilterSpec struct {
	// EqualityColumns maps equality-filter keys to direct columns.
	EqualityColumns map[string]string
	// SearchColumns, when set, makes free-text search a server-side
	// case-insensitive substring match OR'd across these columns.
	SearchColumns []string
}

// Conditions accumulates parameterized WHERE fragments. Expressions use `?`
// placeholders which are rewritten to $n when rendered, so fragments compose
// regardless of the order they were added in.
type Conditions struct {
	clauses []clause
}

type clause struct {
	expr string
	args []interface{}
}

func (c *Conditions) Eq(column string, value interface{}) {
	c.clauses = append(c.clauses, clause{expr: column + " = ?", args: []interface{}{value}})
}

func (c *Conditions) Gte(column string, value interface{}) {
	c.clauses = append(c.clauses, clause{expr: column + " >= ?", args: []interface{}{value}})
}

func (c *Conditions) Lte(column string, value interface{}) {
	c.clauses = append(c.clauses, clause{expr: column + " <= ?", args: []interface{}{value}})
}

// ContainsAny adds a case-insensitive substring match OR'd across columns:
// the row matches if ANY column contains the term.
func (c *Conditions) ContainsAny(columns []string, term string) {
	if len(columns) == 0 || term == "" {
		return
	}
	parts := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		parts[i] = col + " ILIKE ?"
		args[i] = "%" + term + "%"
	}
	c.clauses = append(c.clauses, clause{expr: "(" + strings.Join(parts, " OR ") + ")", args: args})
}

func (c *Conditions) Len() int {
	return len(c.clauses)
}

// WhereClause renders the accumulated conditions as an AND-joined fragment
// with $n placeholders starting at argOffset+1, plus the argument slice.
// Returns "" when no conditions were added.
func (c *Conditions) WhereClause(argOffset int) (string, []interface{}) {
	if len(c.clauses) == 0 {
		return "", nil
	}
	var exprs []string
	var args []interface{}
	n := argOffset
	for _, cl := range c.clauses {
		expr := cl.expr
		for range cl.args {
			n++
			expr = strings.Replace(expr, "?", fmt.Sprintf("$%d", n), 1)
		}
		exprs = append(exprs, expr)
		args = append(args, cl.args...)
	}
	return strings.Join(exprs, " AND "), args
}

// BuildConditions translates a request's filter state into server-side
// predicates, dropping the "all" sentinel, empty values, and keys the
// FilterSpec does not map. Deterministic: the same request always yields the
// same predicate set. The returned search term is empty when the search was
// consumed server-side; otherwise it must be applied client-side by the
// pipeline's match function.
func BuildConditions(req ListRequest, spec FilterSpec) (*Conditions, string) {
	conds := &Conditions{}

	// Equality filters map in a stable order.
	for _, key := range sortedKeys(req.Equality) {
		value := req.Equality[key]
		if value == "" || value == FilterAll {
			continue
		}
		col, ok := spec.EqualityColumns[key]
		if !ok {
			continue
		}
		conds.Eq(col, value)
	}

	for _, rng := range req.Ranges {
		if rng.From != nil {
			conds.Gte(rng.Field, *rng.From)
		}
		if rng.To != nil {
			conds.Lte(rng.Field, *rng.To)
		}
	}

	search := req.Search
	if search != "" && len(spec.SearchColumns) > 0 {
		conds.ContainsAny(spec.SearchColumns, search)
		search = ""
	}

	return conds, search
}

// MatchAny reports whether term is a case-insensitive substring of any of the
// given fields. The residual client-side predicate for joined/derived fields.
func MatchAny(term string, fields ...string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
