package repositories

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 100
)

var DefaultSort = []SortField{{Field: "created_at", Desc: true}}

// Параметры, которые не являются фильтрами
var reservedQueryKeys = map[string]bool{
	"page":   true,
	"sort":   true,
	"limit":  true,
	"fields": true,
}

type FilterOp string

const (
	OpEq  FilterOp = "eq"
	OpGte FilterOp = "gte"
	OpGt  FilterOp = "gt"
	OpLte FilterOp = "lte"
	OpLt  FilterOp = "lt"
)

func (op FilterOp) SQL() string {
	switch op {
	case OpGte:
		return ">="
	case OpGt:
		return ">"
	case OpLte:
		return "<="
	case OpLt:
		return "<"
	default:
		return "="
	}
}

func (op FilterOp) valid() bool {
	switch op {
	case OpEq, OpGte, OpGt, OpLte, OpLt:
		return true
	}
	return false
}

type Filter struct {
	Field string
	Op    FilterOp
	Value string
}

type SortField struct {
	Field string
	Desc  bool
}

type QueryOptions struct {
	Filters []Filter
	Sort    []SortField
	Fields  []string
	Page    int
	Limit   int
}

func (o QueryOptions) pagination() (page, limit int) {
	page, limit = o.Page, o.Limit
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	return page, limit
}

// ParseQueryOptions разбирает query string вида
// ?role=guide&created_at[gte]=2024-01-01&sort=-name,email&fields=name,email&page=2&limit=10
func ParseQueryOptions(values url.Values) (QueryOptions, error) {
	opts := QueryOptions{Page: DefaultPage, Limit: DefaultLimit}

	for key, vals := range values {
		if reservedQueryKeys[key] || len(vals) == 0 {
			continue
		}
		field, op := key, OpEq
		if i := strings.IndexByte(key, '['); i > 0 && strings.HasSuffix(key, "]") {
			field, op = key[:i], FilterOp(key[i+1:len(key)-1])
		}
		if !op.valid() {
			return opts, &QueryError{Param: key}
		}
		opts.Filters = append(opts.Filters, Filter{Field: field, Op: op, Value: vals[0]})
	}
	sort.Slice(opts.Filters, func(i, j int) bool {
		if opts.Filters[i].Field != opts.Filters[j].Field {
			return opts.Filters[i].Field < opts.Filters[j].Field
		}
		return opts.Filters[i].Op < opts.Filters[j].Op
	})

	for _, s := range splitList(values.Get("sort")) {
		if strings.HasPrefix(s, "-") {
			opts.Sort = append(opts.Sort, SortField{Field: s[1:], Desc: true})
		} else {
			opts.Sort = append(opts.Sort, SortField{Field: s})
		}
	}

	opts.Fields = splitList(values.Get("fields"))

	var err error
	if opts.Page, err = positiveInt(values.Get("page"), DefaultPage); err != nil {
		return opts, &QueryError{Param: "page"}
	}
	if opts.Limit, err = positiveInt(values.Get("limit"), DefaultLimit); err != nil {
		return opts, &QueryError{Param: "limit"}
	}
	return opts, nil
}

type QueryError struct {
	Param string
}

func (e *QueryError) Error() string {
	return "invalid query parameter: " + e.Param
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func positiveInt(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}
