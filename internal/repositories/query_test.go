package repositories

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQueryOptions_Defaults(t *testing.T) {
	opts, err := ParseQueryOptions(url.Values{})
	require.NoError(t, err)

	assert.Equal(t, DefaultPage, opts.Page)
	assert.Equal(t, DefaultLimit, opts.Limit)
	assert.Empty(t, opts.Filters)
	assert.Empty(t, opts.Sort)
	assert.Empty(t, opts.Fields)
}

func TestParseQueryOptions_Full(t *testing.T) {
	values, err := url.ParseQuery("role=guide&created_at[gte]=2024-01-01&sort=-name,email&fields=name, email&page=2&limit=10")
	require.NoError(t, err)

	opts, err := ParseQueryOptions(values)
	require.NoError(t, err)

	assert.Equal(t, []Filter{
		{Field: "created_at", Op: OpGte, Value: "2024-01-01"},
		{Field: "role", Op: OpEq, Value: "guide"},
	}, opts.Filters)
	assert.Equal(t, []SortField{{Field: "name", Desc: true}, {Field: "email"}}, opts.Sort)
	assert.Equal(t, []string{"name", "email"}, opts.Fields)
	assert.Equal(t, 2, opts.Page)
	assert.Equal(t, 10, opts.Limit)
}

func TestParseQueryOptions_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown operator":  "name[like]=a",
		"page not a number": "page=abc",
		"zero limit":        "limit=0",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			values, err := url.ParseQuery(raw)
			require.NoError(t, err)

			_, err = ParseQueryOptions(values)
			var qe *QueryError
			assert.ErrorAs(t, err, &qe)
		})
	}
}

func TestFilterOp_SQL(t *testing.T) {
	assert.Equal(t, ">=", OpGte.SQL())
	assert.Equal(t, ">", OpGt.SQL())
	assert.Equal(t, "<=", OpLte.SQL())
	assert.Equal(t, "<", OpLt.SQL())
	assert.Equal(t, "=", OpEq.SQL())
}
