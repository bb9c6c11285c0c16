package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type attrs map[string]string

func (a attrs) AttributeValue(name string) (string, bool) {
	v, ok := a[name]
	return v, ok
}

func TestMatches(t *testing.T) {
	article := attrs{
		"title":        "Go 1.24 released",
		"tags":         "dev news",
		"unread":       "yes",
		"age":          "3",
		"unread_count": "12",
		"author":       "",
	}

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{name: "tag membership", expr: `tags # "news"`, want: true},
		{name: "tag membership is whole word", expr: `tags # "new"`, want: false},
		{name: "missing tag", expr: `tags # "sports"`, want: false},
		{name: "negated membership", expr: `tags !# "sports"`, want: true},
		{name: "equality", expr: `unread = "yes"`, want: true},
		{name: "double equals", expr: `unread == "no"`, want: false},
		{name: "inequality", expr: `unread != "no"`, want: true},
		{name: "regex is case insensitive", expr: `title =~ "^go"`, want: true},
		{name: "negated regex", expr: `title !~ "rust"`, want: true},
		{name: "less than", expr: `age < 5`, want: true},
		{name: "greater or equal", expr: `unread_count >= 12`, want: true},
		{name: "between inclusive", expr: `age between 3:7`, want: true},
		{name: "between reversed bounds", expr: `age between 7:3`, want: true},
		{name: "between outside", expr: `age between 4:7`, want: false},
		{name: "empty but present attribute", expr: `author = ""`, want: true},
		{name: "absent attribute never matches", expr: `description = ""`, want: false},
		{name: "absent attribute with negated operator", expr: `description != "x"`, want: false},
		{name: "and", expr: `tags # "dev" and unread = "yes"`, want: true},
		{name: "and short circuits", expr: `tags # "sports" and age < 1`, want: false},
		{name: "or", expr: `tags # "sports" or unread = "yes"`, want: true},
		{name: "and binds tighter than or", expr: `unread = "yes" or tags # "sports" and age > 10`, want: true},
		{name: "parentheses", expr: `(unread = "yes" or tags # "sports") and age > 10`, want: false},
		{name: "escaped quote", expr: `title != "say \"hi\""`, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := Parse(tt.expr)
			require.NoError(t, err)

			got, err := expr.Matches(article)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		``,
		`tags`,
		`tags #`,
		`tags # news`,
		`tags # "news`,
		`(tags # "news"`,
		`tags # "news" and`,
		`title =~ "("`,
		`age between 5`,
		`age = 1:5`,
		`age between 1:`,
		`tags # "news" "extra"`,
		`tags & "news"`,
	}

	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			_, err := Parse(src)
			var syntaxErr *SyntaxError
			assert.ErrorAs(t, err, &syntaxErr)
		})
	}
}

func TestNumericComparisonOnText(t *testing.T) {
	expr, err := Parse(`title > 3`)
	require.NoError(t, err)

	ok, err := expr.Matches(attrs{"title": "hello"})
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestString(t *testing.T) {
	expr, err := Parse(`tags # "news" or age between 1:2 and unread = "yes"`)
	require.NoError(t, err)
	assert.Equal(t, `(tags # "news" or (age between 1:2 and unread = "yes"))`, expr.String())
}
