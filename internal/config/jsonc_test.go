package config

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeJSONCRemovesCommentsAndTrailingCommas(t *testing.T) {
	input := `
{
  // line comment
  "items": [
    "one", /* block comment */
    "two",
  ],
  "nested": {
    "enabled": true,
  },
}
`

	normalized, err := normalizeJSONC(input)
	require.NoError(t, err)
	require.NotContains(t, normalized, "//")
	require.NotContains(t, normalized, "/*")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(normalized), &decoded))
	require.Equal(t, []any{"one", "two"}, decoded["items"])
}

func TestNormalizeJSONCKeepsStringContent(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "comment markers", input: `{"value":"contains // and /* comment-like */ text",}`, want: "// and /* comment-like */"},
		{name: "escaped quote", input: `{"value":"say \"sim\", // ok",}`, want: `say \"sim\", // ok`},
		{name: "comma before brace", input: `{"value":"a,}"}`, want: `"a,}"`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			normalized, err := normalizeJSONC(tc.input)
			require.NoError(t, err)
			require.Contains(t, normalized, tc.want)
		})
	}
}

func TestNormalizeJSONCPreservesLineBreaksInBlockComments(t *testing.T) {
	normalized, err := normalizeJSONC("{ /* one\ntwo */ \"a\": 1 }")
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(normalized, "\n"))
}

func TestNormalizeJSONCUnterminatedBlockCommentFails(t *testing.T) {
	_, err := normalizeJSONC("{ /* unterminated ")
	require.ErrorContains(t, err, "unterminated block comment")
}

func TestEnsureSingleJSONValueRejectsExtraPayload(t *testing.T) {
	decoder := json.NewDecoder(strings.NewReader(`{"one":1}{"two":2}`))
	var payload map[string]any
	require.NoError(t, decoder.Decode(&payload))

	require.ErrorContains(t, ensureSingleJSONValue(decoder), "multiple JSON values")
}

func TestOffsetToLineCol(t *testing.T) {
	content := "line1\nline2\nline3"
	tests := []struct {
		offset int64
		line   int
		col    int
	}{
		{offset: 0, line: 1, col: 1},
		{offset: 1, line: 1, col: 1},
		{offset: 8, line: 2, col: 2},
		{offset: 999, line: 3, col: 5},
	}
	for _, tc := range tests {
		line, col := offsetToLineCol(content, tc.offset)
		require.Equal(t, tc.line, line, "offset %d", tc.offset)
		require.Equal(t, tc.col, col, "offset %d", tc.offset)
	}
}
