package inja

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Table-driven acceptance checks in the style of the pack's
// require.NoError/require.Equal convention, covering a spread of
// parse-then-render inputs in one place.
func TestAcceptanceParseAndRender(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		data     func() Value
		expected string
	}{
		{
			name:     "arithmetic precedence",
			input:    "{{ 2 + 3 * 4 }}",
			data:     func() Value { return NewObject() },
			expected: "14",
		},
		{
			name:     "comparison chain",
			input:    "{{ 1 < 2 and 2 < 3 }}",
			data:     func() Value { return NewObject() },
			expected: "true",
		},
		{
			name:     "string pipe filters",
			input:    `{{ "  hi  " | trim | upper }}`,
			data:     func() Value { return NewObject() },
			expected: "HI",
		},
		{
			name:  "for loop over array",
			input: "{% for n in nums %}{{ n }}{% endfor %}",
			data: func() Value {
				d := NewObject()
				d.Set("nums", Array(Int(1), Int(2), Int(3)))
				return d
			},
			expected: "123",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			out, err := Render(tt.input, tt.data())
			require.NoError(t, err, "Render error for input: %s", tt.input)
			require.Equal(t, tt.expected, out)
		})
	}
}

func TestAcceptanceParseErrorsSurfaceLocation(t *testing.T) {
	env := New()
	_, err := env.Parse("{% if x %}unterminated")
	require.Error(t, err, "expected a parser_error for an unclosed if block")
	require.True(t, IsParserError(err))
	require.Equal(t, "[inja.exception.parser_error] (at 1:23) unmatched if", err.Error())
}
