package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_Scalars(t *testing.T) {
	tests := []struct {
		name     string
		input    Value
		expected string
	}{
		{"string", String("hello"), `"hello"`},
		{"empty string", String(""), `""`},
		{"int", Int(42), "42"},
		{"negative int", Int(-100), "-100"},
		{"max int64", Int(9223372036854775807), "9223372036854775807"},
		{"bool true", Bool(true), "true"},
		{"bool false", Bool(false), "false"},
		{"empty array", Array{}, "[]"},
		{"empty object", Object{}, "{}"},
		{"array of ints", Array{Int(1), Int(2), Int(3)}, "[1,2,3]"},
		{"simple object", Object{"a": Int(1)}, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonical_NestedSortedKeys(t *testing.T) {
	obj := Object{
		"z": Object{"b": Int(1), "a": Int(2)},
		"a": Int(3),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":3,"z":{"a":2,"b":1}}`, string(result))
}

func TestMarshalCanonical_UTF16Ordering(t *testing.T) {
	// U+10000 encodes as surrogates 0xD800 0xDC00, which sort before U+E000.
	obj := Object{
		"\uE000":     Int(1),
		"\U00010000": Int(2),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"\uE000\":1}", string(result))
}

func TestMarshalCanonical_Escaping(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"html untouched", "<a & b>", `"<a & b>"`},
		{"quote and backslash", `say "hi" \o/`, `"say \"hi\" \\o/"`},
		{"short escapes", "a\tb\nc\r", `"a\tb\nc\r"`},
		{"other control", "\x01", `"\u0001"`},
		{"line separator literal", "a\u2028b", "\"a\u2028b\""},
		{"nfc", "e\u0301", "\"\u00e9\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(String(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonical_RejectsNil(t *testing.T) {
	_, err := MarshalCanonical(Object{"a": nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"a"`)
}

func TestMarshalCanonical_Deterministic(t *testing.T) {
	build := func() Object {
		return Object{
			"levels":   Strings([]string{"Country", "State"}),
			"measures": Object{"profit": Object{"ranking": String("desc")}},
			"limit":    Int(10),
		}
	}

	first, err := MarshalCanonical(build())
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := MarshalCanonical(build())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
