package order

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_AllShapesAgree(t *testing.T) {
	columns := []string{"age", "created_at", "user.name", "naïve"}
	directions := []Direction{Asc, Desc}

	for _, col := range columns {
		for _, dir := range directions {
			want := Spec{Column: col, Direction: dir}
			for _, literal := range []string{want.Function(), want.Sign(), want.Suffix()} {
				t.Run(literal, func(t *testing.T) {
					got, err := Parse(literal)
					require.NoError(t, err)
					require.Len(t, got, 1)
					assert.Equal(t, want, got[0])
				})
			}
		}
	}
}

func TestParse_PreservesOrder(t *testing.T) {
	got, err := Parse([]any{"-age", "asc(name)", "id.desc"})
	require.NoError(t, err)
	assert.Equal(t, []Spec{
		{Column: "age", Direction: Desc},
		{Column: "name", Direction: Asc},
		{Column: "id", Direction: Desc},
	}, got)
	assert.Equal(t, []string{"age", "name", "id"}, Columns(got))
}

func TestParse_StringSlice(t *testing.T) {
	got, err := Parse([]string{"+a", "b.asc"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestParse_FunctionFormWinsOverSuffix(t *testing.T) {
	// function form is tried first, so the dotted column stays intact
	got, ok := ParseItem("desc(x.asc)")
	require.True(t, ok)
	assert.Equal(t, Spec{Column: "x.asc", Direction: Desc}, got)
}

func TestParse_TrimsWhitespace(t *testing.T) {
	got, ok := ParseItem("  -age ")
	require.True(t, ok)
	assert.Equal(t, Spec{Column: "age", Direction: Desc}, got)
}

func TestParse_Invalid(t *testing.T) {
	testCases := []struct {
		name  string
		raw   any
		index int
	}{
		{"bare column", "age", 0},
		{"empty", "", 0},
		{"unknown direction", "age.up", 0},
		{"upper-case function", "DESC(age)", 0},
		{"double sign", "--age", 0},
		{"unbalanced", "asc(age", 0},
		{"second item bad", []any{"-age", "name"}, 1},
		{"non-string item", []any{"-age", 5}, 1},
		{"non-string input", 42, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.raw)
			require.Error(t, err)

			var syntaxErr *SyntaxError
			require.True(t, errors.As(err, &syntaxErr))
			assert.Equal(t, tc.index, syntaxErr.Index)
			assert.Contains(t, err.Error(), AcceptedShapes)
		})
	}
}

func TestParse_EmptyList(t *testing.T) {
	got, err := Parse([]any{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDirection_Strings(t *testing.T) {
	assert.Equal(t, "asc", Asc.String())
	assert.Equal(t, "DESC", Desc.SQL())
	text, err := Desc.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "desc", string(text))
}

func TestSpec_Renderings(t *testing.T) {
	s := Spec{Column: "age", Direction: Desc}
	assert.Equal(t, "desc(age)", s.Function())
	assert.Equal(t, "-age", s.Sign())
	assert.Equal(t, "age.desc", s.Suffix())
	assert.Equal(t, "age.desc", s.String())
	assert.Equal(t, "+age", Spec{Column: "age"}.Sign())
}
