package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func anyPtr(v ...any) *[]any { return &v }

func TestCheckCase(t *testing.T) {
	compiled := CaseResult{
		Name:      "c",
		Predicate: "age > 18",
		SQL:       `SELECT * FROM "people" WHERE "age" > ?`,
		Params:    []any{int64(18)},
		Rows:      []any{int64(2), int64(3)},
	}
	rejected := CaseResult{
		Name:  "r",
		Error: &ErrorOutcome{Kind: "column", Message: `column error at salary: unknown column "salary"`},
	}

	testCases := []struct {
		name   string
		expect Expect
		result CaseResult
		want   []string
	}{
		{
			name:   "empty expectation accepts any compile",
			expect: Expect{},
			result: compiled,
		},
		{
			name: "all fields match",
			expect: Expect{
				Predicate: strPtr("age > 18"),
				SQL:       `SELECT * FROM "people" WHERE "age" > ?`,
				Params:    anyPtr(18),
				Rows:      anyPtr(2, 3),
			},
			result: compiled,
		},
		{
			name:   "params differ",
			expect: Expect{Params: anyPtr(19)},
			result: compiled,
			want:   []string{"params: expected [19], got [18]"},
		},
		{
			name:   "rows differ",
			expect: Expect{Rows: anyPtr()},
			result: compiled,
			want:   []string{"rows: expected [], got [2,3]"},
		},
		{
			name:   "sql differs",
			expect: Expect{SQL: "SELECT 1"},
			result: compiled,
			want:   []string{`sql: expected SELECT 1, got SELECT * FROM "people" WHERE "age" > ?`},
		},
		{
			name:   "rejection matches",
			expect: Expect{Error: "column", Message: "unknown column"},
			result: rejected,
		},
		{
			name:   "rejection kind and message differ",
			expect: Expect{Error: "format", Message: "duplicate"},
			result: rejected,
			want: []string{
				`error: expected format error, got column error "column error at salary: unknown column \"salary\""`,
				`message: expected message containing "duplicate", got "column error at salary: unknown column \"salary\""`,
			},
		},
		{
			name:   "expected rejection but compiled",
			expect: Expect{Error: "column"},
			result: compiled,
			want:   []string{"error: expected column error, got compiled to age > 18"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := checkCase(tc.expect, tc.result)
			if tc.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAssertionError(t *testing.T) {
	err := &AssertionError{Field: "sql", Expected: "a", Actual: "b"}
	assert.Equal(t, "sql: expected a, got b", err.Error())
}
