package ir

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValue_Native(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	assert.Equal(t, int64(7), Int(7).Native())
	assert.Equal(t, 2.5, Float(2.5).Native())
	assert.Equal(t, "x", String("x").Native())
	assert.Equal(t, true, Bool(true).Native())
	assert.Equal(t, now, NewTimestamp(now).Native())
	assert.Equal(t, []any{int64(1), int64(2)}, NewList(TypeInt, Int(1), Int(2)).Native())
}

func TestValue_Type(t *testing.T) {
	testCases := []struct {
		v    Value
		want SemanticType
	}{
		{Int(1), TypeInt},
		{Float(1), TypeFloat},
		{String(""), TypeString},
		{Bool(false), TypeBool},
		{NewTimestamp(time.Time{}), TypeTimestamp},
		{NewList(TypeString), TypeString},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, tc.v.Type(), "%T", tc.v)
	}
}

func TestList_Len(t *testing.T) {
	assert.Equal(t, 0, NewList(TypeInt).Len())
	assert.Equal(t, 3, NewList(TypeBool, Bool(true), Bool(false), Bool(true)).Len())
}
