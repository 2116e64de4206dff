package main

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountStringAndFloatAreEquivalent(t *testing.T) {
	fromString, err := NewAmountFromString("10")
	require.NoError(t, err)
	fromFloat, err := NewAmountFromFloat(10.0)
	require.NoError(t, err)

	assert.True(t, fromString.Equal(fromFloat))

	jsonString, err := json.Marshal(fromString)
	require.NoError(t, err)
	jsonFloat, err := json.Marshal(fromFloat)
	require.NoError(t, err)
	assert.Equal(t, jsonString, jsonFloat)
}

func TestAmountMarshalsAsBareNumber(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"10", "10"},
		{"10.0", "10"},
		{"1.50", "1.5"},
		{"0.00000001", "0.00000001"},
		{"0", "0"},
	}

	for _, tc := range cases {
		amount, err := NewAmountFromString(tc.in)
		require.NoError(t, err)

		raw, err := json.Marshal(amount)
		require.NoError(t, err)
		assert.Equal(t, tc.want, string(raw), "input %q", tc.in)
	}
}

func TestAmountRejectsInvalidInput(t *testing.T) {
	_, err := NewAmountFromString("not-a-number")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidAmount))

	_, err = NewAmountFromString("-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidAmount))

	_, err = NewAmountFromFloat(-0.5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidAmount))
}

func TestAmountIsPositive(t *testing.T) {
	zero, err := NewAmountFromString("0")
	require.NoError(t, err)
	assert.False(t, zero.IsPositive())

	positive, err := NewAmountFromString("0.1")
	require.NoError(t, err)
	assert.True(t, positive.IsPositive())

	var unset Amount
	assert.False(t, unset.IsPositive())
}
