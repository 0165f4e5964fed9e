package common

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDecimal(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{12, "12"},
		{12.5, "12.5"},
		{1013.2, "1013.2"},
		{-3.75, "-3.75"},
		{0.00001, "0.00001"},
		{1e21, "1000000000000000000000"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "+Inf"},
		{math.Inf(-1), "-Inf"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDecimal(tt.in), "input %v", tt.in)
	}
}

func TestDecimal_JSON(t *testing.T) {
	payload := struct {
		Value Decimal `json:"value"`
	}{Value: 0.00002}

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":0.00002}`, string(data))
	assert.NotContains(t, string(data), "e-")

	var back struct {
		Value Decimal `json:"value"`
	}
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, Decimal(0.00002), back.Value)
}

func TestDecimal_JSONRejectsNonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		d := Decimal(v)
		assert.False(t, d.Finite())

		_, err := json.Marshal(struct {
			Value Decimal `json:"value"`
		}{Value: d})
		assert.Error(t, err, "input %v", v)
	}
	assert.True(t, Decimal(12.5).Finite())
}
