package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTabWriter_WriteHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewTabWriter(&buf, "#gene_id", "TSS_width", "PA_width")

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.Flush())

	assert.Equal(t, "#gene_id\tTSS_width\tPA_width\n", buf.String())
	assert.Equal(t, 0, w.Rows())
}

func TestTabWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := NewTabWriter(&buf, "a", "b")

	require.NoError(t, w.Write("AT1G01010", Int(12)))
	require.NoError(t, w.Write("AT1G01020", Int(int64(7))))
	require.NoError(t, w.Flush())

	assert.Equal(t, "AT1G01010\t12\nAT1G01020\t7\n", buf.String())
	assert.Equal(t, 2, w.Rows())
}

func TestMean(t *testing.T) {
	tests := []struct {
		name   string
		values []int64
		want   string
	}{
		{"empty", nil, "NA"},
		{"whole", []int64{2, 4}, "3.0"},
		{"one decimal", []int64{1, 2}, "1.5"},
		{"rounded", []int64{1, 1, 2}, "1.3"},
		{"half to even down", []int64{0, 0, 0, 1}, "0.2"},
		{"half to even up", []int64{0, 0, 0, 3}, "0.8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Mean(tt.values))
		})
	}
}

func TestDecimal(t *testing.T) {
	assert.Equal(t, "3.0", Decimal(3))
	assert.Equal(t, "2.25", Decimal(2.25))
	assert.Equal(t, "-1.0", Decimal(-1))
}

func TestFixed(t *testing.T) {
	assert.Equal(t, "0.6667", Fixed(2.0/3.0, 4))
	assert.Equal(t, "0.0000", Fixed(0, 4))
}

func TestRoundHalfEven(t *testing.T) {
	assert.Equal(t, 2.0, RoundHalfEven(2.5, 0))
	assert.Equal(t, 4.0, RoundHalfEven(3.5, 0))
	assert.Equal(t, 0.2, RoundHalfEven(0.25, 1))
}
