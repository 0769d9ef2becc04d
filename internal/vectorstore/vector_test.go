package vectorstore

import (
	"math"
	"slices"
	"testing"
)

func TestCosine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "scaled", a: []float32{1, 1}, b: []float32{3, 3}, want: 1},
		{name: "length mismatch", a: []float32{1}, b: []float32{1, 1}, want: 0},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 1}, want: 0},
		{name: "empty", a: nil, b: nil, want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := cosine(tc.a, tc.b); math.Abs(float64(got-tc.want)) > 1e-6 {
				t.Errorf("cosine(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestVectorEncoding(t *testing.T) {
	t.Parallel()

	v := []float32{0, 1.5, -2.25, math.MaxFloat32, math.SmallestNonzeroFloat32}
	b := encodeVector(v)
	if len(b) != 4*len(v) {
		t.Fatalf("encoded length = %d, want %d", len(b), 4*len(v))
	}
	if got := decodeVector(b); !slices.Equal(got, v) {
		t.Errorf("decode(encode(v)) = %v, want %v", got, v)
	}
	if got := decodeVector(append(b, 0xff)); len(got) != len(v) {
		t.Errorf("trailing partial float should be ignored, got %d values", len(got))
	}
}
