package geometry

import (
	"math"
	"testing"
)

// floatEquals is a helper for testing scalar float values with epsilon.
func floatEquals(a, b float64) bool {
	return math.Abs(a-b) <= Epsilon
}

func TestNewVectorPolar(t *testing.T) {
	tests := []struct {
		name   string
		radius float64
		theta  float64
		want   Vector2D
	}{
		{"Zero radius", 0, 0, Vector2D{0, 0}},
		{"Zero angle (X-axis)", 30, 0, Vector2D{30, 0}},
		{"90 degrees (Y-axis)", 10, math.Pi / 2, Vector2D{0, 10}},
		{"180 degrees (Negative X)", 10, math.Pi, Vector2D{-10, 0}},
		{"45 degrees", math.Sqrt(2), math.Pi / 4, Vector2D{1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewVectorPolar(tt.radius, tt.theta)
			if !got.Eq(tt.want) {
				t.Errorf("NewVectorPolar(%v, %v) = %v; want %v", tt.radius, tt.theta, got, tt.want)
			}
		})
	}
}

func TestVector_Arithmetic(t *testing.T) {
	v1 := Vector2D{1, 2}
	v2 := Vector2D{3, 4}

	tests := []struct {
		name string
		got  Vector2D
		want Vector2D
	}{
		{"Add", v1.Add(v2), Vector2D{4, 6}},
		{"Sub", v1.Sub(v2), Vector2D{-2, -2}},
		{"Mul", v1.Mul(2), Vector2D{2, 4}},
		{"AddScaled", v1.AddScaled(v2, 0.5), Vector2D{2.5, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.got.Eq(tt.want) {
				t.Errorf("%s = %v; want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestVector_Products(t *testing.T) {
	x := Vector2D{1, 0}
	y := Vector2D{0, 1}

	if got := x.Dot(y); got != 0 {
		t.Errorf("Dot orthogonal = %v; want 0", got)
	}
	if got := x.Dot(x); got != 1 {
		t.Errorf("Dot parallel = %v; want 1", got)
	}
}

func TestVector_Magnitude(t *testing.T) {
	v := Vector2D{3, 4} // 3-4-5 triangle

	if got := v.Len(); got != 5 {
		t.Errorf("Len = %v; want 5", got)
	}
	if got := v.LenSqr(); got != 25 {
		t.Errorf("LenSqr = %v; want 25", got)
	}
}

func TestVector_Angles(t *testing.T) {
	t.Run("Angle", func(t *testing.T) {
		tests := []struct {
			v    Vector2D
			want float64
		}{
			{Vector2D{1, 0}, 0},
			{Vector2D{0, 1}, math.Pi / 2},
			{Vector2D{-1, 0}, math.Pi},
			{Vector2D{0, -1}, -math.Pi / 2},
			{Vector2D{-1, -1}, -3 * math.Pi / 4},
		}
		for _, tt := range tests {
			if got := tt.v.Angle(); !floatEquals(got, tt.want) {
				t.Errorf("%v.Angle() = %v; want %v", tt.v, got, tt.want)
			}
		}
	})
}

func TestVector_Rotate(t *testing.T) {
	got := Vector2D{30, 0}.Rotate(math.Pi / 2)
	if !got.Eq(Vector2D{0, 30}) {
		t.Errorf("Rotate(90) = %v; want (0, 30)", got)
	}
}

func TestVector_IsFinite(t *testing.T) {
	if !(Vector2D{1, 2}).IsFinite() {
		t.Error("finite vector reported as non-finite")
	}
	if (Vector2D{math.NaN(), 0}).IsFinite() {
		t.Error("NaN vector reported as finite")
	}
	if (Vector2D{0, math.Inf(-1)}).IsFinite() {
		t.Error("Inf vector reported as finite")
	}
}

func TestVector_Eq(t *testing.T) {
	v := Vector2D{1, 2}

	if !v.Eq(Vector2D{1 + Epsilon/2, 2 - Epsilon/2}) {
		t.Error("Eq epsilon match failed")
	}
	if v.Eq(Vector2D{1.1, 2}) {
		t.Error("Eq mismatch failed")
	}
}
