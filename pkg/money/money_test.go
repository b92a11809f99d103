package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFromFloatIsExactForBidIncrements(t *testing.T) {
	// 8 bids of 0.03 in float64 would drift; decimals must not.
	sum := decimal.Zero
	step := FromFloat(0.03)
	for i := 0; i < 8; i++ {
		sum = sum.Add(step)
	}
	if want := FromFloat(0.24); !sum.Equal(want) {
		t.Errorf("sum = %s, want %s", sum, want)
	}
}

func TestFromString(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOk bool
	}{
		{"0.03", "0.03", true},
		{"100", "100", true},
		{"-1.5", "-1.5", true},
		{"0.123456789", "0.12345679", true}, // rounded to 8 places
		{"", "", false},
		{"abc", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := FromString(tt.in)
			if ok != tt.wantOk {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOk)
			}
			if !ok {
				return
			}
			want, _ := decimal.NewFromString(tt.want)
			if !got.Equal(want) {
				t.Errorf("got %s, want %s", got, want)
			}
		})
	}
}

func TestMin(t *testing.T) {
	a := FromFloat(0.3)
	b := FromFloat(0.03)
	if got := Min(a, b); !got.Equal(b) {
		t.Errorf("Min = %s, want %s", got, b)
	}
	if got := Min(b, a); !got.Equal(b) {
		t.Errorf("Min = %s, want %s", got, b)
	}
}

func TestEqualAfterRounding(t *testing.T) {
	b, _ := decimal.NewFromString("0.03")

	a, _ := decimal.NewFromString("0.03000001")
	if Equal(a, b) {
		t.Error("amounts differing at the 8th place are not equal")
	}

	c, _ := decimal.NewFromString("0.030000001")
	if !Equal(c, b) {
		t.Error("amounts equal after rounding to 8 places should compare equal")
	}
}
