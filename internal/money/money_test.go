package money

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    int64
		wantErr error
	}{
		{name: "integer", in: "10", want: 1_000},
		{name: "one_decimal", in: "7.5", want: 750},
		{name: "two_decimals", in: "7.50", want: 750},
		{name: "negative", in: "-2.25", want: -225},
		{name: "plus_sign", in: "+1.01", want: 101},
		{name: "zero", in: "0", want: 0},
		{name: "padded", in: "  5.00 ", want: 500},
		{name: "trailing_zeros_beyond_scale", in: "1.500", want: 150},
		{name: "too_precise", in: "1.234", wantErr: ErrTooPrecise},
		{name: "empty", in: "", wantErr: ErrEmptyAmount},
		{name: "garbage", in: "12,5", wantErr: ErrInvalidAmount},
		{name: "overflow", in: "999999999999999999999", wantErr: ErrOutOfRange},
		{name: "huge_exponent", in: "1e1000000", wantErr: ErrOutOfRange},
		{name: "huge_negative_exponent", in: "1e-1000000", wantErr: ErrTooPrecise},
		{name: "small_exponent", in: "15e-1", want: 150},
		{name: "positive_exponent", in: "2e3", want: 200000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want error %v, got %v", tt.wantErr, err)
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != tt.want {
				t.Fatalf("minor units: want %d, got %d", tt.want, got)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		minor int64
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{750, "7.50"},
		{1_000, "10.00"},
		{-225, "-2.25"},
	}

	for _, tt := range tests {
		if got := Format(tt.minor); got != tt.want {
			t.Fatalf("Format(%d): want %s, got %s", tt.minor, tt.want, got)
		}
	}
}

func TestFromDecimal_RoundTrip(t *testing.T) {
	t.Parallel()

	d := decimal.RequireFromString("12.34")

	minor, err := FromDecimal(d)
	if err != nil {
		t.Fatalf("from decimal: %v", err)
	}

	if !ToDecimal(minor).Equal(d) {
		t.Fatalf("round trip mismatch: %s vs %s", ToDecimal(minor), d)
	}
}
