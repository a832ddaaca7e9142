package core

import (
	"errors"
	"testing"
)

func TestLipidTypeRank(t *testing.T) {
	types := LipidTypes()
	if len(types) != 7 {
		t.Fatalf("expected 7 lipid types, got %d", len(types))
	}
	for i, lt := range types {
		if lt.Rank() != i {
			t.Errorf("%s rank = %d, want %d", lt, lt.Rank(), i)
		}
	}
	if PG.Rank() >= TG.Rank() {
		t.Error("PG should elute before TG")
	}
}

func TestLipidTypeString(t *testing.T) {
	if PC.String() != "PC" {
		t.Errorf("PC.String() = %q", PC.String())
	}
	if LipidType(99).String() != "LipidType(99)" {
		t.Errorf("unexpected out-of-range string %q", LipidType(99).String())
	}
}

func TestParseLipidType(t *testing.T) {
	got, err := ParseLipidType(" tg ")
	if err != nil || got != TG {
		t.Errorf("ParseLipidType(tg) = %v, %v", got, err)
	}

	_, err = ParseLipidType("SM")
	if !errors.Is(err, ErrUnknownLipidType) {
		t.Errorf("ParseLipidType(SM) error = %v, want ErrUnknownLipidType", err)
	}
}

func TestParseLipidName(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Lipid
		wantErr bool
	}{
		{
			name: "space separated",
			in:   "PC 34:1",
			want: Lipid{Name: "PC 34:1", Type: PC, CarbonCount: 34, DoubleBondsCount: 1},
		},
		{
			name: "parenthesised",
			in:   "PE(36:2)",
			want: Lipid{Name: "PE(36:2)", Type: PE, CarbonCount: 36, DoubleBondsCount: 2},
		},
		{
			name: "with suffix",
			in:   "TG 52:3;O",
			want: Lipid{Name: "TG 52:3;O", Type: TG, CarbonCount: 52, DoubleBondsCount: 3},
		},
		{
			name:    "unknown class",
			in:      "SM 34:1",
			wantErr: true,
		},
		{
			name:    "no composition",
			in:      "cholesterol",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLipidName(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLipidName() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseLipidName() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLipidShorthand(t *testing.T) {
	l := Lipid{Type: PS, CarbonCount: 38, DoubleBondsCount: 4}
	if l.Shorthand() != "PS 38:4" {
		t.Errorf("Shorthand() = %q", l.Shorthand())
	}
	if l.String() != "PS 38:4" {
		t.Errorf("String() without name = %q", l.String())
	}
}
