package core

import (
	"math"
	"testing"
)

func TestMonoisotopicMass(t *testing.T) {
	tests := []struct {
		name      string
		comp      Composition
		wantMass  float64
		tolerance float64
	}{
		{
			name:      "water",
			comp:      Water,
			wantMass:  18.010565,
			tolerance: 0.000001,
		},
		{
			name:      "ammonium",
			comp:      Ammonium,
			wantMass:  18.034374,
			tolerance: 0.000001,
		},
		{
			name:      "formic acid",
			comp:      FormicAcid,
			wantMass:  46.005479,
			tolerance: 0.000001,
		},
		{
			name:      "empty",
			comp:      Composition{},
			wantMass:  0,
			tolerance: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.comp.MonoisotopicMass()
			if math.Abs(got-tt.wantMass) > tt.tolerance {
				t.Errorf("MonoisotopicMass() = %.6f, want %.6f (within %.6f)", got, tt.wantMass, tt.tolerance)
			}
		})
	}
}

func TestIonMasses(t *testing.T) {
	na := Sodium.CationMass()
	if math.Abs(na-22.989221) > 0.000001 {
		t.Errorf("Na+ mass = %.6f, want 22.989221", na)
	}

	cl := Chlorine.AnionMass()
	if math.Abs(cl-34.969401) > 0.000001 {
		t.Errorf("Cl- mass = %.6f, want 34.969401", cl)
	}

	h := Composition{H: 1}.CationMass()
	if math.Abs(h-ProtonMass) > 0.0000001 {
		t.Errorf("H+ mass = %.8f, want %.8f", h, ProtonMass)
	}
}

func TestRoundFloat(t *testing.T) {
	tests := []struct {
		name      string
		val       float64
		precision int
		want      float64
	}{
		{"round to 2 decimals", 3.14159, 2, 3.14},
		{"round to 4 decimals", 3.14159, 4, 3.1416},
		{"round to 0 decimals", 3.6, 0, 4.0},
		{"round negative", -3.14159, 2, -3.14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundFloat(tt.val, tt.precision)
			if got != tt.want {
				t.Errorf("RoundFloat() = %v, want %v", got, tt.want)
			}
		})
	}
}
