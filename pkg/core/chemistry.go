// Package core provides chemistry constants and the lipid annotation models used by LipidKey
package core

import "math"

// Atomic masses (monoisotopic)
const (
	MassH  = 1.0078250321
	MassC  = 12.0000000000
	MassN  = 14.0030740052
	MassO  = 15.9949146221
	MassP  = 30.9737615100
	MassNa = 22.9897692820
	MassK  = 38.9637064864
	MassCl = 34.9688526820

	// Proton and electron masses for charge calculations
	ProtonMass   = 1.00727646688
	ElectronMass = 0.000548579909
)

// Composition stores an elemental composition
type Composition struct {
	C, H, N, O, P, Na, K, Cl int
}

// Common neutral losses and adducting species
var (
	Water      = Composition{H: 2, O: 1}
	Ammonium   = Composition{N: 1, H: 4}
	FormicAcid = Composition{C: 1, H: 2, O: 2}
	AceticAcid = Composition{C: 2, H: 4, O: 2}
	Sodium     = Composition{Na: 1}
	Potassium  = Composition{K: 1}
	Chlorine   = Composition{Cl: 1}
)

// MonoisotopicMass returns the neutral monoisotopic mass of a composition
func (c Composition) MonoisotopicMass() float64 {
	return float64(c.C)*MassC +
		float64(c.H)*MassH +
		float64(c.N)*MassN +
		float64(c.O)*MassO +
		float64(c.P)*MassP +
		float64(c.Na)*MassNa +
		float64(c.K)*MassK +
		float64(c.Cl)*MassCl
}

// CationMass returns the mass of the singly charged cation of a composition
func (c Composition) CationMass() float64 {
	return c.MonoisotopicMass() - ElectronMass
}

// AnionMass returns the mass of the singly charged anion of a composition
func (c Composition) AnionMass() float64 {
	return c.MonoisotopicMass() + ElectronMass
}

// RoundFloat rounds a float to n decimal places
func RoundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
