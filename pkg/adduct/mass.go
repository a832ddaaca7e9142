// Package adduct converts between m/z and neutral mass for adduct ions and infers
// the adduct of an annotation from its grouped peaks.
package adduct

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// ErrNonPositiveMass is returned by guarded ppm helpers for a theoretical mass <= 0.
var ErrNonPositiveMass = errors.New("theoretical mass must be positive")

var (
	// Number directly before M after the opening bracket, e.g. [2M or [M
	multimerPattern = regexp.MustCompile(`\[([0-9]*)M`)
	// Number directly before the trailing + or -, optionally followed by ]
	chargePattern = regexp.MustCompile(`([0-9]*)([+-])\]?$`)
)

// ExtractMultimer returns the number of molecules in the adduct notation.
// Missing or unparseable digits mean 1.
func ExtractMultimer(notation string) int {
	m := multimerPattern.FindStringSubmatch(notation)
	if m == nil {
		return 1
	}
	return atoiOrOne(m[1])
}

// ExtractCharge returns the absolute charge of the adduct notation.
// Missing or unparseable digits mean 1.
func ExtractCharge(notation string) int {
	m := chargePattern.FindStringSubmatch(notation)
	if m == nil {
		return 1
	}
	return atoiOrOne(m[1])
}

func atoiOrOne(digits string) int {
	if digits == "" {
		return 1
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// MassFromMZ returns the neutral monoisotopic mass of an ion observed at mz as adduct a.
func MassFromMZ(mz float64, a Adduct) float64 {
	multimer := a.Multimer()
	charge := a.Charge()
	shift := a.MassShift / float64(charge)

	switch {
	case charge == 1 && multimer == 1:
		return mz + shift
	case charge > 1 && multimer == 1:
		return (mz + shift) * float64(charge)
	case charge == 1 && multimer > 1:
		return (mz + shift) / float64(multimer)
	default:
		return ((mz + shift) * float64(charge)) / float64(multimer)
	}
}

// MZFromMass returns the m/z expected for a neutral mass ionised as adduct a.
func MZFromMass(mass float64, a Adduct) float64 {
	multimer := a.Multimer()
	charge := a.Charge()
	shift := a.MassShift / float64(charge)

	switch {
	case charge == 1 && multimer == 1:
		return mass - shift
	case charge > 1 && multimer == 1:
		return mass/float64(charge) - shift
	case charge == 1 && multimer > 1:
		return mass*float64(multimer) - shift
	default:
		return (mass*float64(multimer))/float64(charge) - shift
	}
}

// PPMError returns the rounded absolute error in parts per million.
// The theoretical mass must be positive; see CheckedPPMError.
func PPMError(experimental, theoretical float64) int {
	return int(math.Round(math.Abs((experimental - theoretical) * 1e6 / theoretical)))
}

// CheckedPPMError is PPMError with input validation.
func CheckedPPMError(experimental, theoretical float64) (int, error) {
	if math.IsNaN(experimental) || math.IsInf(experimental, 0) {
		return 0, fmt.Errorf("invalid experimental mass %v", experimental)
	}
	if math.IsNaN(theoretical) || math.IsInf(theoretical, 0) || theoretical <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrNonPositiveMass, theoretical)
	}
	return PPMError(experimental, theoretical), nil
}

// DeltaFromPPM returns the absolute mass window corresponding to ppm at mass.
func DeltaFromPPM(mass float64, ppm int) float64 {
	return math.Abs(mass * float64(ppm) / 1e6)
}
