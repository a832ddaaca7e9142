package core

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnknownLipidType is returned when a lipid class abbreviation is not recognised.
var ErrUnknownLipidType = errors.New("unknown lipid type")

// LipidType is a lipid class. The declaration order is the reversed-phase elution
// order, so the numeric value doubles as the class rank.
type LipidType int

const (
	PG LipidType = iota // Phosphatidylglycerol
	PE                  // Phosphatidylethanolamine
	PI                  // Phosphatidylinositol
	PA                  // Phosphatidic acid
	PS                  // Phosphatidylserine
	PC                  // Phosphatidylcholine
	TG                  // Triacylglycerol
)

var lipidTypeNames = [...]string{"PG", "PE", "PI", "PA", "PS", "PC", "TG"}

// LipidTypes lists every supported class in rank order.
func LipidTypes() []LipidType {
	return []LipidType{PG, PE, PI, PA, PS, PC, TG}
}

// Rank returns the elution rank used for class-to-class comparisons.
func (t LipidType) Rank() int {
	return int(t)
}

func (t LipidType) String() string {
	if t < PG || t > TG {
		return fmt.Sprintf("LipidType(%d)", int(t))
	}
	return lipidTypeNames[t]
}

// ParseLipidType parses a class abbreviation such as "PC" (case-insensitive).
func ParseLipidType(s string) (LipidType, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, name := range lipidTypeNames {
		if name == s {
			return LipidType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLipidType, s)
}

// Lipid is an identified lipid species. Lipids are immutable and shared by
// pointer between the annotations that propose them.
type Lipid struct {
	Name             string
	Type             LipidType
	CarbonCount      int
	DoubleBondsCount int
}

func (l Lipid) String() string {
	if l.Name != "" {
		return l.Name
	}
	return l.Shorthand()
}

// Shorthand returns the sum composition notation, e.g. "PC 34:1".
func (l Lipid) Shorthand() string {
	return fmt.Sprintf("%s %d:%d", l.Type, l.CarbonCount, l.DoubleBondsCount)
}

// lipidNamePattern matches "PC 34:1", "PC(34:1)" and "TG 52:2;O" style names.
var lipidNamePattern = regexp.MustCompile(`^([A-Za-z]+)\s*\(?\s*(\d+):(\d+)`)

// ParseLipidName derives class, carbon count and double bonds from a shorthand name.
func ParseLipidName(name string) (Lipid, error) {
	name = strings.TrimSpace(name)
	matches := lipidNamePattern.FindStringSubmatch(name)
	if matches == nil {
		return Lipid{}, fmt.Errorf("invalid lipid name '%s', expected 'CLASS C:DB'", name)
	}

	lipidType, err := ParseLipidType(matches[1])
	if err != nil {
		return Lipid{}, fmt.Errorf("invalid lipid name '%s': %w", name, err)
	}

	carbons, err := strconv.Atoi(matches[2])
	if err != nil {
		return Lipid{}, fmt.Errorf("invalid carbon count in '%s': %w", name, err)
	}

	doubleBonds, err := strconv.Atoi(matches[3])
	if err != nil {
		return Lipid{}, fmt.Errorf("invalid double bond count in '%s': %w", name, err)
	}

	return Lipid{
		Name:             name,
		Type:             lipidType,
		CarbonCount:      carbons,
		DoubleBondsCount: doubleBonds,
	}, nil
}
