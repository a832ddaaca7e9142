package adduct

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/LipidKey/pkg/core"
)

// Adduct is one catalog entry. MassShift follows the convention mz = M - shift
// for a singly charged monomer, so cation adducts carry a negative shift.
type Adduct struct {
	Notation  string
	MassShift float64
}

// Multimer returns the number of neutral molecules in the ion.
func (a Adduct) Multimer() int {
	return ExtractMultimer(a.Notation)
}

// Charge returns the absolute charge of the ion.
func (a Adduct) Charge() int {
	return ExtractCharge(a.Notation)
}

func (a Adduct) String() string {
	return a.Notation
}

// Catalog is an ordered adduct table for one polarity. Order is match priority.
type Catalog struct {
	mode    core.IonizationMode
	entries []Adduct
	index   map[string]int // notation -> position in entries
}

// NewCatalog creates an empty catalog for a polarity.
func NewCatalog(mode core.IonizationMode) *Catalog {
	return &Catalog{
		mode:  mode,
		index: make(map[string]int),
	}
}

// Mode returns the polarity of the catalog.
func (c *Catalog) Mode() core.IonizationMode {
	return c.mode
}

// Add appends an adduct, or updates the shift of an existing notation in place.
func (c *Catalog) Add(notation string, massShift float64) {
	if i, ok := c.index[notation]; ok {
		c.entries[i].MassShift = massShift
		return
	}
	c.index[notation] = len(c.entries)
	c.entries = append(c.entries, Adduct{Notation: notation, MassShift: massShift})
}

// Get returns the adduct for a notation
func (c *Catalog) Get(notation string) (Adduct, bool) {
	i, ok := c.index[notation]
	if !ok {
		return Adduct{}, false
	}
	return c.entries[i], true
}

// Len returns the number of adducts.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entries returns a copy of the adducts in priority order.
func (c *Catalog) Entries() []Adduct {
	out := make([]Adduct, len(c.entries))
	copy(out, c.entries)
	return out
}

// LoadFromCSV loads adducts from a CSV file (format: notation,massshift)
func (c *Catalog) LoadFromCSV(r io.Reader) error {
	scanner := bufio.NewScanner(r)

	// Skip header line
	scanner.Scan()

	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			return fmt.Errorf("line %d: invalid format, expected at least 2 comma-separated fields", lineNum)
		}

		notation := strings.TrimSpace(parts[0])
		massStr := strings.TrimSpace(parts[1])
		if notation == "" {
			return fmt.Errorf("line %d: empty adduct notation", lineNum)
		}

		mass, err := strconv.ParseFloat(massStr, 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid mass shift '%s': %w", lineNum, massStr, err)
		}

		c.Add(notation, mass)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading CSV: %w", err)
	}

	return nil
}

// Catalogs holds one catalog per polarity.
type Catalogs struct {
	Positive *Catalog
	Negative *Catalog
}

// DefaultCatalogs returns fresh copies of the built-in tables.
func DefaultCatalogs() Catalogs {
	return Catalogs{
		Positive: DefaultPositiveCatalog(),
		Negative: DefaultNegativeCatalog(),
	}
}

// For returns the catalog matching an ionization mode, or nil.
func (c Catalogs) For(mode core.IonizationMode) *Catalog {
	switch mode {
	case core.Positive:
		return c.Positive
	case core.Negative:
		return c.Negative
	default:
		return nil
	}
}

// DefaultPositiveCatalog returns the built-in positive mode adducts.
func DefaultPositiveCatalog() *Catalog {
	proton := core.ProtonMass
	sodium := core.Sodium.CationMass()
	potassium := core.Potassium.CationMass()
	ammonium := core.Ammonium.CationMass()
	water := core.Water.MonoisotopicMass()

	c := NewCatalog(core.Positive)
	c.Add("[M+H]+", -proton)
	c.Add("[M+Na]+", -sodium)
	c.Add("[M+K]+", -potassium)
	c.Add("[M+NH4]+", -ammonium)
	c.Add("[M+H-H2O]+", -(proton - water))
	c.Add("[2M+H]+", -proton)
	c.Add("[2M+Na]+", -sodium)
	c.Add("[2M+NH4]+", -ammonium)
	c.Add("[M+2H]2+", -2*proton)
	c.Add("[M+H+NH4]2+", -(proton + ammonium))
	c.Add("[M+H+Na]2+", -(proton + sodium))
	c.Add("[M+2Na]2+", -2*sodium)
	c.Add("[M+3H]3+", -3*proton)
	return c
}

// DefaultNegativeCatalog returns the built-in negative mode adducts.
func DefaultNegativeCatalog() *Catalog {
	proton := core.ProtonMass
	chloride := core.Chlorine.AnionMass()
	formate := core.FormicAcid.MonoisotopicMass() - proton
	acetate := core.AceticAcid.MonoisotopicMass() - proton
	water := core.Water.MonoisotopicMass()
	sodium := core.Sodium.CationMass()

	c := NewCatalog(core.Negative)
	c.Add("[M-H]-", proton)
	c.Add("[M+Cl]-", -chloride)
	c.Add("[M+HCOOH-H]-", -formate)
	c.Add("[M+CH3COOH-H]-", -acetate)
	c.Add("[M-H-H2O]-", proton+water)
	c.Add("[M+Na-2H]-", -(sodium - 2*proton))
	c.Add("[2M-H]-", proton)
	c.Add("[2M+HCOOH-H]-", -formate)
	c.Add("[M-2H]2-", 2*proton)
	c.Add("[M-3H]3-", 3*proton)
	return c
}
