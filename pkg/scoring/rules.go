// Package scoring rates lipid annotations by checking every ordered pair of a
// population against retention-time elution-order rules.
package scoring

import "github.com/ChrisMcGann/LipidKey/pkg/core"

// Relation is a structural relationship between two annotations (a1 vs a2).
type Relation func(a1, a2 *core.Annotation) bool

// Direction is the retention order a rule expects between a2 and a1.
type Direction int

const (
	// Earlier holds when a2 elutes before a1.
	Earlier Direction = iota
	// Later holds when a2 elutes after a1.
	Later
)

func (d Direction) String() string {
	if d == Later {
		return "later"
	}
	return "earlier"
}

// Holds reports whether a2's retention time lies in direction d relative to a1.
func (d Direction) Holds(a1, a2 *core.Annotation) bool {
	if d == Later {
		return a2.RTMin > a1.RTMin
	}
	return a2.RTMin < a1.RTMin
}

// Rule rewards or penalises an ordered pair whose structure and elution order match.
type Rule struct {
	Name      string
	Relation  Relation
	Direction Direction
	Delta     int
}

// Matches reports whether the rule fires for the ordered pair (a1, a2).
func (r Rule) Matches(a1, a2 *core.Annotation) bool {
	return r.Relation(a1, a2) && r.Direction.Holds(a1, a2)
}

// FewerCarbons: same class and unsaturation, a2 has a shorter chain.
func FewerCarbons(a1, a2 *core.Annotation) bool {
	l1, l2 := a1.Lipid, a2.Lipid
	return l1.Type == l2.Type &&
		l1.DoubleBondsCount == l2.DoubleBondsCount &&
		l2.CarbonCount < l1.CarbonCount
}

// MoreDoubleBonds: same class and chain length, a2 is more unsaturated.
func MoreDoubleBonds(a1, a2 *core.Annotation) bool {
	l1, l2 := a1.Lipid, a2.Lipid
	return l1.Type == l2.Type &&
		l2.DoubleBondsCount > l1.DoubleBondsCount &&
		l1.CarbonCount == l2.CarbonCount
}

// LowerClassRank: same composition, a2 belongs to an earlier eluting class.
func LowerClassRank(a1, a2 *core.Annotation) bool {
	l1, l2 := a1.Lipid, a2.Lipid
	return l1.Type != l2.Type &&
		l2.Type.Rank() < l1.Type.Rank() &&
		l1.DoubleBondsCount == l2.DoubleBondsCount &&
		l1.CarbonCount == l2.CarbonCount
}

// DefaultRules returns the six elution-order rules. Rules 1-3 reward pairs that
// elute in the expected order; rules 4-6 penalise the same relations inverted.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "carbons-consistent", Relation: FewerCarbons, Direction: Earlier, Delta: 1},
		{Name: "double-bonds-consistent", Relation: MoreDoubleBonds, Direction: Earlier, Delta: 1},
		{Name: "class-consistent", Relation: LowerClassRank, Direction: Earlier, Delta: 1},
		{Name: "carbons-inverted", Relation: FewerCarbons, Direction: Later, Delta: -1},
		{Name: "double-bonds-inverted", Relation: MoreDoubleBonds, Direction: Later, Delta: -1},
		{Name: "class-inverted", Relation: LowerClassRank, Direction: Later, Delta: -1},
	}
}
