package api

import (
	"fmt"

	"github.com/ChrisMcGann/LipidKey/pkg/core"
)

type lipidKey struct {
	lipidType   core.LipidType
	carbons     int
	doubleBonds int
}

// population converts request annotations, sharing one lipid per species.
type population struct {
	lipids map[lipidKey]*core.Lipid
}

func newPopulation() *population {
	return &population{lipids: make(map[lipidKey]*core.Lipid)}
}

func (p *population) lipid(a Annotation) (*core.Lipid, error) {
	var l core.Lipid
	switch {
	case a.Class != "" && a.Carbons != nil && a.DoubleBonds != nil:
		t, err := core.ParseLipidType(a.Class)
		if err != nil {
			return nil, err
		}
		l = core.Lipid{Name: a.Name, Type: t, CarbonCount: *a.Carbons, DoubleBondsCount: *a.DoubleBonds}
		if l.Name == "" {
			l.Name = l.Shorthand()
		}
	case a.Name != "":
		parsed, err := core.ParseLipidName(a.Name)
		if err != nil {
			return nil, err
		}
		l = parsed
	default:
		return nil, fmt.Errorf("name or class/carbons/double_bonds required")
	}

	key := lipidKey{l.Type, l.CarbonCount, l.DoubleBondsCount}
	if shared, ok := p.lipids[key]; ok {
		return shared, nil
	}
	p.lipids[key] = &l
	return &l, nil
}

func (p *population) annotation(a Annotation) (*core.Annotation, error) {
	l, err := p.lipid(a)
	if err != nil {
		return nil, err
	}

	mode := core.Positive
	if a.IonMode != "" {
		if mode, err = core.ParseIonizationMode(a.IonMode); err != nil {
			return nil, err
		}
	}

	peaks := make([]core.Peak, len(a.Peaks))
	for i, pk := range a.Peaks {
		peaks[i] = core.Peak{MZ: pk.MZ, Intensity: pk.Intensity}
	}

	ann := core.NewAnnotation(l, a.MZ, a.Intensity, a.RTMin, mode, peaks...)
	if a.Adduct != "" {
		if err := ann.SetAdduct(a.Adduct); err != nil {
			return nil, err
		}
	}
	if err := ann.Validate(); err != nil {
		return nil, err
	}
	return ann, nil
}

func scored(a *core.Annotation) ScoredAnnotation {
	return ScoredAnnotation{
		Name:               a.Lipid.String(),
		Class:              a.Lipid.Type.String(),
		Carbons:            a.Lipid.CarbonCount,
		DoubleBonds:        a.Lipid.DoubleBondsCount,
		MZ:                 a.MZ,
		RTMin:              a.RTMin,
		Adduct:             a.Adduct(),
		Score:              a.Score(),
		ComparisonsApplied: a.ComparisonsApplied(),
		NormalizedScore:    a.NormalizedScore(),
	}
}
