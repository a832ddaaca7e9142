package msp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/LipidKey/pkg/core"
)

const sample = `NAME: PC 34:1
PRECURSORMZ: 760.5851
RETENTIONTIME: 7.42
IONMODE: Positive
Num Peaks: 2
760.5851	1200
782.5670	800

# second candidate for the same species
NAME: PC(34:1)
PRECURSORMZ: 782.5670
INTENSITY: 950
RETENTIONTIME: 7.45
IONMODE: POS
ADDUCT: [M+Na]+
Num Peaks: 1
782.5670 950

NAME: unknown feature
CLASS: pe
CARBONS: 36
DOUBLEBONDS: 2
PRECURSORMZ: 742.5
RETENTIONTIME: 6.1
IONMODE: negative
Num Peaks: 0
`

func TestReaderParsesEntries(t *testing.T) {
	r := NewReader(strings.NewReader(sample))

	var anns []*core.Annotation
	for r.Next() {
		anns = append(anns, r.Annotation())
	}
	require.NoError(t, r.Err())
	require.Len(t, anns, 3)

	first := anns[0]
	assert.Equal(t, core.PC, first.Lipid.Type)
	assert.Equal(t, 34, first.Lipid.CarbonCount)
	assert.Equal(t, 1, first.Lipid.DoubleBondsCount)
	assert.Equal(t, 760.5851, first.MZ)
	assert.Equal(t, 7.42, first.RTMin)
	assert.Equal(t, core.Positive, first.IonizationMode)
	assert.Equal(t, 1200.0, first.Intensity, "intensity defaults to the most intense peak")
	assert.False(t, first.HasAdduct())
	assert.Len(t, first.GroupedSignals(), 2)

	second := anns[1]
	assert.Same(t, first.Lipid, second.Lipid, "identical species share one lipid")
	assert.Equal(t, 950.0, second.Intensity)
	assert.Equal(t, "[M+Na]+", second.Adduct())

	third := anns[2]
	assert.Equal(t, core.PE, third.Lipid.Type)
	assert.Equal(t, 36, third.Lipid.CarbonCount)
	assert.Equal(t, 2, third.Lipid.DoubleBondsCount)
	assert.Equal(t, "unknown feature", third.Lipid.Name)
	assert.Equal(t, core.Negative, third.IonizationMode)
	assert.Empty(t, third.GroupedSignals())

	assert.Equal(t, 2, r.Lipids())
}

func TestExplicitFieldsOverrideName(t *testing.T) {
	input := `NAME: PC 34:1
CARBONS: 36
PRECURSORMZ: 700
`
	anns, err := ReadAll(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, anns, 1)
	assert.Equal(t, core.PC, anns[0].Lipid.Type)
	assert.Equal(t, 36, anns[0].Lipid.CarbonCount)
	assert.Equal(t, 1, anns[0].Lipid.DoubleBondsCount)
	assert.Equal(t, 0.0, anns[0].RTMin)
}

func TestNameOnlyFromFields(t *testing.T) {
	input := `CLASS: TG
CARBONS: 52
DOUBLEBONDS: 2
PRECURSORMZ: 876.8
`
	anns, err := ReadAll(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, anns, 1)
	assert.Equal(t, "TG 52:2", anns[0].Lipid.Name)
}

func TestReaderErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "bad peak",
			input:   "NAME: PC 34:1\nPRECURSORMZ: 760.6\nNum Peaks: 1\n760.6 abc\n",
			wantErr: "line 4",
		},
		{
			name:    "truncated peaks",
			input:   "NAME: PC 34:1\nPRECURSORMZ: 760.6\nNum Peaks: 2\n760.6 10\n",
			wantErr: "expected 2 peaks",
		},
		{
			name:    "short block",
			input:   "NAME: PC 34:1\nPRECURSORMZ: 760.6\nNum Peaks: 2\n760.6 10\n\n",
			wantErr: "expected 2 peaks",
		},
		{
			name:    "missing precursor",
			input:   "NAME: PC 34:1\nNum Peaks: 0\n",
			wantErr: "missing PRECURSORMZ",
		},
		{
			name:    "unknown class",
			input:   "NAME: XX 34:1\nPRECURSORMZ: 760.6\n",
			wantErr: "unknown lipid type",
		},
		{
			name:    "missing identity",
			input:   "PRECURSORMZ: 760.6\n",
			wantErr: "missing NAME",
		},
		{
			name:    "bad ion mode",
			input:   "NAME: PC 34:1\nPRECURSORMZ: 760.6\nIONMODE: neutral\n",
			wantErr: "invalid ionization mode",
		},
		{
			name:    "not a header",
			input:   "NAME: PC 34:1\ngarbage\n",
			wantErr: "line 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadAll(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEmptyInput(t *testing.T) {
	anns, err := ReadAll(strings.NewReader("\n\n# nothing here\n"))
	require.NoError(t, err)
	assert.Empty(t, anns)
}

func TestHeadersAfterEmptyPeakList(t *testing.T) {
	input := `NAME: PE 36:2
PRECURSORMZ: 742.5
Num Peaks: 0
RETENTIONTIME: 6.1
IONMODE: negative

NAME: PE 38:4
PRECURSORMZ: 766.5
RETENTIONTIME: 5.8
Num Peaks: 0
`
	anns, err := ReadAll(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, anns, 2)
	assert.Equal(t, 6.1, anns[0].RTMin)
	assert.Equal(t, core.Negative, anns[0].IonizationMode)
	assert.Equal(t, 38, anns[1].Lipid.CarbonCount)
	assert.Equal(t, 5.8, anns[1].RTMin)
}
