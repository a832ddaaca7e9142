package adduct

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/LipidKey/pkg/core"
)

func TestDefaultCatalogs(t *testing.T) {
	cats := DefaultCatalogs()
	require.NotNil(t, cats.Positive)
	require.NotNil(t, cats.Negative)

	assert.Same(t, cats.Positive, cats.For(core.Positive))
	assert.Same(t, cats.Negative, cats.For(core.Negative))
	assert.Nil(t, cats.For(core.IonizationMode(7)))

	pos := cats.Positive.Entries()
	require.NotEmpty(t, pos)
	assert.Equal(t, "[M+H]+", pos[0].Notation)
	assert.InDelta(t, -1.007276, pos[0].MassShift, 1e-6)

	na, ok := cats.Positive.Get("[M+Na]+")
	require.True(t, ok)
	assert.InDelta(t, -22.989221, na.MassShift, 1e-6)

	nh4, ok := cats.Positive.Get("[M+NH4]+")
	require.True(t, ok)
	assert.InDelta(t, -18.033826, nh4.MassShift, 1e-6)

	neg := cats.Negative.Entries()
	require.NotEmpty(t, neg)
	assert.Equal(t, "[M-H]-", neg[0].Notation)
	assert.InDelta(t, 1.007276, neg[0].MassShift, 1e-6)

	formate, ok := cats.Negative.Get("[M+HCOOH-H]-")
	require.True(t, ok)
	assert.InDelta(t, -44.998203, formate.MassShift, 1e-6)

	assert.Equal(t, core.Positive, cats.Positive.Mode())
	assert.Equal(t, core.Negative, cats.Negative.Mode())
}

func TestDefaultCatalogsAreIndependent(t *testing.T) {
	a := DefaultPositiveCatalog()
	b := DefaultPositiveCatalog()
	a.Add("[M+H]+", 0)

	got, _ := b.Get("[M+H]+")
	assert.NotEqual(t, 0.0, got.MassShift)
}

func TestCatalogAddKeepsOrder(t *testing.T) {
	c := NewCatalog(core.Positive)
	c.Add("[M+H]+", -1.0)
	c.Add("[M+Na]+", -23.0)
	c.Add("[M+H]+", -1.007276)

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "[M+H]+", entries[0].Notation)
	assert.Equal(t, -1.007276, entries[0].MassShift)
	assert.Equal(t, "[M+Na]+", entries[1].Notation)

	entries[0].Notation = "changed"
	got, ok := c.Get("[M+H]+")
	assert.True(t, ok)
	assert.Equal(t, "[M+H]+", got.Notation)

	_, ok = c.Get("[M+K]+")
	assert.False(t, ok)
}

func TestCatalogLoadFromCSV(t *testing.T) {
	input := `notation,massshift
[M+H]+,-1.007276
# custom entries
[M+Li]+, -7.015455

[M+H]+,-1.0073
`
	c := NewCatalog(core.Positive)
	require.NoError(t, c.LoadFromCSV(strings.NewReader(input)))

	assert.Equal(t, 2, c.Len())
	h, _ := c.Get("[M+H]+")
	assert.Equal(t, -1.0073, h.MassShift)
	li, ok := c.Get("[M+Li]+")
	require.True(t, ok)
	assert.Equal(t, -7.015455, li.MassShift)
}

func TestCatalogLoadFromCSVErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"missing field", "notation,massshift\n[M+H]+\n", "line 2"},
		{"bad mass", "notation,massshift\n[M+H]+,abc\n", "invalid mass shift"},
		{"empty notation", "notation,massshift\n,1.0\n", "empty adduct notation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewCatalog(core.Positive).LoadFromCSV(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
