package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChrisMcGann/LipidKey/pkg/core"
	"github.com/ChrisMcGann/LipidKey/pkg/scoring"
)

func scoredPopulation(t *testing.T) ([]*core.Annotation, scoring.Summary) {
	t.Helper()
	pc32 := &core.Lipid{Name: "PC 32:0", Type: core.PC, CarbonCount: 32}
	pc34 := &core.Lipid{Name: "PC 34:0", Type: core.PC, CarbonCount: 34}

	a1 := core.NewAnnotation(pc32, 734.5694, 500, 6.1, core.Positive,
		core.Peak{MZ: 734.5694, Intensity: 500},
		core.Peak{MZ: 756.5513, Intensity: 250},
	)
	require.NoError(t, a1.SetAdduct("[M+H]+"))
	a2 := core.NewAnnotation(pc34, 762.6007, 400, 7.3, core.Positive)
	a3 := core.NewAnnotation(pc34, 762.6010, 100, 7.4, core.Positive)

	anns := []*core.Annotation{a1, a2, a3}
	summary, err := scoring.NewScorer().Score(context.Background(), anns)
	require.NoError(t, err)
	return anns, summary
}

func TestWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.db")
	anns, summary := scoredPopulation(t)

	w, err := NewWriter(path, false)
	require.NoError(t, err)
	runID := w.RunID()
	require.NotEmpty(t, runID)

	require.NoError(t, w.WriteAll(anns))
	w.RecordSummary(summary)
	require.NoError(t, w.Finalize())
	require.NoError(t, w.Close(), "closing twice is a no-op")

	db, err := sql.Open(DriverName, path)
	require.NoError(t, err)
	defer db.Close()

	var count, pairs int
	var storedRun string
	require.NoError(t, db.QueryRow(`SELECT RunId, Annotations, Pairs FROM RunTable`).Scan(&storedRun, &count, &pairs))
	assert.Equal(t, runID, storedRun)
	assert.Equal(t, 3, count)
	assert.Equal(t, 6, pairs)

	var lipids int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM LipidTable`).Scan(&lipids))
	assert.Equal(t, 2, lipids, "shared lipids are stored once")

	var (
		adduct     sql.NullString
		score      int
		compared   int
		normalized float64
		polarity   string
		blobMass   []byte
		blobInt    []byte
	)
	require.NoError(t, db.QueryRow(`
		SELECT Adduct, Score, ComparisonsApplied, NormalizedScore, Polarity, blobMass, blobIntensity
		FROM AnnotationTable WHERE AnnotationId = 1
	`).Scan(&adduct, &score, &compared, &normalized, &polarity, &blobMass, &blobInt))
	assert.Equal(t, "[M+H]+", adduct.String)
	assert.Equal(t, anns[0].Score(), score)
	assert.Equal(t, anns[0].ComparisonsApplied(), compared)
	assert.Equal(t, anns[0].NormalizedScore(), normalized)
	assert.Equal(t, "+", polarity)

	masses, err := DecodePeaksFloat64(blobMass)
	require.NoError(t, err)
	assert.Equal(t, []float64{734.5694, 756.5513}, masses)
	intensities, err := DecodePeaksFloat64(blobInt)
	require.NoError(t, err)
	assert.Equal(t, []float64{500, 250}, intensities)

	require.NoError(t, db.QueryRow(`SELECT Adduct FROM AnnotationTable WHERE AnnotationId = 2`).Scan(&adduct))
	assert.False(t, adduct.Valid, "unset adduct is stored as NULL")

	var hits int
	require.NoError(t, db.QueryRow(`SELECT Hits FROM RuleHitTable WHERE Rule = ?`, "carbons-consistent").Scan(&hits))
	assert.Equal(t, summary.RuleHits["carbons-consistent"], hits)

	var rules int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM RuleHitTable`).Scan(&rules))
	assert.Equal(t, len(scoring.DefaultRules()), rules)
}

func TestWriterRefusesExistingOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.db")
	require.NoError(t, os.WriteFile(path, []byte("not a database"), 0o644))

	_, err := NewWriter(path, false)
	assert.ErrorIs(t, err, ErrExists)

	w, err := NewWriter(path, true)
	require.NoError(t, err)
	require.NoError(t, w.Finalize())
}

func TestWriterLocksOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.db")

	w, err := NewWriter(path, false)
	require.NoError(t, err)

	_, err = NewWriter(path, true)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, w.Finalize())

	w2, err := NewWriter(path, true)
	require.NoError(t, err, "lock is released after finalize")
	require.NoError(t, w2.Finalize())
}

func TestWriteAfterClose(t *testing.T) {
	w, err := NewWriter(filepath.Join(t.TempDir(), "run.db"), false)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	l := &core.Lipid{Type: core.PE, CarbonCount: 36, DoubleBondsCount: 2}
	assert.Error(t, w.WriteAnnotation(core.NewAnnotation(l, 744.55, 1, 5, core.Negative)))
}

func TestDecodeRejectsTruncatedBlob(t *testing.T) {
	_, err := DecodePeaksFloat64([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestCloseAfterFailedWriteDiscardsRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.db")
	anns, _ := scoredPopulation(t)

	w, err := NewWriter(path, false)
	require.NoError(t, err)

	broken := core.NewAnnotation(nil, 700, 1, 5, core.Positive)
	err = w.WriteAll([]*core.Annotation{anns[0], broken})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "annotation 1")
	require.NoError(t, w.Close())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "partial run must not be left on disk")

	w2, err := NewWriter(path, false)
	require.NoError(t, err, "rerun without overwrite succeeds")
	require.NoError(t, w2.WriteAll(anns))
	require.NoError(t, w2.Finalize())

	db, err := sql.Open(DriverName, path)
	require.NoError(t, err)
	defer db.Close()

	var runs, rows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM RunTable`).Scan(&runs))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM AnnotationTable`).Scan(&rows))
	assert.Equal(t, 1, runs)
	assert.Equal(t, 3, rows)
}
