// Package sqlite provides SQLite database writing for scored annotation runs
package sqlite

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/ChrisMcGann/LipidKey/pkg/core"
	"github.com/ChrisMcGann/LipidKey/pkg/scoring"
)

// Date format for RunTable (RFC 3339, UTC)
const creationDateFormat = time.RFC3339

var (
	// ErrLocked is returned when another process is writing the same output
	ErrLocked = errors.New("output database is locked by another process")
	// ErrExists is returned when the output exists and overwriting is disabled
	ErrExists = errors.New("output database already exists")
)

// Writer handles writing one scoring run to a SQLite database file
type Writer struct {
	db             *sql.DB
	tx             *sql.Tx
	lock           *flock.Flock
	outputPath     string
	runID          string
	lipidStmt      *sql.Stmt
	annotationStmt *sql.Stmt
	lipidIDs       map[*core.Lipid]int64
	annotationID   int64
	pairs          int
	ruleHits       map[string]int
	closed         bool
}

// NewWriter creates a new SQLite writer. The output is locked for the writer's lifetime.
func NewWriter(outputPath string, overwrite bool) (*Writer, error) {
	lock := flock.New(outputPath + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, outputPath)
	}

	if err := prepareOutput(outputPath, overwrite); err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	db, err := sql.Open(DriverName, outputPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	w := &Writer{
		db:           db,
		lock:         lock,
		outputPath:   outputPath,
		runID:        uuid.NewString(),
		lipidIDs:     make(map[*core.Lipid]int64),
		annotationID: 1,
		ruleHits:     make(map[string]int),
	}

	if err := w.createTables(); err != nil {
		w.abort()
		return nil, err
	}

	if err := w.prepareStatements(); err != nil {
		w.abort()
		return nil, err
	}

	return w, nil
}

func prepareOutput(outputPath string, overwrite bool) error {
	_, err := os.Stat(outputPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("stat output: %w", err)
	case !overwrite:
		return fmt.Errorf("%w: %s", ErrExists, outputPath)
	}
	if err := os.Remove(outputPath); err != nil {
		return fmt.Errorf("remove existing output: %w", err)
	}
	return nil
}

// RunID returns the identifier recorded for this run
func (w *Writer) RunID() string {
	return w.runID
}

// Path returns the database file path
func (w *Writer) Path() string {
	return w.outputPath
}

// createTables creates the required database schema
func (w *Writer) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS RunTable (
		RunId TEXT PRIMARY KEY,
		CreationDate TEXT,
		Annotations INTEGER,
		Pairs INTEGER
	);

	CREATE TABLE IF NOT EXISTS LipidTable (
		LipidId INTEGER PRIMARY KEY,
		Name TEXT,
		Class TEXT,
		Carbons INTEGER,
		DoubleBonds INTEGER
	);

	CREATE TABLE IF NOT EXISTS AnnotationTable (
		AnnotationId INTEGER PRIMARY KEY,
		RunId TEXT REFERENCES RunTable(RunId),
		LipidId INTEGER REFERENCES LipidTable(LipidId),
		MZ DOUBLE,
		Intensity DOUBLE,
		RetentionTime DOUBLE,
		Polarity TEXT,
		Adduct TEXT,
		Score INTEGER,
		ComparisonsApplied INTEGER,
		NormalizedScore DOUBLE,
		blobMass BLOB,
		blobIntensity BLOB
	);

	CREATE TABLE IF NOT EXISTS RuleHitTable (
		RunId TEXT REFERENCES RunTable(RunId),
		Rule TEXT,
		Hits INTEGER
	);
	`

	_, err := w.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// prepareStatements opens the run transaction and prepares batch insertion statements
func (w *Writer) prepareStatements() error {
	var err error

	w.tx, err = w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	w.lipidStmt, err = w.tx.Prepare(`
		INSERT INTO LipidTable (LipidId, Name, Class, Carbons, DoubleBonds)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare lipid statement: %w", err)
	}

	w.annotationStmt, err = w.tx.Prepare(`
		INSERT INTO AnnotationTable (
			AnnotationId, RunId, LipidId, MZ, Intensity, RetentionTime,
			Polarity, Adduct, Score, ComparisonsApplied, NormalizedScore,
			blobMass, blobIntensity
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare annotation statement: %w", err)
	}

	return nil
}

// lipidID returns the row for a shared lipid, inserting it on first use
func (w *Writer) lipidID(l *core.Lipid) (int64, error) {
	if id, ok := w.lipidIDs[l]; ok {
		return id, nil
	}

	id := int64(len(w.lipidIDs) + 1)
	_, err := w.lipidStmt.Exec(
		id,                 // LipidId
		l.String(),         // Name
		l.Type.String(),    // Class
		l.CarbonCount,      // Carbons
		l.DoubleBondsCount, // DoubleBonds
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert lipid: %w", err)
	}

	w.lipidIDs[l] = id
	return id, nil
}

// WriteAnnotation writes a single scored annotation to the database
func (w *Writer) WriteAnnotation(ann *core.Annotation) error {
	if w.closed {
		return errors.New("writer is closed")
	}
	if ann == nil || ann.Lipid == nil {
		return errors.New("annotation without lipid")
	}

	lipidID, err := w.lipidID(ann.Lipid)
	if err != nil {
		return err
	}

	// Encode peaks as binary blobs (little-endian float64)
	peaks := ann.GroupedSignals()
	mzBlob := encodePeaksFloat64(peaks, true)   // m/z values
	intBlob := encodePeaksFloat64(peaks, false) // intensity values

	var adduct any
	if ann.HasAdduct() {
		adduct = ann.Adduct()
	}

	_, err = w.annotationStmt.Exec(
		w.annotationID,                // AnnotationId
		w.runID,                       // RunId
		lipidID,                       // LipidId
		ann.MZ,                        // MZ
		ann.Intensity,                 // Intensity
		ann.RTMin,                     // RetentionTime
		ann.IonizationMode.Polarity(), // Polarity
		adduct,                        // Adduct
		ann.Score(),                   // Score
		ann.ComparisonsApplied(),      // ComparisonsApplied
		ann.NormalizedScore(),         // NormalizedScore
		mzBlob,                        // blobMass
		intBlob,                       // blobIntensity
	)
	if err != nil {
		return fmt.Errorf("failed to insert annotation: %w", err)
	}

	w.annotationID++
	return nil
}

// WriteAll writes every annotation in order
func (w *Writer) WriteAll(anns []*core.Annotation) error {
	for i, ann := range anns {
		if err := w.WriteAnnotation(ann); err != nil {
			return fmt.Errorf("annotation %d: %w", i, err)
		}
	}
	return nil
}

// RecordSummary stores the scoring summary written to RunTable and RuleHitTable on Finalize
func (w *Writer) RecordSummary(summary scoring.Summary) {
	w.pairs = summary.Pairs
	for rule, hits := range summary.RuleHits {
		w.ruleHits[rule] = hits
	}
}

// encodePeaksFloat64 encodes peak data as little-endian float64 blob
func encodePeaksFloat64(peaks []core.Peak, useMZ bool) []byte {
	buf := make([]byte, len(peaks)*8)
	for i, peak := range peaks {
		var value float64
		if useMZ {
			value = peak.MZ
		} else {
			value = peak.Intensity
		}
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(value))
	}
	return buf
}

// DecodePeaksFloat64 decodes a blob written by the writer
func DecodePeaksFloat64(blob []byte) ([]float64, error) {
	if len(blob)%8 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 8", len(blob))
	}
	out := make([]float64, len(blob)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return out, nil
}

// Finalize writes the run and rule hit tables, commits and closes the database
func (w *Writer) Finalize() error {
	if w.closed {
		return nil
	}

	// Write RunTable
	_, err := w.tx.Exec(`
		INSERT INTO RunTable (RunId, CreationDate, Annotations, Pairs)
		VALUES (?, ?, ?, ?)
	`, w.runID, time.Now().UTC().Format(creationDateFormat), w.annotationID-1, w.pairs)
	if err != nil {
		w.abort()
		return fmt.Errorf("failed to insert run: %w", err)
	}

	// Write RuleHitTable in a stable order
	rules := make([]string, 0, len(w.ruleHits))
	for rule := range w.ruleHits {
		rules = append(rules, rule)
	}
	sort.Strings(rules)
	for _, rule := range rules {
		_, err := w.tx.Exec(`
			INSERT INTO RuleHitTable (RunId, Rule, Hits) VALUES (?, ?, ?)
		`, w.runID, rule, w.ruleHits[rule])
		if err != nil {
			w.abort()
			return fmt.Errorf("failed to insert rule hits: %w", err)
		}
	}

	w.closeStatements()

	if err := w.tx.Commit(); err != nil {
		w.abort()
		return fmt.Errorf("failed to commit: %w", err)
	}
	w.tx = nil

	return w.release()
}

// Close discards the run unless Finalize already committed it. Deferring Close
// after a failed write leaves no partial database behind.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.abort()
	return nil
}

func (w *Writer) closeStatements() {
	if w.lipidStmt != nil {
		w.lipidStmt.Close()
		w.lipidStmt = nil
	}
	if w.annotationStmt != nil {
		w.annotationStmt.Close()
		w.annotationStmt = nil
	}
}

// abort rolls back the run, releases every resource and removes the output,
// which is always created by NewWriter
func (w *Writer) abort() {
	w.closeStatements()
	if w.tx != nil {
		_ = w.tx.Rollback()
		w.tx = nil
	}
	if w.closed {
		return
	}
	w.closed = true
	_ = w.db.Close()
	_ = os.Remove(w.outputPath)
	_ = w.lock.Unlock()
}

func (w *Writer) release() error {
	if w.closed {
		return nil
	}
	w.closed = true

	// Close database
	err := w.db.Close()
	if unlockErr := w.lock.Unlock(); unlockErr != nil && err == nil {
		err = unlockErr
	}
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}
