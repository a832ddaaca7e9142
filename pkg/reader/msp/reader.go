// Package msp provides streaming readers for MSP-style lipid annotation files
package msp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ChrisMcGann/LipidKey/pkg/core"
)

const maxLineSize = 1024 * 1024

// lipidKey identifies a lipid species independently of how its name was spelled
type lipidKey struct {
	lipidType   core.LipidType
	carbons     int
	doubleBonds int
}

// Reader provides streaming access to MSP annotation files
type Reader struct {
	scanner    *bufio.Scanner
	lineNum    int
	currentAnn *core.Annotation
	lipids     map[lipidKey]*core.Lipid
	err        error
}

// NewReader creates a new MSP reader
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	return &Reader{
		scanner: scanner,
		lipids:  make(map[lipidKey]*core.Lipid),
	}
}

// Next advances to the next annotation. Returns false when no more annotations or error.
func (r *Reader) Next() bool {
	r.currentAnn = nil

	ann, err := r.readAnnotation()
	if err != nil {
		if err != io.EOF {
			r.err = err
		}
		return false
	}

	r.currentAnn = ann
	return true
}

// Annotation returns the current annotation
func (r *Reader) Annotation() *core.Annotation {
	return r.currentAnn
}

// Err returns any error encountered during reading
func (r *Reader) Err() error {
	return r.err
}

// Lipids returns the number of distinct lipid species seen so far
func (r *Reader) Lipids() int {
	return len(r.lipids)
}

// ReadAll reads every annotation from r
func ReadAll(r io.Reader) ([]*core.Annotation, error) {
	reader := NewReader(r)
	var out []*core.Annotation
	for reader.Next() {
		out = append(out, reader.Annotation())
	}
	if err := reader.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// entry collects header values until the block is complete
type entry struct {
	startLine   int
	name        string
	class       string
	carbons     string
	doubleBonds string
	precursorMZ string
	intensity   string
	rt          string
	mode        string
	adduct      string
	peaks       []core.Peak
}

func (e *entry) empty() bool {
	return e.startLine == 0
}

// readAnnotation reads a single annotation block from the file
func (r *Reader) readAnnotation() (*core.Annotation, error) {
	e := &entry{}

	numPeaks := 0
	inPeaks := false

	for r.scanner.Scan() {
		r.lineNum++
		line := strings.TrimSpace(r.scanner.Text())

		if line == "" {
			// Skip empty lines between entries
			if e.empty() {
				continue
			}
			if inPeaks {
				return nil, fmt.Errorf("line %d: expected %d peaks, got %d", r.lineNum, numPeaks, len(e.peaks))
			}
			return r.build(e)
		}
		if strings.HasPrefix(line, "#") && !inPeaks {
			continue
		}
		if e.empty() {
			e.startLine = r.lineNum
		}

		if inPeaks {
			peak, err := parsePeak(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", r.lineNum, err)
			}
			e.peaks = append(e.peaks, peak)
			if len(e.peaks) >= numPeaks {
				return r.build(e)
			}
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("line %d: expected 'Key: value', got %q", r.lineNum, line)
		}
		value = strings.TrimSpace(value)

		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "NAME":
			e.name = value
		case "CLASS":
			e.class = value
		case "CARBONS":
			e.carbons = value
		case "DOUBLEBONDS":
			e.doubleBonds = value
		case "PRECURSORMZ":
			e.precursorMZ = value
		case "INTENSITY":
			e.intensity = value
		case "RETENTIONTIME":
			e.rt = value
		case "IONMODE":
			e.mode = value
		case "ADDUCT", "PRECURSORTYPE":
			e.adduct = value
		case "NUM PEAKS":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("line %d: invalid num peaks %q", r.lineNum, value)
			}
			numPeaks = n
			// With no peaks the remaining headers run until the blank line
			inPeaks = n > 0
		default:
			// Unknown keys are carried by many exporters; ignore them
		}
	}

	if err := r.scanner.Err(); err != nil {
		return nil, err
	}

	if inPeaks {
		return nil, fmt.Errorf("line %d: unexpected end of file, expected %d peaks, got %d", r.lineNum, numPeaks, len(e.peaks))
	}

	// If we have a partially read entry, return it
	if !e.empty() {
		return r.build(e)
	}

	return nil, io.EOF
}

// build turns a completed entry into an annotation
func (r *Reader) build(e *entry) (*core.Annotation, error) {
	wrap := func(err error) error {
		return fmt.Errorf("entry at line %d: %w", e.startLine, err)
	}

	lipid, err := r.resolveLipid(e)
	if err != nil {
		return nil, wrap(err)
	}

	if e.precursorMZ == "" {
		return nil, wrap(fmt.Errorf("missing PRECURSORMZ"))
	}
	mz, err := strconv.ParseFloat(e.precursorMZ, 64)
	if err != nil {
		return nil, wrap(fmt.Errorf("invalid PRECURSORMZ: %w", err))
	}

	rt := 0.0
	if e.rt != "" {
		if rt, err = strconv.ParseFloat(e.rt, 64); err != nil {
			return nil, wrap(fmt.Errorf("invalid RETENTIONTIME: %w", err))
		}
	}

	mode := core.Positive
	if e.mode != "" {
		if mode, err = core.ParseIonizationMode(e.mode); err != nil {
			return nil, wrap(err)
		}
	}

	ann := core.NewAnnotation(lipid, mz, 0, rt, mode, e.peaks...)

	if e.intensity != "" {
		if ann.Intensity, err = strconv.ParseFloat(e.intensity, 64); err != nil {
			return nil, wrap(fmt.Errorf("invalid INTENSITY: %w", err))
		}
	} else if peak, ok := ann.MostIntensePeak(); ok {
		ann.Intensity = peak.Intensity
	}

	if e.adduct != "" {
		if err := ann.SetAdduct(e.adduct); err != nil {
			return nil, wrap(err)
		}
	}

	return ann, nil
}

// resolveLipid returns the shared lipid for an entry, creating it on first sight
func (r *Reader) resolveLipid(e *entry) (*core.Lipid, error) {
	var lipid core.Lipid
	if e.name != "" {
		parsed, err := core.ParseLipidName(e.name)
		if err != nil && (e.class == "" || e.carbons == "" || e.doubleBonds == "") {
			return nil, err
		}
		if err == nil {
			lipid = parsed
		}
		lipid.Name = e.name
	}

	// Explicit fields win over what the name implies
	if e.class != "" {
		t, err := core.ParseLipidType(e.class)
		if err != nil {
			return nil, err
		}
		lipid.Type = t
	}
	if e.carbons != "" {
		n, err := strconv.Atoi(e.carbons)
		if err != nil {
			return nil, fmt.Errorf("invalid CARBONS: %w", err)
		}
		lipid.CarbonCount = n
	}
	if e.doubleBonds != "" {
		n, err := strconv.Atoi(e.doubleBonds)
		if err != nil {
			return nil, fmt.Errorf("invalid DOUBLEBONDS: %w", err)
		}
		lipid.DoubleBondsCount = n
	}

	if e.name == "" {
		if e.class == "" || e.carbons == "" || e.doubleBonds == "" {
			return nil, fmt.Errorf("missing NAME or CLASS/CARBONS/DOUBLEBONDS")
		}
		lipid.Name = lipid.Shorthand()
	}

	key := lipidKey{lipid.Type, lipid.CarbonCount, lipid.DoubleBondsCount}
	if shared, ok := r.lipids[key]; ok {
		return shared, nil
	}
	shared := &lipid
	r.lipids[key] = shared
	return shared, nil
}

// parsePeak parses a single peak line (format: "mz intensity [annotation]")
func parsePeak(line string) (core.Peak, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return core.Peak{}, fmt.Errorf("invalid peak format, expected at least 2 fields")
	}

	mz, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return core.Peak{}, fmt.Errorf("invalid m/z value: %w", err)
	}

	intensity, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return core.Peak{}, fmt.Errorf("invalid intensity value: %w", err)
	}

	return core.Peak{MZ: mz, Intensity: intensity}, nil
}
