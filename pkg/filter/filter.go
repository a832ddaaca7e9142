// Package filter provides grouped-peak filtering applied before adduct inference
package filter

import (
	"fmt"
	"math"
	"sort"

	"github.com/ChrisMcGann/LipidKey/pkg/core"
)

// Config holds filtering configuration
type Config struct {
	TopN            int     // Keep only top N most intense peaks (0 = no limit)
	IntensityCutoff float64 // Keep only peaks above this % of base peak (0 = no cutoff)
	MinMZ           float64 // Drop peaks below this m/z (0 = no lower bound)
	MaxMZ           float64 // Drop peaks above this m/z (0 = no upper bound)
	KeepTolerance   float64 // Peaks within this m/z of the annotation are never dropped
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.TopN < 0 {
		return fmt.Errorf("top-n must be non-negative, got %d", c.TopN)
	}
	if c.IntensityCutoff < 0 || c.IntensityCutoff > 100 {
		return fmt.Errorf("intensity cutoff must be between 0 and 100, got %.2f", c.IntensityCutoff)
	}
	if c.MaxMZ > 0 && c.MinMZ > c.MaxMZ {
		return fmt.Errorf("min m/z %.4f is above max m/z %.4f", c.MinMZ, c.MaxMZ)
	}
	return nil
}

// Active reports whether any filter is configured
func (c *Config) Active() bool {
	return c.TopN > 0 || c.IntensityCutoff > 0 || c.MinMZ > 0 || c.MaxMZ > 0
}

// Apply applies all configured filters to an annotation's grouped peaks
func (c *Config) Apply(ann *core.Annotation) error {
	if err := c.Validate(); err != nil {
		return err
	}

	peaks := ann.GroupedSignals()
	var kept []core.Peak
	peaks, kept = c.splitProtected(ann, peaks)

	// Apply m/z range first
	if c.MinMZ > 0 || c.MaxMZ > 0 {
		peaks = c.filterByRange(peaks)
	}

	// Apply intensity filters
	if c.IntensityCutoff > 0 {
		peaks = c.filterByIntensity(peaks, kept)
	}

	// Apply top-N filter
	if c.TopN > 0 {
		peaks = c.filterTopN(peaks, len(kept))
	}

	// Re-sorted by the annotation
	ann.ReplaceGroupedSignals(append(kept, peaks...))
	return nil
}

// splitProtected separates peaks that must survive filtering
func (c *Config) splitProtected(ann *core.Annotation, peaks []core.Peak) (rest, kept []core.Peak) {
	if c.KeepTolerance <= 0 {
		return peaks, nil
	}
	for _, peak := range peaks {
		if math.Abs(peak.MZ-ann.MZ) < c.KeepTolerance {
			kept = append(kept, peak)
		} else {
			rest = append(rest, peak)
		}
	}
	return rest, kept
}

// filterByRange keeps peaks inside [MinMZ, MaxMZ]
func (c *Config) filterByRange(peaks []core.Peak) []core.Peak {
	var filtered []core.Peak
	for _, peak := range peaks {
		if c.MinMZ > 0 && peak.MZ < c.MinMZ {
			continue
		}
		if c.MaxMZ > 0 && peak.MZ > c.MaxMZ {
			continue
		}
		filtered = append(filtered, peak)
	}
	return filtered
}

// filterByIntensity removes peaks below the intensity cutoff percentage
func (c *Config) filterByIntensity(peaks, protected []core.Peak) []core.Peak {
	if len(peaks) == 0 {
		return peaks
	}

	// Find maximum intensity, protected peaks included
	maxIntensity := 0.0
	for _, peak := range append(append([]core.Peak(nil), peaks...), protected...) {
		if peak.Intensity > maxIntensity {
			maxIntensity = peak.Intensity
		}
	}

	// Calculate threshold
	threshold := (c.IntensityCutoff / 100.0) * maxIntensity

	// Filter peaks
	var filtered []core.Peak
	for _, peak := range peaks {
		if peak.Intensity >= threshold {
			filtered = append(filtered, peak)
		}
	}
	return filtered
}

// filterTopN keeps only the N most intense peaks, counting protected ones
func (c *Config) filterTopN(peaks []core.Peak, protected int) []core.Peak {
	n := c.TopN - protected
	if n < 0 {
		n = 0
	}
	if len(peaks) <= n {
		return peaks
	}

	// Create a copy and sort by intensity descending
	sorted := make([]core.Peak, len(peaks))
	copy(sorted, peaks)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Intensity > sorted[j].Intensity
	})

	// Keep only top N
	return sorted[:n]
}

// RemoveZeroIntensityPeaks removes grouped peaks with zero or negative intensity
func RemoveZeroIntensityPeaks(ann *core.Annotation) {
	var filtered []core.Peak
	for _, peak := range ann.GroupedSignals() {
		if peak.Intensity > 0 {
			filtered = append(filtered, peak)
		}
	}
	ann.ReplaceGroupedSignals(filtered)
}
