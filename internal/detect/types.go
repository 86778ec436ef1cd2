// Package detect implements the detector registry and the eight image
// quality detectors (blur, brightness, contrast, color, noise, stripe,
// occlusion, signal loss).
package detect

import (
	"math"

	"github.com/rendiffdev/frameguard/internal/frame"
)

// Level is a compute budget tier gating which detectors and feature blends
// run.
type Level string

const (
	LevelFast     Level = "fast"
	LevelStandard Level = "standard"
	LevelDeep     Level = "deep"
)

// Severity ranks a Finding's urgency.
type Severity string

const (
	SeverityNormal  Severity = "normal"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

var severityRank = map[Severity]int{
	SeverityNormal:  0,
	SeverityInfo:    1,
	SeverityWarning: 2,
	SeverityError:   3,
}

// MaxSeverity returns whichever of a, b ranks higher.
func MaxSeverity(a, b Severity) Severity {
	if severityRank[b] > severityRank[a] {
		return b
	}
	return a
}

// Finding is the output of one detector on one frame.
type Finding struct {
	Detector    string                 `json:"detector"`
	IssueType   string                 `json:"issue_type"`
	IsAbnormal  bool                   `json:"is_abnormal"`
	Score       float64                `json:"score"`
	Threshold   float64                `json:"threshold"`
	Confidence  float64                `json:"confidence"`
	Severity    Severity               `json:"severity"`
	Explanation string                 `json:"explanation"`
	Causes      []string               `json:"possible_causes,omitempty"`
	Suggestions []string               `json:"suggestions,omitempty"`
	Evidence    map[string]interface{} `json:"evidence,omitempty"`
}

// DetectorDescriptor is a detector's stable self-description, registered
// once at process start.
type DetectorDescriptor struct {
	Name        string
	DisplayName string
	IssueType   string
	Levels      []Level
	Priority    int // lower = more important when selecting the primary issue
	Suppresses  []string
}

// SupportsLevel reports whether the descriptor's detector runs at level l.
func (d DetectorDescriptor) SupportsLevel(l Level) bool {
	for _, lv := range d.Levels {
		if lv == l {
			return true
		}
	}
	return false
}

// Config is the resolved configuration handed to a detector instance:
// the active level plus a flattened threshold map keyed
// "<detector>.<key>", produced by the profile package.
type Config struct {
	Level      Level
	Thresholds map[string]float64
}

// Threshold looks up a detector-scoped threshold, falling back to
// defaultValue when the profile/override map has no entry.
func (c Config) Threshold(detector, key string, defaultValue float64) float64 {
	if c.Thresholds == nil {
		return defaultValue
	}
	if v, ok := c.Thresholds[detector+"."+key]; ok {
		return v
	}
	return defaultValue
}

// Detector is a pure function over a Frame, already bound to a resolved
// Config at instantiation.
type Detector interface {
	Descriptor() DetectorDescriptor
	Detect(f *frame.Frame) (Finding, error)
}

// Factory builds a Detector bound to cfg. Detectors are cheap to construct;
// a factory may precompute level-dependent constants but must not hold
// mutable shared state across calls.
type Factory func(cfg Config) (Detector, error)

// logistic maps a signed distance from threshold into (0,1), used by
// detectors to derive confidence from how far a score sits past its
// decision boundary.
func logistic(distance, scale float64) float64 {
	if scale == 0 {
		scale = 1
	}
	x := distance / scale
	return 1 / (1 + math.Exp(-x))
}
