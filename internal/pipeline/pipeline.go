// Package pipeline dispatches the active detector set against a Frame in
// parallel, applies suppression, and rolls the surviving findings up into
// an ImageVerdict.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rendiffdev/frameguard/internal/detect"
	"github.com/rendiffdev/frameguard/internal/frame"
	"github.com/rendiffdev/frameguard/internal/metrics"
	"github.com/rendiffdev/frameguard/internal/xerrors"
)

// ImageVerdict is the rollup for one frame.
type ImageVerdict struct {
	Findings     []detect.Finding `json:"findings"`
	IsAbnormal   bool             `json:"is_abnormal"`
	PrimaryIssue *string          `json:"primary_issue"`
	Severity     detect.Severity  `json:"severity"`
	Suppressed   []string         `json:"suppressed"`
}

// Pipeline wires a detector registry to the suppression/rollup logic.
type Pipeline struct {
	Registry          *detect.Registry
	PipelineDeadline  time.Duration
	DetectorDeadline  time.Duration
}

// New builds a Pipeline. Zero deadlines fall back to generous defaults so a
// caller that forgets to set them does not hang forever.
func New(registry *detect.Registry, pipelineDeadline, detectorDeadline time.Duration) *Pipeline {
	if pipelineDeadline <= 0 {
		pipelineDeadline = 5 * time.Second
	}
	if detectorDeadline <= 0 {
		detectorDeadline = 1500 * time.Millisecond
	}
	return &Pipeline{Registry: registry, PipelineDeadline: pipelineDeadline, DetectorDeadline: detectorDeadline}
}

// Run executes the active detector set against f and returns the resulting
// ImageVerdict. allowlist, if non-empty, restricts the active set to those
// names (intersected with level support).
func (p *Pipeline) Run(ctx context.Context, f *frame.Frame, cfg detect.Config, allowlist []string) (*ImageVerdict, error) {
	active := p.activeDescriptors(cfg.Level, allowlist)

	pipelineCtx, cancel := context.WithTimeout(ctx, p.PipelineDeadline)
	defer cancel()

	findings := make([]detect.Finding, len(active))
	type result struct {
		idx     int
		finding detect.Finding
	}
	resultsCh := make(chan result, len(active))

	for i, descriptor := range active {
		go func(i int, descriptor detect.DetectorDescriptor) {
			resultsCh <- result{idx: i, finding: p.runOne(pipelineCtx, descriptor, f, cfg)}
		}(i, descriptor)
	}

	for received := 0; received < len(active); received++ {
		select {
		case r := <-resultsCh:
			findings[r.idx] = r.finding
		case <-pipelineCtx.Done():
			// Fill in any slot not yet reported as a pipeline-level timeout;
			// the still-running goroutines are left to finish on their own
			// (detectors are bounded by working-set size, per the
			// concurrency model) but their result is no longer awaited.
			for i, descr := range active {
				if findings[i].Detector == "" {
					findings[i] = timeoutFinding(descr)
				}
			}
			return p.rollup(findings), nil
		}
	}

	return p.rollup(findings), nil
}

// runOne executes a single detector with its own soft deadline, absorbing
// panics and errors into synthetic findings so the pipeline never aborts.
func (p *Pipeline) runOne(ctx context.Context, descriptor detect.DetectorDescriptor, f *frame.Frame, cfg detect.Config) detect.Finding {
	start := time.Now()
	defer func() {
		metrics.DetectorDuration.WithLabelValues(descriptor.Name, string(cfg.Level)).Observe(time.Since(start).Seconds())
	}()

	det, err := p.Registry.Instantiate(descriptor.Name, cfg)
	if err != nil {
		metrics.DetectorFailuresTotal.WithLabelValues(descriptor.Name).Inc()
		return failureFinding(descriptor, err)
	}

	findingCh := make(chan detect.Finding, 1)
	errCh := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				errCh <- fmt.Errorf("panic: %v", r)
			}
		}()
		finding, err := det.Detect(f)
		if err != nil {
			errCh <- err
			return
		}
		findingCh <- finding
	}()

	select {
	case finding := <-findingCh:
		return finding
	case err := <-errCh:
		metrics.DetectorFailuresTotal.WithLabelValues(descriptor.Name).Inc()
		return failureFinding(descriptor, err)
	case <-time.After(p.DetectorDeadline):
		metrics.DetectorTimeoutsTotal.WithLabelValues(descriptor.Name).Inc()
		return timeoutFinding(descriptor)
	case <-ctx.Done():
		metrics.DetectorTimeoutsTotal.WithLabelValues(descriptor.Name).Inc()
		return timeoutFinding(descriptor)
	}
}

func failureFinding(d detect.DetectorDescriptor, err error) detect.Finding {
	return detect.Finding{
		Detector:    d.Name,
		IssueType:   d.IssueType,
		IsAbnormal:  false,
		Severity:    detect.SeverityInfo,
		Explanation: fmt.Sprintf("detector failed: %s", xerrors.KindOf(err)),
		Evidence:    map[string]interface{}{"error": err.Error()},
	}
}

func timeoutFinding(d detect.DetectorDescriptor) detect.Finding {
	return detect.Finding{
		Detector:    d.Name,
		IssueType:   d.IssueType,
		IsAbnormal:  false,
		Severity:    detect.SeverityInfo,
		Explanation: "timed out",
	}
}

// activeDescriptors filters the registry's detectors to those supporting
// level and, if allowlist is non-empty, present in it.
func (p *Pipeline) activeDescriptors(level detect.Level, allowlist []string) []detect.DetectorDescriptor {
	var allow map[string]bool
	if len(allowlist) > 0 {
		allow = make(map[string]bool, len(allowlist))
		for _, name := range allowlist {
			allow[name] = true
		}
	}

	var active []detect.DetectorDescriptor
	for _, d := range p.Registry.List() {
		if !d.SupportsLevel(level) {
			continue
		}
		if allow != nil && !allow[d.Name] {
			continue
		}
		active = append(active, d)
	}
	return active
}

// rollup applies suppression fix-point evaluation, selects the primary
// issue, and computes overall severity.
func (p *Pipeline) rollup(findings []detect.Finding) *ImageVerdict {
	sort.Slice(findings, func(i, j int) bool {
		pi, pj := p.priorityOf(findings[i].Detector), p.priorityOf(findings[j].Detector)
		if pi != pj {
			return pi < pj
		}
		return findings[i].Detector < findings[j].Detector
	})

	suppressed := suppressionFixPoint(findings, p.Registry.SuppressionGraph())

	var survivors []detect.Finding
	var anyAbnormal bool
	for _, f := range findings {
		if f.IsAbnormal {
			anyAbnormal = true
		}
		if !suppressed[f.Detector] {
			survivors = append(survivors, f)
		}
	}

	primary := p.selectPrimary(survivors)
	severity := detect.SeverityNormal
	for _, f := range survivors {
		if f.IsAbnormal {
			severity = detect.MaxSeverity(severity, f.Severity)
		}
	}

	suppressedNames := make([]string, 0, len(suppressed))
	for name := range suppressed {
		suppressedNames = append(suppressedNames, name)
	}
	sort.Strings(suppressedNames)

	return &ImageVerdict{
		Findings:     survivors,
		IsAbnormal:   anyAbnormal,
		PrimaryIssue: primary,
		Severity:     severity,
		Suppressed:   suppressedNames,
	}
}

func (p *Pipeline) priorityOf(name string) int {
	if d, ok := p.Registry.Descriptor(name); ok {
		return d.Priority
	}
	return 0
}

// suppressionFixPoint repeatedly applies the suppression graph until the
// suppressed set stops changing. A detector that is itself suppressed
// cannot suppress others, so transitive chains only propagate through
// detectors that remain active. findings must already be in a
// deterministic order (rollup sorts by priority then name); the
// propagation loop walks that same order each pass instead of ranging
// over graph directly, since map iteration order is randomized per run
// and would otherwise make which edge fires first (and so which
// fix-point is reached within a single pass) nondeterministic.
func suppressionFixPoint(findings []detect.Finding, graph map[string]map[string]struct{}) map[string]bool {
	abnormal := make(map[string]bool, len(findings))
	order := make([]string, 0, len(findings))
	for _, f := range findings {
		abnormal[f.Detector] = f.IsAbnormal
		order = append(order, f.Detector)
	}

	suppressed := make(map[string]bool)
	for changed := true; changed; {
		changed = false
		for _, name := range order {
			targets, ok := graph[name]
			if !ok || !abnormal[name] || suppressed[name] {
				continue
			}
			for target := range targets {
				if !suppressed[target] {
					suppressed[target] = true
					changed = true
				}
			}
		}
	}
	return suppressed
}

// selectPrimary chooses the primary issue among surviving abnormal
// findings by (priority asc, confidence desc, score/threshold desc, name
// asc). Returns nil when no finding is abnormal.
func (p *Pipeline) selectPrimary(survivors []detect.Finding) *string {
	var best *detect.Finding
	var bestPriority int
	var bestRatio float64

	for i := range survivors {
		f := &survivors[i]
		if !f.IsAbnormal {
			continue
		}
		priority := p.priorityOf(f.Detector)
		ratio := 0.0
		if f.Threshold != 0 {
			ratio = f.Score / f.Threshold
		}

		if best == nil {
			best, bestPriority, bestRatio = f, priority, ratio
			continue
		}
		switch {
		case priority != bestPriority:
			if priority < bestPriority {
				best, bestPriority, bestRatio = f, priority, ratio
			}
		case f.Confidence != best.Confidence:
			if f.Confidence > best.Confidence {
				best, bestPriority, bestRatio = f, priority, ratio
			}
		case ratio != bestRatio:
			if ratio > bestRatio {
				best, bestPriority, bestRatio = f, priority, ratio
			}
		case f.Detector < best.Detector:
			best, bestPriority, bestRatio = f, priority, ratio
		}
	}

	if best == nil {
		return nil
	}
	issue := best.IssueType
	return &issue
}
