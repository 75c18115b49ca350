// Package detector decides whether a message is a work request. It is a pure
// keyword heuristic over a rules.MatchSet and never calls out to a model.
package detector

import (
	"math"

	"github.com/secmon-lab/kottos/pkg/domain/model"
	"github.com/secmon-lab/kottos/pkg/domain/types"
	"github.com/secmon-lab/kottos/pkg/service/rules"
)

const (
	// DefaultDetectionThreshold is the minimum confidence of a work request
	DefaultDetectionThreshold = 0.5

	baseConfidence     = 0.3
	categoryConfidence = 0.2
	maxConfidence      = 0.9

	// Messages of at most this many words are estimated as quick work
	quickWordLimit = 6
)

// workTypeBuckets maps work types to rule categories in bucket priority order
var workTypeBuckets = []struct {
	workType types.WorkType
	category rules.Category
}{
	{types.WorkTypeCalendar, rules.CategoryCalendar},
	{types.WorkTypeOutreach, rules.CategoryOutreach},
	{types.WorkTypeCoding, rules.CategoryCoding},
	{types.WorkTypeDesign, rules.CategoryDesign},
	{types.WorkTypeAnalysis, rules.CategoryAnalysis},
	{types.WorkTypeSupport, rules.CategorySupport},
}

type Detector struct {
	threshold float64
}

type Option func(*Detector)

// WithThreshold overrides DefaultDetectionThreshold
func WithThreshold(threshold float64) Option {
	return func(d *Detector) {
		d.threshold = threshold
	}
}

func New(opts ...Option) *Detector {
	d := &Detector{threshold: DefaultDetectionThreshold}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Threshold returns the configured detection threshold
func (d *Detector) Threshold() float64 {
	return d.threshold
}

// Analyze evaluates text and analyzes the result
func (d *Detector) Analyze(text string, mctx model.MessageContext) model.WorkRequestAnalysis {
	return d.AnalyzeMatches(rules.Evaluate(text), mctx)
}

// AnalyzeMatches derives the analysis from an already evaluated MatchSet.
// An empty message yields the zero analysis.
func (d *Detector) AnalyzeMatches(ms rules.MatchSet, _ model.MessageContext) model.WorkRequestAnalysis {
	if ms.Empty() {
		return model.WorkRequestAnalysis{}
	}

	confidence := Confidence(ms.CountOf(rules.ConfidenceCategories...))

	matched := make([]string, 0, len(ms.Categories()))
	for _, c := range ms.Categories() {
		matched = append(matched, string(c))
	}

	return model.WorkRequestAnalysis{
		IsWorkRequest:     confidence >= d.threshold,
		Confidence:        confidence,
		Urgency:           urgencyOf(ms),
		WorkType:          WorkTypeOf(ms),
		EstimatedEffort:   effortOf(ms),
		MatchedCategories: matched,
	}
}

// Confidence returns min(0.3 + 0.2*n, 0.9) for n matched categories,
// rounded to two decimals so that thresholds compare exactly.
func Confidence(n int) float64 {
	c := math.Min(baseConfidence+categoryConfidence*float64(n), maxConfidence)
	return math.Round(c*100) / 100
}

// urgencyOf is urgent iff an urgency keyword matched, else medium
func urgencyOf(ms rules.MatchSet) types.Urgency {
	if ms.Has(rules.CategoryUrgency) {
		return types.UrgencyUrgent
	}
	return types.UrgencyMedium
}

// WorkTypeOf returns the first matching bucket, or generic
func WorkTypeOf(ms rules.MatchSet) types.WorkType {
	for _, b := range workTypeBuckets {
		if ms.Has(b.category) {
			return b.workType
		}
	}
	return types.WorkTypeGeneric
}

func effortOf(ms rules.MatchSet) types.Effort {
	switch {
	case ms.Has(rules.CategoryEffortLarge):
		return types.EffortLarge
	case ms.Has(rules.CategoryEffortQuick), ms.WordCount() <= quickWordLimit:
		return types.EffortQuick
	default:
		return types.EffortMedium
	}
}
