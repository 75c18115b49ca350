package detector_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/kottos/pkg/domain/model"
	"github.com/secmon-lab/kottos/pkg/domain/types"
	"github.com/secmon-lab/kottos/pkg/service/detector"
	"pgregory.net/rapid"
)

func TestAnalyze(t *testing.T) {
	testCases := []struct {
		name          string
		text          string
		isWorkRequest bool
		confidence    float64
		urgency       types.Urgency
		workType      types.WorkType
		effort        types.Effort
	}{
		{
			name:          "urgent coding request",
			text:          "@john can you fix the payment API? It's urgent!",
			isWorkRequest: true,
			confidence:    0.9,
			urgency:       types.UrgencyUrgent,
			workType:      types.WorkTypeCoding,
			effort:        types.EffortMedium,
		},
		{
			name:          "calendar request",
			text:          "schedule a sync with sarah and mike",
			isWorkRequest: true,
			confidence:    0.5,
			urgency:       types.UrgencyMedium,
			workType:      types.WorkTypeCalendar,
			effort:        types.EffortMedium,
		},
		{
			name:          "calendar wins over outreach",
			text:          "please email the client and schedule a meeting for next week",
			isWorkRequest: true,
			confidence:    0.7,
			urgency:       types.UrgencyMedium,
			workType:      types.WorkTypeCalendar,
			effort:        types.EffortMedium,
		},
		{
			name:          "short request is quick",
			text:          "please fix the typo",
			isWorkRequest: true,
			confidence:    0.7,
			urgency:       types.UrgencyMedium,
			workType:      types.WorkTypeCoding,
			effort:        types.EffortQuick,
		},
		{
			name:          "small talk",
			text:          "good morning everyone, hope the weekend was great",
			isWorkRequest: false,
			confidence:    0.3,
			urgency:       types.UrgencyMedium,
			workType:      types.WorkTypeGeneric,
			effort:        types.EffortMedium,
		},
		{
			name:          "large effort without urgency keyword",
			text:          "no rush, but we should migrate the reporting stack to the new warehouse",
			isWorkRequest: false,
			confidence:    0.3,
			urgency:       types.UrgencyMedium,
			workType:      types.WorkTypeGeneric,
			effort:        types.EffortLarge,
		},
		{
			name:          "soon is not an urgency keyword",
			text:          "<@U2> can you fix the login bug soon",
			isWorkRequest: true,
			confidence:    0.7,
			urgency:       types.UrgencyMedium,
			workType:      types.WorkTypeCoding,
			effort:        types.EffortMedium,
		},
		{
			name:          "no rush keeps medium urgency",
			text:          "<@U2> can you fix the login bug, no rush",
			isWorkRequest: true,
			confidence:    0.7,
			urgency:       types.UrgencyMedium,
			workType:      types.WorkTypeCoding,
			effort:        types.EffortMedium,
		},
		{
			name:          "important is not an urgency keyword",
			text:          "this is important, <@U2> can you fix the login bug",
			isWorkRequest: true,
			confidence:    0.7,
			urgency:       types.UrgencyMedium,
			workType:      types.WorkTypeCoding,
			effort:        types.EffortMedium,
		},
	}

	d := detector.New()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := d.Analyze(tc.text, model.MessageContext{})
			gt.Value(t, got.IsWorkRequest).Equal(tc.isWorkRequest)
			gt.Value(t, got.Confidence).Equal(tc.confidence)
			gt.Value(t, got.Urgency).Equal(tc.urgency)
			gt.Value(t, got.WorkType).Equal(tc.workType)
			gt.Value(t, got.EstimatedEffort).Equal(tc.effort)
		})
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	got := detector.New().Analyze("  ", model.MessageContext{})
	gt.Bool(t, got.IsWorkRequest).False()
	gt.Value(t, got.Confidence).Equal(0.0)
	gt.Array(t, got.MatchedCategories).Length(0)
}

func TestAnalyzeThreshold(t *testing.T) {
	// one category: 0.5
	text := "review this"
	gt.Bool(t, detector.New().Analyze(text, model.MessageContext{}).IsWorkRequest).True()
	gt.Bool(t, detector.New(detector.WithThreshold(0.7)).Analyze(text, model.MessageContext{}).IsWorkRequest).False()
}

func TestConfidence(t *testing.T) {
	gt.Value(t, detector.Confidence(0)).Equal(0.3)
	gt.Value(t, detector.Confidence(1)).Equal(0.5)
	gt.Value(t, detector.Confidence(2)).Equal(0.7)
	gt.Value(t, detector.Confidence(3)).Equal(0.9)
	gt.Value(t, detector.Confidence(10)).Equal(0.9)
}

func TestAnalyzeProperties(t *testing.T) {
	d := detector.New()
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.String().Draw(t, "text")
		got := d.Analyze(text, model.MessageContext{})

		if got.Confidence < 0 || got.Confidence > 0.9 {
			t.Fatalf("confidence out of range: %v", got.Confidence)
		}
		if got.IsWorkRequest != (got.Confidence >= detector.DefaultDetectionThreshold) {
			t.Fatalf("isWorkRequest %v inconsistent with confidence %v", got.IsWorkRequest, got.Confidence)
		}
		if got.IsWorkRequest && !got.WorkType.IsValid() {
			t.Fatalf("invalid work type %q", got.WorkType)
		}
		if got.Urgency != types.UrgencyMedium && got.Urgency != types.UrgencyUrgent && got.Confidence > 0 {
			t.Fatalf("urgency %q is neither medium nor urgent", got.Urgency)
		}
		if again := d.Analyze(text, model.MessageContext{}); again.Confidence != got.Confidence {
			t.Fatalf("analysis is not deterministic")
		}
	})
}
