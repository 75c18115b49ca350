package config

import (
	"log/slog"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/kottos/pkg/service/detector"
	"github.com/secmon-lab/kottos/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// DefaultReconcileInterval is the default period between tracker reconciliations
const DefaultReconcileInterval = 600 * time.Second

// Engine holds the routing engine thresholds and the reconcile schedule
type Engine struct {
	detectionThreshold            float64
	creationThreshold             float64
	calendarDualRouteMentionLimit int
	outreachDualRouteMentionLimit int
	reconcileInterval             time.Duration
}

func (x *Engine) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.FloatFlag{
			Name:        "detection-threshold",
			Usage:       "Minimum confidence for a message to count as a work request",
			Category:    "Engine",
			Value:       detector.DefaultDetectionThreshold,
			Sources:     cli.EnvVars("KOTTOS_DETECTION_THRESHOLD"),
			Destination: &x.detectionThreshold,
		},
		&cli.FloatFlag{
			Name:        "creation-threshold",
			Usage:       "Confidence a work request must exceed to create a task",
			Category:    "Engine",
			Value:       usecase.DefaultCreationThreshold,
			Sources:     cli.EnvVars("KOTTOS_CREATION_THRESHOLD"),
			Destination: &x.creationThreshold,
		},
		&cli.IntFlag{
			Name:        "calendar-dual-route-mention-limit",
			Usage:       "Calendar tasks with fewer mentions are shown in both views",
			Category:    "Engine",
			Value:       usecase.DefaultCalendarDualRouteMentionLimit,
			Sources:     cli.EnvVars("KOTTOS_CALENDAR_DUAL_ROUTE_MENTION_LIMIT"),
			Destination: &x.calendarDualRouteMentionLimit,
		},
		&cli.IntFlag{
			Name:        "outreach-dual-route-mention-limit",
			Usage:       "Outreach tasks with fewer mentions are shown in both views",
			Category:    "Engine",
			Value:       usecase.DefaultOutreachDualRouteMentionLimit,
			Sources:     cli.EnvVars("KOTTOS_OUTREACH_DUAL_ROUTE_MENTION_LIMIT"),
			Destination: &x.outreachDualRouteMentionLimit,
		},
		&cli.DurationFlag{
			Name:        "reconcile-interval",
			Usage:       "Period between tracker reconciliations",
			Category:    "Engine",
			Value:       DefaultReconcileInterval,
			Sources:     cli.EnvVars("KOTTOS_RECONCILE_INTERVAL"),
			Destination: &x.reconcileInterval,
		},
	}
}

func (x Engine) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("detection_threshold", x.detectionThreshold),
		slog.Float64("creation_threshold", x.creationThreshold),
		slog.Int("calendar_dual_route_mention_limit", x.calendarDualRouteMentionLimit),
		slog.Int("outreach_dual_route_mention_limit", x.outreachDualRouteMentionLimit),
		slog.Duration("reconcile_interval", x.reconcileInterval),
	)
}

// ReconcileInterval returns the validated reconcile period
func (x *Engine) ReconcileInterval() time.Duration {
	return x.reconcileInterval
}

// Configure validates the flags and returns the engine configuration
func (x *Engine) Configure() (usecase.EngineConfig, error) {
	cfg := usecase.EngineConfig{
		DetectionThreshold:            x.detectionThreshold,
		CreationThreshold:             x.creationThreshold,
		CalendarDualRouteMentionLimit: x.calendarDualRouteMentionLimit,
		OutreachDualRouteMentionLimit: x.outreachDualRouteMentionLimit,
	}
	if err := cfg.Validate(); err != nil {
		return usecase.EngineConfig{}, goerr.Wrap(ErrInvalidConfig, "invalid engine configuration", goerr.V("error", err.Error()))
	}
	if x.reconcileInterval <= 0 {
		return usecase.EngineConfig{}, goerr.Wrap(ErrInvalidConfig, "reconcile interval must be positive",
			goerr.V("reconcile_interval", x.reconcileInterval))
	}
	return cfg, nil
}
