package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/kottos/pkg/cli/config"
	"github.com/secmon-lab/kottos/pkg/usecase"
)

func TestEngineConfigure(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := config.NewEngineForTest(0.5, 0.4, 4, 5, 10*time.Minute).Configure()
		gt.NoError(t, err).Required()
		gt.Value(t, cfg).Equal(usecase.DefaultEngineConfig())
	})

	testCases := []struct {
		name   string
		engine *config.Engine
	}{
		{"detection above one", config.NewEngineForTest(1.5, 0.4, 4, 5, time.Minute)},
		{"negative creation", config.NewEngineForTest(0.5, -0.1, 4, 5, time.Minute)},
		{"negative calendar limit", config.NewEngineForTest(0.5, 0.4, -1, 5, time.Minute)},
		{"negative outreach limit", config.NewEngineForTest(0.5, 0.4, 4, -1, time.Minute)},
		{"zero interval", config.NewEngineForTest(0.5, 0.4, 4, 5, 0)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.engine.Configure()
			gt.Error(t, err)
			gt.Bool(t, errors.Is(err, config.ErrInvalidConfig)).True()
		})
	}
}

func TestAuthConfigure(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		auth, err := config.NewAuthForTest("", "", "").Configure()
		gt.NoError(t, err)
		gt.Value(t, auth).Nil()
	})

	t.Run("no auth mode", func(t *testing.T) {
		auth, err := config.NewAuthForTest("", "", "ceo_test").Configure()
		gt.NoError(t, err).Required()
		gt.Bool(t, auth.IsNoAuthn()).True()
	})

	t.Run("jwks requires audience", func(t *testing.T) {
		_, err := config.NewAuthForTest("https://idp.example.com/jwks", "", "").Configure()
		gt.Bool(t, errors.Is(err, config.ErrInvalidConfig)).True()
	})

	t.Run("jwks", func(t *testing.T) {
		auth, err := config.NewAuthForTest("https://idp.example.com/jwks", "kottos", "").Configure()
		gt.NoError(t, err).Required()
		gt.Bool(t, auth.IsNoAuthn()).False()
	})
}

func TestLoggerConfigure(t *testing.T) {
	t.Run("invalid level", func(t *testing.T) {
		_, err := config.NewLoggerForTest("verbose", "console", "stdout").Configure()
		gt.Bool(t, errors.Is(err, config.ErrInvalidConfig)).True()
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := config.NewLoggerForTest("info", "xml", "stdout").Configure()
		gt.Bool(t, errors.Is(err, config.ErrInvalidConfig)).True()
	})
}
