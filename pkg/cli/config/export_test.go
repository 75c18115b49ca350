package config

import "time"

// NewEngineForTest creates an Engine config for testing purposes
func NewEngineForTest(detection, creation float64, calendarLimit, outreachLimit int, interval time.Duration) *Engine {
	return &Engine{
		detectionThreshold:            detection,
		creationThreshold:             creation,
		calendarDualRouteMentionLimit: calendarLimit,
		outreachDualRouteMentionLimit: outreachLimit,
		reconcileInterval:             interval,
	}
}

// NewAuthForTest creates an Auth config for testing purposes
func NewAuthForTest(jwksURL, audience, noAuthUID string) *Auth {
	return &Auth{
		jwksURL:   jwksURL,
		audience:  audience,
		userClaim: "sub",
		noAuthUID: noAuthUID,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}
