package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound  = goerr.New("configuration file not found")
	ErrInvalidConfig   = goerr.New("invalid configuration")
	ErrDuplicateUserID = goerr.New("duplicate user ID")
	ErrUnknownUser     = goerr.New("user is not part of the organization")
	ErrInvalidRoute    = goerr.New("invalid route")
	ErrMissingCEO      = goerr.New("organization requires a CEO")
	ErrReportingCycle  = goerr.New("reporting line contains a cycle")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	UserIDKey     = "user_id"
	ManagerIDKey  = "manager_id"
	RouteKey      = "route"
)
