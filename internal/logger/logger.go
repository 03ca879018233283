// Package logger builds the process-wide zap logger.
package logger

import "go.uber.org/zap"

// New returns a sugared logger. Dev mode switches to the console encoder
// with human-readable timestamps and debug level enabled.
func New(dev bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	if dev {
		cfg = zap.NewDevelopmentConfig()
	}
	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return log.Sugar(), nil
}
