package engine

import (
	"github.com/spaghettifunk/framebin/engine/config"
	"github.com/spaghettifunk/framebin/engine/core"
)

type ApplicationConfig struct {
	// The application name used for the device, if applicable.
	Name     string
	LogLevel core.LogLevel
	// Number of frames to render. Zero renders until the context is cancelled.
	MaxFrames uint64
}

func NewApplicationConfig(cfg *config.Config) *ApplicationConfig {
	return &ApplicationConfig{
		Name:      cfg.Driver.AppName,
		LogLevel:  cfg.LogLevel(),
		MaxFrames: cfg.Driver.Frames,
	}
}
