package config

import (
	"time"
)

type Config struct {
	Api        ApiConfig        `yaml:"api"`
	Rpc        RpcConfig        `yaml:"rpc"`
	Model      ModelConfig      `yaml:"model"`
	Controller ControllerConfig `yaml:"controller"`
	Display    DisplayConfig    `yaml:"display"`
	Log        LogConfig        `yaml:"log"`
	Sentry     SentryConfig     `yaml:"sentry"`
}

type ApiConfig struct {
	Port           string `yaml:"port"`
	AllowedOrigins string `yaml:"allowedOrigins"`
}

type RpcConfig struct {
	Peer           string `yaml:"peer"`
	Port           string `yaml:"port"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

type ModelConfig struct {
	WeightsPath            string `yaml:"weightsPath"`
	WeightsUrl             string `yaml:"weightsUrl"`
	DownloadTimeoutSeconds int    `yaml:"downloadTimeoutSeconds"`
	Device                 int    `yaml:"device"`
	Seed                   uint64 `yaml:"seed"`
}

type ControllerConfig struct {
	Sliders    int     `yaml:"sliders"`
	DebounceMs int     `yaml:"debounceMs"`
	Min        float64 `yaml:"min"`
	Max        float64 `yaml:"max"`
	Decimals   int     `yaml:"decimals"`
	Step       float64 `yaml:"step"`
}

type DisplayConfig struct {
	// Format is "png" or "jpeg".
	Format  string `yaml:"format"`
	Quality int    `yaml:"quality"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type SentryConfig struct {
	Dsn         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	if c.Api.Port == "" {
		c.Api.Port = "8080"
	}
	if c.Api.AllowedOrigins == "" {
		c.Api.AllowedOrigins = "*"
	}
	if c.Rpc.Peer == "" {
		c.Rpc.Peer = "localhost"
	}
	if c.Rpc.Port == "" {
		c.Rpc.Port = "50051"
	}
	if c.Rpc.TimeoutSeconds <= 0 {
		c.Rpc.TimeoutSeconds = 240
	}
	if c.Model.WeightsPath == "" {
		c.Model.WeightsPath = "./ffhq.pkl"
	}
	if c.Controller.Sliders <= 0 {
		c.Controller.Sliders = 15
	}
	if c.Controller.DebounceMs <= 0 {
		c.Controller.DebounceMs = 200
	}
	if c.Controller.Min == 0 && c.Controller.Max == 0 {
		c.Controller.Min, c.Controller.Max = -4, 4
	}
	if c.Controller.Decimals <= 0 {
		c.Controller.Decimals = 2
	}
	if c.Controller.Step <= 0 {
		c.Controller.Step = 0.01
	}
	if c.Display.Format == "" {
		c.Display.Format = "png"
	}
	if c.Display.Quality <= 0 {
		c.Display.Quality = 90
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c ControllerConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

func (c RpcConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
