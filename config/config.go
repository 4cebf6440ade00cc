// Package config loads the engine's own RuntimeConfig: the recognized
// keys and defaults a host sets before wiring a backend, not the
// application view/DSL the host renders.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/yaoapp/kun/log"
	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v3"
)

// MaxEventBytesCeiling and FPSCapCeiling bound the two config values the
// backend must also honor (spec §6): a batch over 4 MiB or a cap over
// 1000fps is always a config error, independent of what the backend
// advertises.
const (
	MaxEventBytesCeiling = 4 * 1024 * 1024
	FPSCapCeiling        = 1000
)

// RuntimeConfig is the engine configuration a host loads once at
// startup, distinct from the application view/DSL it renders.
type RuntimeConfig struct {
	Root string `env:"TUIRUN_ROOT" yaml:"root" toml:"root"`
	Mode string `env:"TUIRUN_MODE" envDefault:"development" yaml:"mode" toml:"mode"`

	MaxFramesInFlight uint32 `env:"TUIRUN_MAX_FRAMES_IN_FLIGHT" envDefault:"1" yaml:"maxFramesInFlight" toml:"maxFramesInFlight"`
	MaxEventBytes     uint32 `env:"TUIRUN_MAX_EVENT_BYTES" envDefault:"65536" yaml:"maxEventBytes" toml:"maxEventBytes"`
	FPSCap            uint16 `env:"TUIRUN_FPS_CAP" envDefault:"60" yaml:"fpsCap" toml:"fpsCap"`
	ExecutionMode     string `env:"TUIRUN_EXECUTION_MODE" envDefault:"inline" yaml:"executionMode" toml:"executionMode"`
	UseV2Cursor       bool   `env:"TUIRUN_USE_V2_CURSOR" envDefault:"false" yaml:"useV2Cursor" toml:"useV2Cursor"`
	NoColor           bool   `env:"NO_COLOR" envDefault:"false" yaml:"noColor" toml:"noColor"`

	LogLevel      string `env:"TUIRUN_LOG_LEVEL" yaml:"logLevel" toml:"logLevel"`
	LogMode       string `env:"TUIRUN_LOG_MODE" envDefault:"TEXT" yaml:"logMode" toml:"logMode"`
	Log           string `env:"TUIRUN_LOG" yaml:"log" toml:"log"`
	LogMaxSize    int    `env:"TUIRUN_LOG_MAX_SIZE" envDefault:"100" yaml:"logMaxSize" toml:"logMaxSize"`
	LogMaxBackups int    `env:"TUIRUN_LOG_MAX_BACKUPS" envDefault:"10" yaml:"logMaxBackups" toml:"logMaxBackups"`
	LogMaxAge     int    `env:"TUIRUN_LOG_MAX_AGE" envDefault:"30" yaml:"logMaxAge" toml:"logMaxAge"`
	LogLocalTime  bool   `env:"TUIRUN_LOG_LOCAL_TIME" envDefault:"true" yaml:"logLocalTime" toml:"logLocalTime"`

	// OnRender/OnLayout are breadcrumb sinks (spec §6
	// internal_onRender/internal_onLayout); never populated from env
	// or file config, only set by the host in code.
	OnRender func(metrics interface{}) `env:"-" yaml:"-" toml:"-"`
	OnLayout func(snapshot interface{}) `env:"-" yaml:"-" toml:"-"`
}

// Conf is the process-wide loaded configuration, set by Init.
var Conf RuntimeConfig

// LogOutput is the open rotating log file, if any.
var LogOutput io.WriteCloser

func init() {
	Init()
}

// Init loads Conf from the environment, applying .env/.tuirun overrides
// found at or above the current directory, then applies logging mode.
func Init() {
	root := os.Getenv("TUIRUN_ROOT")
	if root == "" {
		root = findRoot()
	}
	if root == "" {
		root = "."
	}
	Conf = LoadWithRoot(root)
	ApplyMode()
}

// findRoot walks up from the working directory looking for a
// tuirun.yaml or tuirun.toml marking the application root.
func findRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		for _, name := range []string{"tuirun.yaml", "tuirun.toml"} {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// Load loads RuntimeConfig using TUIRUN_ROOT or the current directory.
func Load() RuntimeConfig {
	root := os.Getenv("TUIRUN_ROOT")
	if root == "" {
		root = "."
	}
	return LoadWithRoot(root)
}

// LoadFrom loads from an explicit .env file, root defaulted from it.
func LoadFrom(envfile string) RuntimeConfig {
	return LoadFromWithRoot(envfile, "")
}

// LoadFromWithRoot loads from an explicit .env file with a root override.
func LoadFromWithRoot(envfile string, root string) RuntimeConfig {
	file, err := filepath.Abs(envfile)
	if err == nil {
		godotenv.Overload(file)
	}
	cfg := LoadWithRoot(root)
	ReloadLog()
	return cfg
}

// LoadWithRoot resolves RuntimeConfig from (in order) an optional .env
// file in root, the process environment, and an optional
// tuirun.yaml/tuirun.toml file in root, then validates the bounded
// keys (§6: maxEventBytes ≤4MiB, fpsCap ≤1000, executionMode enum).
func LoadWithRoot(root string) RuntimeConfig {
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}

	if root != "" {
		envfile := filepath.Join(root, ".env")
		if _, err := os.Stat(envfile); err == nil {
			godotenv.Load(envfile)
		}
	}

	cfg := RuntimeConfig{}
	if err := env.Parse(&cfg); err != nil {
		log.Error("tuirun config: failed to parse environment: %v", err)
	}

	if cfg.Root == "" {
		cfg.Root = root
	}

	if root != "" {
		if err := applyFileOverrides(&cfg, root); err != nil {
			log.Warn("tuirun config: %v", err)
		}
	}

	if err := Validate(&cfg); err != nil {
		log.Error("tuirun config: %v", err)
	}

	return cfg
}

// applyFileOverrides merges tuirun.yaml or tuirun.toml (yaml preferred
// if both exist) over the env-derived config.
func applyFileOverrides(cfg *RuntimeConfig, root string) error {
	for _, candidate := range []struct {
		name   string
		decode func([]byte, interface{}) error
	}{
		{"tuirun.yaml", yaml.Unmarshal},
		{"tuirun.yml", yaml.Unmarshal},
		{"tuirun.toml", toml.Unmarshal},
	} {
		path := filepath.Join(root, candidate.name)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", candidate.name, err)
		}
		if err := candidate.decode(data, cfg); err != nil {
			return fmt.Errorf("parse %s: %w", candidate.name, err)
		}
		return nil
	}
	return nil
}

// Validate enforces the config-level bounds spec §6 requires
// regardless of what a backend later advertises.
func Validate(cfg *RuntimeConfig) error {
	if cfg.MaxEventBytes > MaxEventBytesCeiling {
		return fmt.Errorf("INVALID_PROPS: config.maxEventBytes %d exceeds %d byte ceiling", cfg.MaxEventBytes, MaxEventBytesCeiling)
	}
	if cfg.FPSCap > FPSCapCeiling {
		return fmt.Errorf("INVALID_PROPS: config.fpsCap %d exceeds %d cap", cfg.FPSCap, FPSCapCeiling)
	}
	if cfg.ExecutionMode != "inline" && cfg.ExecutionMode != "worker" {
		return fmt.Errorf("INVALID_PROPS: config.executionMode %q must be \"inline\" or \"worker\"", cfg.ExecutionMode)
	}
	return nil
}

// ApplyMode applies production/development mode to logging.
func ApplyMode() {
	switch Conf.Mode {
	case "production":
		Production()
	case "development":
		Development()
	}
}

// Production sets production-mode logging (error level unless
// LogLevel overrides it, JSON formatting if LogMode requests it).
func Production() {
	Conf.Mode = "production"
	setLogLevel()
	log.SetFormatter(log.TEXT)
	if Conf.LogMode == "JSON" {
		log.SetFormatter(log.JSON)
	}
	ReloadLog()
}

// Development sets development-mode logging (trace level unless
// LogLevel overrides it).
func Development() {
	Conf.Mode = "development"
	setLogLevel()
	log.SetFormatter(log.TEXT)
	if Conf.LogMode == "JSON" {
		log.SetFormatter(log.JSON)
	}
	ReloadLog()
}

func setLogLevel() {
	level := log.InfoLevel
	switch strings.ToLower(Conf.LogLevel) {
	case "trace":
		level = log.TraceLevel
	case "debug":
		level = log.DebugLevel
	case "info":
		level = log.InfoLevel
	case "warn":
		level = log.WarnLevel
	case "error":
		level = log.ErrorLevel
	case "panic":
		level = log.PanicLevel
	case "fatal":
		level = log.FatalLevel
	default:
		if Conf.Mode == "production" {
			level = log.ErrorLevel
		} else {
			level = log.TraceLevel
		}
	}
	log.SetLevel(level)
}

// GetLogDir returns the directory the log file lives in.
func (cfg *RuntimeConfig) GetLogDir() string {
	logPath := cfg.Log
	if logPath == "" {
		logPath = filepath.Join(cfg.Root, "logs", "tuirun.log")
	}
	if !filepath.IsAbs(logPath) {
		logPath = filepath.Join(cfg.Root, logPath)
	}
	return filepath.Dir(logPath)
}

// ReloadLog closes and reopens the log output.
func ReloadLog() {
	CloseLog()
	OpenLog()
}

// OpenLog opens the rotating log file per Conf, falling back to
// /dev/null when the log directory doesn't exist.
func OpenLog() {
	if Conf.Log == "" {
		Conf.Log = filepath.Join(Conf.Root, "logs", "tuirun.log")
	}
	if !filepath.IsAbs(Conf.Log) {
		Conf.Log = filepath.Join(Conf.Root, Conf.Log)
	}

	logfile, err := filepath.Abs(Conf.Log)
	if err != nil {
		return
	}

	if _, err := os.Stat(filepath.Dir(logfile)); errors.Is(err, os.ErrNotExist) {
		devnull, _ := os.OpenFile(os.DevNull, os.O_WRONLY, 0666)
		LogOutput = devnull
		log.SetOutput(devnull)
		return
	}

	LogOutput = &lumberjack.Logger{
		Filename:   logfile,
		MaxSize:    Conf.LogMaxSize,
		MaxBackups: Conf.LogMaxBackups,
		MaxAge:     Conf.LogMaxAge,
		LocalTime:  Conf.LogLocalTime,
	}
	log.SetOutput(LogOutput)
}

// CloseLog closes the current log output, if any.
func CloseLog() {
	if LogOutput != nil {
		if err := LogOutput.Close(); err != nil {
			log.Error("tuirun config: failed to close log output: %v", err)
		}
		LogOutput = nil
	}
}

// IsDevelopment reports whether Conf.Mode is "development".
func IsDevelopment() bool { return Conf.Mode == "development" }
