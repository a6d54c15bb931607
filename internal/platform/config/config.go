// Package config provides configuration loading and validation for the
// catcher demo and any binary that embeds a Catcher. Configuration is layered:
// defaults -> base.yaml -> {profile}.yaml -> env vars.
package config

// Config holds all configuration.
type Config struct {
	Log       LogConfig       `koanf:"log"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Catcher   CatcherConfig   `koanf:"catcher"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Exporter    string `koanf:"exporter"`
	Endpoint    string `koanf:"endpoint"`
	ServiceName string `koanf:"service_name"`
}

// CatcherConfig maps onto catcher.Option values.
type CatcherConfig struct {
	// CaptureStack records the goroutine stack of every trapped panic.
	CaptureStack bool `koanf:"capture_stack"`
	// StackLimit truncates captured stacks to this many bytes. 0 = no limit.
	StackLimit int `koanf:"stack_limit"`
	// PassthroughRuntimeErrors re-panics runtime.Error values instead of
	// trapping them.
	PassthroughRuntimeErrors bool `koanf:"passthrough_runtime_errors"`
	// LogTrapped logs every trapped panic at error level.
	LogTrapped bool `koanf:"log_trapped"`
}
