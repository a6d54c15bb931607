package config

const defaultStackLimit = 8192

// defaults returns the default configuration values.
// These are loaded first and can be overridden by base.yaml, profile YAML, and env vars.
func defaults() map[string]any {
	return map[string]any{
		"log.level":  "info",
		"log.format": "json",

		"telemetry.enabled":      false,
		"telemetry.exporter":     "stdout",
		"telemetry.endpoint":     "",
		"telemetry.service_name": "catchdemo",

		"catcher.capture_stack":              true,
		"catcher.stack_limit":                defaultStackLimit,
		"catcher.passthrough_runtime_errors": false,
		"catcher.log_trapped":                true,
	}
}
