package internal

import "github.com/pkg/errors"

// ValidateEnv checks the resolved configuration before a command runs.
func ValidateEnv() error {
	switch Env {
	case "dev", "prod":
	default:
		return errors.Errorf("unknown env %q", Env)
	}
	switch LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return errors.Errorf("unknown log level %q", LogLevel)
	}
	if Port == 0 || Port > 65535 {
		return errors.Errorf("port %d out of range", Port)
	}
	if OpsPort > 65535 {
		return errors.Errorf("ops port %d out of range", OpsPort)
	}
	return nil
}
