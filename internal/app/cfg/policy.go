package cfg

import (
	"sudp/internal"
	"sudp/internal/app/apps"
)

// PolicyCfg is configuration for the server's idle timer reset policy.
type PolicyCfg struct {
	policy string
}

// NewPolicyCfg creates a new PolicyCfg from the given config.
func NewPolicyCfg(policy string) *PolicyCfg {
	return &PolicyCfg{
		policy: policy,
	}
}

// PolicyFromEnv creates a new PolicyCfg from the current environment.
func PolicyFromEnv() *PolicyCfg {
	return &PolicyCfg{
		policy: internal.TimerPolicy,
	}
}

// ApplyServerApp applies the PolicyCfg to a ServerApp.
func (cfg PolicyCfg) ApplyServerApp(app *apps.ServerApp) error {
	app.TimerPolicy = cfg.policy
	return nil
}
