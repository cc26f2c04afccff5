// Package validate wraps struct validation behind a shared validator
// instance, so tag definitions stay consistent across the codebase.
package validate

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	instance *validator.Validate
	once     sync.Once
)

// Validate returns the shared validator.
func Validate() *validator.Validate {
	once.Do(func() {
		instance = validator.New()
	})
	return instance
}
