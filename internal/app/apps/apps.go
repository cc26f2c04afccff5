// Package apps wires configuration into runnable client and server
// applications.
package apps

import "context"

// App is a runnable application.
type App interface {
	Run(ctx context.Context, args []string) error
}
