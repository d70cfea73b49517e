// Package cli provides the command-line interface for the relay application.
package cli

import (
	"github.com/yishe-labs/relay/internal/app"
)

// Global reference shared by all commands; set once in the root
// command's PersistentPreRunE.
var globalApp *app.Application

// SetApp stores the Application for commands to access
func SetApp(a *app.Application) {
	globalApp = a
}

// GetApp retrieves the Application
func GetApp() *app.Application {
	return globalApp
}
