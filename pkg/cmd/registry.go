// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/dukex/flowforge/pkg/registry"
)

// NewRegistry returns a registry holding every built-in node type.
func NewRegistry(log *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry(log)
	reg.RegisterDefaultNodes()

	return reg
}
