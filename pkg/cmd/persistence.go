package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/flowforge/pkg/persistence"
	"github.com/dukex/flowforge/pkg/persistence/file"
	"github.com/dukex/flowforge/pkg/persistence/postgresql"
)

var supportedPersistenceProviders = []string{"file", "postgres", "postgresql"}

// NewPersistence picks the backend from the URL scheme. A URL without a known
// scheme is treated as a directory for the file backend.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	provider, rest := parsePersistenceProvider(databaseURL)

	switch provider {
	case "postgres", "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgresql persistence: %w", err)
		}

		return p, nil
	default:
		if rest == "" {
			return nil, fmt.Errorf("file persistence requires a directory, got %q", databaseURL)
		}

		return file.NewPersistence(rest), nil
	}
}

func parsePersistenceProvider(databaseURL string) (string, string) {
	provider, rest, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file", databaseURL
	}

	for _, supported := range supportedPersistenceProviders {
		if provider == supported {
			return provider, rest
		}
	}

	return "file", databaseURL
}
