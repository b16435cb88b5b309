package ports

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

var provisionMu sync.Mutex

// Provision loads the bundled reference table at path and stores it in repo,
// replacing whatever was there. It returns the number of ports stored.
func Provision(ctx context.Context, repo *Repository, path string) (int, error) {
	provisionMu.Lock()
	defer provisionMu.Unlock()

	log.WithField("path", path).Info("Loading reference port table")
	loaded, err := Load(path)
	if err != nil {
		return 0, fmt.Errorf("loading reference table: %w", err)
	}
	if len(loaded) == 0 {
		log.WithField("path", path).Warn("Reference port table is empty")
	}

	if err := repo.ReplaceAll(ctx, loaded, path); err != nil {
		return 0, fmt.Errorf("storing reference table: %w", err)
	}

	log.WithFields(log.Fields{"path": path, "ports": len(loaded)}).Info("Provisioned reference port table")
	return len(loaded), nil
}
