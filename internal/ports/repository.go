package ports

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/yusukeinoue-jpg/lime-tool/internal/models"
	_ "modernc.org/sqlite"
)

// Repository handles persistence of the reference table
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new reference port repository on an open database
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ReplaceAll swaps the stored reference table for ports in a single transaction.
// Row order is kept through the seq column.
func (r *Repository) ReplaceAll(ctx context.Context, ports []models.ReferencePort, source string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() // Rollback on error

	if _, err := tx.ExecContext(ctx, "DELETE FROM reference_ports"); err != nil {
		return fmt.Errorf("clearing reference ports: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO reference_ports (seq, name, latitude, longitude, source) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range ports {
		if _, err := stmt.ExecContext(ctx, i, p.Name, p.Latitude, p.Longitude, source); err != nil {
			return fmt.Errorf("inserting port %q: %w", p.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListPorts retrieves the reference table in source order
func (r *Repository) ListPorts(ctx context.Context) ([]models.ReferencePort, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT seq, name, latitude, longitude FROM reference_ports ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("querying reference ports: %w", err)
	}
	defer rows.Close()

	var ports []models.ReferencePort
	for rows.Next() {
		var p models.ReferencePort
		if err := rows.Scan(&p.Seq, &p.Name, &p.Latitude, &p.Longitude); err != nil {
			return nil, fmt.Errorf("scanning reference port: %w", err)
		}
		ports = append(ports, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reference ports: %w", err)
	}

	return ports, nil
}

// Count returns the number of stored reference ports
func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reference_ports").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting reference ports: %w", err)
	}
	return count, nil
}
