package catalog

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb"

	"github.com/component-visualizer/backend/internal/models"
)

// DuckStore persists resolved component records in a DuckDB file so a
// restart can serve the listing before (or without) rescanning the
// catalog directory.
type DuckStore struct {
	db     *sql.DB
	dbPath string
}

// NewDuckStore opens (or creates) the catalog index at dbPath.
func NewDuckStore(dbPath string) (*DuckStore, error) {
	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA memory_limit='256MB'",
			"PRAGMA threads=2",
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating duckdb connector: %w", err)
	}

	db := sql.OpenDB(connector)

	schema := []string{
		`CREATE TABLE IF NOT EXISTS components (
			id          VARCHAR PRIMARY KEY,
			fritzing_id VARCHAR NOT NULL,
			title       VARCHAR NOT NULL,
			category    VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS connectors (
			component_id VARCHAR NOT NULL,
			ord          INTEGER NOT NULL,
			connector_id VARCHAR NOT NULL,
			svg_id       VARCHAR,
			x            DOUBLE,
			y            DOUBLE,
			confidence   TINYINT NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	return &DuckStore{db: db, dbPath: dbPath}, nil
}

// ReplaceCatalog atomically swaps the persisted index for the given
// records.
func (s *DuckStore) ReplaceCatalog(records []models.ComponentRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM connectors`); err != nil {
		return fmt.Errorf("clearing connectors: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM components`); err != nil {
		return fmt.Errorf("clearing components: %w", err)
	}

	for _, rec := range records {
		if err := insertComponent(tx, rec); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveComponent upserts one component and its connectors.
func (s *DuckStore) SaveComponent(rec models.ComponentRecord) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM connectors WHERE component_id = ?`, rec.ID); err != nil {
		return fmt.Errorf("clearing connectors: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM components WHERE id = ?`, rec.ID); err != nil {
		return fmt.Errorf("clearing component: %w", err)
	}

	if err := insertComponent(tx, rec); err != nil {
		return err
	}

	return tx.Commit()
}

func insertComponent(tx *sql.Tx, rec models.ComponentRecord) error {
	if _, err := tx.Exec(
		`INSERT INTO components (id, fritzing_id, title, category) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.FritzingID, rec.Title, rec.Category,
	); err != nil {
		return fmt.Errorf("inserting component %s: %w", rec.ID, err)
	}

	for ord, c := range rec.Connectors {
		var x, y sql.NullFloat64
		if c.X != nil {
			x = sql.NullFloat64{Float64: *c.X, Valid: true}
		}
		if c.Y != nil {
			y = sql.NullFloat64{Float64: *c.Y, Valid: true}
		}
		if _, err := tx.Exec(
			`INSERT INTO connectors (component_id, ord, connector_id, svg_id, x, y, confidence)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, ord, c.ID, c.SvgID, x, y, int(c.Confidence),
		); err != nil {
			return fmt.Errorf("inserting connector %s/%s: %w", rec.ID, c.ID, err)
		}
	}

	return nil
}

// LoadCatalog reads every persisted component record, connectors in
// declaration order.
func (s *DuckStore) LoadCatalog() ([]models.ComponentRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, fritzing_id, title, category FROM components ORDER BY title, id`)
	if err != nil {
		return nil, fmt.Errorf("querying components: %w", err)
	}
	defer rows.Close()

	var records []models.ComponentRecord
	index := make(map[string]int)
	for rows.Next() {
		var rec models.ComponentRecord
		if err := rows.Scan(&rec.ID, &rec.FritzingID, &rec.Title, &rec.Category); err != nil {
			return nil, fmt.Errorf("scanning component: %w", err)
		}
		index[rec.ID] = len(records)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	connRows, err := s.db.Query(
		`SELECT component_id, connector_id, svg_id, x, y, confidence
		 FROM connectors ORDER BY component_id, ord`)
	if err != nil {
		return nil, fmt.Errorf("querying connectors: %w", err)
	}
	defer connRows.Close()

	for connRows.Next() {
		var componentID string
		var c models.ResolvedConnector
		var svgID sql.NullString
		var x, y sql.NullFloat64
		var confidence int
		if err := connRows.Scan(&componentID, &c.ID, &svgID, &x, &y, &confidence); err != nil {
			return nil, fmt.Errorf("scanning connector: %w", err)
		}
		c.SvgID = svgID.String
		if x.Valid {
			v := x.Float64
			c.X = &v
		}
		if y.Valid {
			v := y.Float64
			c.Y = &v
		}
		c.Confidence = models.Confidence(confidence)

		if i, ok := index[componentID]; ok {
			records[i].Connectors = append(records[i].Connectors, c)
		}
	}
	if err := connRows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// Count returns the number of persisted components.
func (s *DuckStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM components`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Close releases the database handle.
func (s *DuckStore) Close() error {
	return s.db.Close()
}
