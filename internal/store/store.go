// Package store persists tokenized sections and their fragments in
// Postgres, one row per element. Stored fragments are only ever turned
// back into section text through the interpolator, so the token format in
// the rows is part of the storage contract.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/lexroom/statext/internal/hierarchy"
	"github.com/lexroom/statext/internal/interpolate"
)

// Store wraps the sections and fragments tables.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open connects to Postgres and verifies the connection.
func Open(dsn string, log *slog.Logger) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS sections (
	law_id         TEXT NOT NULL,
	location_id    TEXT NOT NULL,
	heading        TEXT NOT NULL DEFAULT '',
	tokenized_text TEXT NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (law_id, location_id)
);

CREATE TABLE IF NOT EXISTS fragments (
	law_id       TEXT NOT NULL,
	location_id  TEXT NOT NULL,
	token        TEXT NOT NULL,
	parent_token TEXT NOT NULL DEFAULT '',
	seq          INT  NOT NULL,
	level        TEXT NOT NULL,
	raw_value    TEXT NOT NULL,
	content      TEXT NOT NULL,
	PRIMARY KEY (law_id, location_id, token),
	FOREIGN KEY (law_id, location_id) REFERENCES sections (law_id, location_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS fragments_section_seq ON fragments (law_id, location_id, seq);
`

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SectionRecord is the stored header for one section.
type SectionRecord struct {
	LawID         string `json:"law_id"`
	LocationID    string `json:"location_id"`
	Heading       string `json:"heading"`
	TokenizedText string `json:"tokenized_text"`
}

// FragmentRow is one stored element, flattened.
type FragmentRow struct {
	Token       string `json:"token"`
	ParentToken string `json:"parent_token,omitempty"`
	Seq         int    `json:"seq"`
	Level       string `json:"level"`
	RawValue    string `json:"raw_value"`
	Content     string `json:"content"`
}

// SaveSection upserts a section and replaces its fragments in one
// transaction. Elements are flattened in document order; parents always
// precede their children, which LoadSection relies on when rebuilding.
func (s *Store) SaveSection(ctx context.Context, rec SectionRecord, elements []*hierarchy.Element) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sections (law_id, location_id, heading, tokenized_text, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (law_id, location_id)
		DO UPDATE SET heading = EXCLUDED.heading, tokenized_text = EXCLUDED.tokenized_text, updated_at = now()`,
		rec.LawID, rec.LocationID, rec.Heading, rec.TokenizedText)
	if err != nil {
		return fmt.Errorf("upsert section %s/%s: %w", rec.LawID, rec.LocationID, err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM fragments WHERE law_id = $1 AND location_id = $2`,
		rec.LawID, rec.LocationID)
	if err != nil {
		return fmt.Errorf("clear fragments: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fragments (law_id, location_id, token, parent_token, seq, level, raw_value, content)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
	if err != nil {
		return fmt.Errorf("prepare fragment insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range Flatten(elements) {
		_, err := stmt.ExecContext(ctx, rec.LawID, rec.LocationID,
			row.Token, row.ParentToken, row.Seq, row.Level, row.RawValue, row.Content)
		if err != nil {
			return fmt.Errorf("insert fragment %s: %w", row.Token, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	if s.log != nil {
		s.log.Info("section stored",
			"law_id", rec.LawID, "location_id", rec.LocationID,
			"fragments", hierarchy.Count(elements))
	}
	return nil
}

// LoadSection reads a section header and rebuilds its element tree.
func (s *Store) LoadSection(ctx context.Context, lawID, locationID string) (*SectionRecord, []*hierarchy.Element, error) {
	rec := &SectionRecord{LawID: lawID, LocationID: locationID}
	err := s.db.QueryRowContext(ctx,
		`SELECT heading, tokenized_text FROM sections WHERE law_id = $1 AND location_id = $2`,
		lawID, locationID).Scan(&rec.Heading, &rec.TokenizedText)
	if err == sql.ErrNoRows {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load section %s/%s: %w", lawID, locationID, err)
	}

	rows, err := s.ListFragments(ctx, lawID, locationID)
	if err != nil {
		return nil, nil, err
	}

	elements, err := Rebuild(rows)
	if err != nil {
		return nil, nil, fmt.Errorf("rebuild %s/%s: %w", lawID, locationID, err)
	}
	return rec, elements, nil
}

// ListFragments returns a section's fragment rows in document order.
func (s *Store) ListFragments(ctx context.Context, lawID, locationID string) ([]FragmentRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT token, parent_token, seq, level, raw_value, content
		FROM fragments
		WHERE law_id = $1 AND location_id = $2
		ORDER BY seq`,
		lawID, locationID)
	if err != nil {
		return nil, fmt.Errorf("list fragments %s/%s: %w", lawID, locationID, err)
	}
	defer rows.Close()

	var out []FragmentRow
	for rows.Next() {
		var r FragmentRow
		if err := rows.Scan(&r.Token, &r.ParentToken, &r.Seq, &r.Level, &r.RawValue, &r.Content); err != nil {
			return nil, fmt.Errorf("scan fragment: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetSectionText reassembles the original (normalized) section text from
// stored rows. This is the only sanctioned reassembly path; a missing
// fragment surfaces as the interpolator's dangling-token error.
func (s *Store) GetSectionText(ctx context.Context, lawID, locationID string) (string, error) {
	rec, elements, err := s.LoadSection(ctx, lawID, locationID)
	if err != nil {
		return "", err
	}
	text, err := interpolate.ExpandFully(rec.TokenizedText, elements)
	if err != nil {
		return "", fmt.Errorf("reassemble %s/%s: %w", lawID, locationID, err)
	}
	return text, nil
}

// ErrNotFound is returned for sections that were never stored.
var ErrNotFound = sql.ErrNoRows
