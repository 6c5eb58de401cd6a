package feed

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/gridsight/siterank/internal/geo"
)

// SQLiteStore is a local snapshot store for infrastructure features. It
// serves two purposes: an offline Loader for environments without upstream
// access, and a persistence target for snapshots loaded elsewhere.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and migrates) a SQLite snapshot database.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "feed: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "feed: exec %s", pragma)
		}
	}
	if _, err := db.Exec(sqliteMigration); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "feed: migrate sqlite")
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS features (
	id           TEXT NOT NULL,
	feature_type TEXT NOT NULL,
	name         TEXT NOT NULL DEFAULT '',
	lat          REAL NOT NULL,
	lng          REAL NOT NULL,
	vertices     TEXT,
	attrs        TEXT,
	PRIMARY KEY (feature_type, id)
);
CREATE INDEX IF NOT EXISTS idx_features_type ON features(feature_type);
`

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load implements Loader.
func (s *SQLiteStore) Load(ctx context.Context, ft geo.FeatureType) ([]*geo.Feature, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, lat, lng, vertices, attrs FROM features WHERE feature_type = ? ORDER BY id`,
		string(ft),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "feed: query sqlite %s features", ft)
	}
	defer rows.Close()

	var features []*geo.Feature
	for rows.Next() {
		var (
			f        geo.Feature
			verts    sql.NullString
			attrsRaw sql.NullString
		)
		if err := rows.Scan(&f.ID, &f.Name, &f.Lat, &f.Lng, &verts, &attrsRaw); err != nil {
			return nil, eris.Wrapf(err, "feed: scan sqlite %s feature", ft)
		}
		f.Type = ft
		if verts.Valid && verts.String != "" {
			if err := json.Unmarshal([]byte(verts.String), &f.Verts); err != nil {
				return nil, eris.Wrapf(err, "feed: decode vertices for %s/%s", ft, f.ID)
			}
		}
		if attrsRaw.Valid && attrsRaw.String != "" {
			if err := json.Unmarshal([]byte(attrsRaw.String), &f.Attrs); err != nil {
				return nil, eris.Wrapf(err, "feed: decode attrs for %s/%s", ft, f.ID)
			}
		}
		features = append(features, &f)
	}
	return features, rows.Err()
}

// Save replaces the stored collection for one feature type with the given
// snapshot, atomically within a transaction.
func (s *SQLiteStore) Save(ctx context.Context, ft geo.FeatureType, features []*geo.Feature) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "feed: begin sqlite tx")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM features WHERE feature_type = ?`, string(ft)); err != nil {
		return eris.Wrapf(err, "feed: clear %s features", ft)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO features (id, feature_type, name, lat, lng, vertices, attrs) VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "feed: prepare insert")
	}
	defer func() { _ = stmt.Close() }()

	for _, f := range features {
		var verts, attrs any
		if len(f.Verts) > 0 {
			raw, err := json.Marshal(f.Verts)
			if err != nil {
				return eris.Wrapf(err, "feed: encode vertices for %s/%s", ft, f.ID)
			}
			verts = string(raw)
		}
		if len(f.Attrs) > 0 {
			raw, err := json.Marshal(f.Attrs)
			if err != nil {
				return eris.Wrapf(err, "feed: encode attrs for %s/%s", ft, f.ID)
			}
			attrs = string(raw)
		}
		if _, err := stmt.ExecContext(ctx, f.ID, string(ft), f.Name, f.Lat, f.Lng, verts, attrs); err != nil {
			return eris.Wrapf(err, "feed: insert %s/%s", ft, f.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "feed: commit sqlite tx")
	}
	return nil
}
