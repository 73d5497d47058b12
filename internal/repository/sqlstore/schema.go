package sqlstore

import (
	"context"
	"fmt"
)

// schema подходит и для PostgreSQL, и для SQLite
var schema = []string{
	`CREATE TABLE IF NOT EXISTS edge_structural (
		position         INTEGER NOT NULL,
		edge_u           BIGINT NOT NULL,
		edge_v           BIGINT NOT NULL,
		edge_key         INTEGER NOT NULL,
		in_graph         BOOLEAN NOT NULL,
		osm_oneway       TEXT,
		osm_lanes        TEXT,
		osm_name         TEXT,
		osm_highway      TEXT,
		osm_maxspeed     TEXT,
		osm_length       TEXT,
		oneway           TEXT NOT NULL,
		vector_oneway    TEXT NOT NULL,
		directions       TEXT NOT NULL,
		trajectory_count INTEGER NOT NULL,
		lat              DOUBLE PRECISION,
		lon              DOUBLE PRECISION,
		PRIMARY KEY (edge_u, edge_v, edge_key)
	)`,
	`CREATE TABLE IF NOT EXISTS edge_functional (
		position            INTEGER NOT NULL,
		edge_u              BIGINT NOT NULL,
		edge_v              BIGINT NOT NULL,
		edge_key            INTEGER NOT NULL,
		time_bin            INTEGER NOT NULL,
		avg_speed           INTEGER,
		avg_speed_ci_lower  DOUBLE PRECISION,
		avg_speed_ci_upper  DOUBLE PRECISION,
		max_speed           INTEGER,
		min_speed           INTEGER,
		travel_time         DOUBLE PRECISION,
		travel_time_ci_lower DOUBLE PRECISION,
		travel_time_ci_upper DOUBLE PRECISION,
		directions          TEXT NOT NULL,
		trajectory_count    INTEGER NOT NULL,
		speed_boxplot       TEXT,
		travel_time_boxplot TEXT,
		PRIMARY KEY (edge_u, edge_v, edge_key, time_bin)
	)`,
	`CREATE TABLE IF NOT EXISTS node_structural (
		position         INTEGER NOT NULL,
		node             BIGINT PRIMARY KEY,
		edges            TEXT NOT NULL,
		edges_count      INTEGER NOT NULL,
		directions       TEXT NOT NULL,
		trajectory_count INTEGER NOT NULL,
		in_graph         BOOLEAN NOT NULL,
		street_count     INTEGER,
		lat              DOUBLE PRECISION,
		lon              DOUBLE PRECISION
	)`,
	`CREATE TABLE IF NOT EXISTS node_functional (
		position            INTEGER NOT NULL,
		node                BIGINT NOT NULL,
		time_bin            INTEGER NOT NULL,
		avg_speed           INTEGER,
		avg_speed_ci_lower  DOUBLE PRECISION,
		avg_speed_ci_upper  DOUBLE PRECISION,
		max_speed           INTEGER,
		min_speed           INTEGER,
		travel_time         DOUBLE PRECISION,
		travel_time_ci_lower DOUBLE PRECISION,
		travel_time_ci_upper DOUBLE PRECISION,
		flow                TEXT NOT NULL,
		trajectory_count    INTEGER NOT NULL,
		speed_boxplot       TEXT,
		travel_time_boxplot TEXT,
		PRIMARY KEY (node, time_bin)
	)`,
	`CREATE TABLE IF NOT EXISTS metadata_runs (
		run_id      TEXT PRIMARY KEY,
		started_at  TEXT NOT NULL,
		diagnostics TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_metadata_runs_started_at ON metadata_runs (started_at)`,
}

// Migrate создаёт таблицы метаданных, если их ещё нет
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
