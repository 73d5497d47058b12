package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/map-metadata/internal/domain"
	"github.com/map-metadata/internal/domain/repository"
)

const (
	// insertBatch ограничивает число строк в одном INSERT, чтобы не
	// упереться в лимит параметров SQLite и PostgreSQL
	insertBatch = 500

	runTimeLayout = "2006-01-02T15:04:05.000000000Z"
)

const (
	insertEdgeStructural = `INSERT INTO edge_structural (
		position, edge_u, edge_v, edge_key, in_graph, osm_oneway, osm_lanes, osm_name,
		osm_highway, osm_maxspeed, osm_length, oneway, vector_oneway, directions,
		trajectory_count, lat, lon
	) VALUES (
		:position, :edge_u, :edge_v, :edge_key, :in_graph, :osm_oneway, :osm_lanes, :osm_name,
		:osm_highway, :osm_maxspeed, :osm_length, :oneway, :vector_oneway, :directions,
		:trajectory_count, :lat, :lon
	)`

	insertEdgeFunctional = `INSERT INTO edge_functional (
		position, edge_u, edge_v, edge_key, time_bin, avg_speed, avg_speed_ci_lower,
		avg_speed_ci_upper, max_speed, min_speed, travel_time, travel_time_ci_lower,
		travel_time_ci_upper, directions, trajectory_count, speed_boxplot, travel_time_boxplot
	) VALUES (
		:position, :edge_u, :edge_v, :edge_key, :time_bin, :avg_speed, :avg_speed_ci_lower,
		:avg_speed_ci_upper, :max_speed, :min_speed, :travel_time, :travel_time_ci_lower,
		:travel_time_ci_upper, :directions, :trajectory_count, :speed_boxplot, :travel_time_boxplot
	)`

	insertNodeStructural = `INSERT INTO node_structural (
		position, node, edges, edges_count, directions, trajectory_count, in_graph,
		street_count, lat, lon
	) VALUES (
		:position, :node, :edges, :edges_count, :directions, :trajectory_count, :in_graph,
		:street_count, :lat, :lon
	)`

	insertNodeFunctional = `INSERT INTO node_functional (
		position, node, time_bin, avg_speed, avg_speed_ci_lower, avg_speed_ci_upper,
		max_speed, min_speed, travel_time, travel_time_ci_lower, travel_time_ci_upper,
		flow, trajectory_count, speed_boxplot, travel_time_boxplot
	) VALUES (
		:position, :node, :time_bin, :avg_speed, :avg_speed_ci_lower, :avg_speed_ci_upper,
		:max_speed, :min_speed, :travel_time, :travel_time_ci_lower, :travel_time_ci_upper,
		:flow, :trajectory_count, :speed_boxplot, :travel_time_boxplot
	)`
)

type metadataRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewMetadataRepository создает SQL-хранилище таблиц метаданных и истории прогонов
func NewMetadataRepository(db *DB) repository.MetadataRepository {
	return &metadataRepository{
		db:     db,
		logger: db.logger,
	}
}

// SaveTables заменяет содержимое всех четырёх таблиц в одной транзакции
func (r *metadataRepository) SaveTables(ctx context.Context, tables *domain.MetadataTables) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range domain.AllTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+string(table)); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := insertEdgeStructuralRows(ctx, tx, tables.EdgeStructural); err != nil {
		return err
	}
	if err := insertEdgeFunctionalRows(ctx, tx, tables.EdgeFunctional); err != nil {
		return err
	}
	if err := insertNodeStructuralRows(ctx, tx, tables.NodeStructural); err != nil {
		return err
	}
	if err := insertNodeFunctionalRows(ctx, tx, tables.NodeFunctional); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tables: %w", err)
	}

	r.logger.Info("Metadata tables stored",
		zap.String("driver", r.db.DriverName()),
		zap.Int("edge_structural", len(tables.EdgeStructural)),
		zap.Int("edge_functional", len(tables.EdgeFunctional)),
		zap.Int("node_structural", len(tables.NodeStructural)),
		zap.Int("node_functional", len(tables.NodeFunctional)))
	return nil
}

func insertEdgeStructuralRows(ctx context.Context, tx *sqlx.Tx, rows []domain.EdgeStructural) error {
	batch := make([]edgeStructuralRow, 0, min(len(rows), insertBatch))
	for i, row := range rows {
		batch = append(batch, toEdgeStructuralRow(i, row))
		if len(batch) == insertBatch || i == len(rows)-1 {
			if err := insertRows(ctx, tx, insertEdgeStructural, batch); err != nil {
				return fmt.Errorf("failed to insert edge_structural: %w", err)
			}
			batch = batch[:0]
		}
	}
	return nil
}

func insertEdgeFunctionalRows(ctx context.Context, tx *sqlx.Tx, rows []domain.EdgeFunctional) error {
	batch := make([]edgeFunctionalRow, 0, min(len(rows), insertBatch))
	for i, row := range rows {
		dbRow, err := toEdgeFunctionalRow(i, row)
		if err != nil {
			return err
		}
		batch = append(batch, dbRow)
		if len(batch) == insertBatch || i == len(rows)-1 {
			if err := insertRows(ctx, tx, insertEdgeFunctional, batch); err != nil {
				return fmt.Errorf("failed to insert edge_functional: %w", err)
			}
			batch = batch[:0]
		}
	}
	return nil
}

func insertNodeStructuralRows(ctx context.Context, tx *sqlx.Tx, rows []domain.NodeStructural) error {
	batch := make([]nodeStructuralRow, 0, min(len(rows), insertBatch))
	for i, row := range rows {
		dbRow, err := toNodeStructuralRow(i, row)
		if err != nil {
			return err
		}
		batch = append(batch, dbRow)
		if len(batch) == insertBatch || i == len(rows)-1 {
			if err := insertRows(ctx, tx, insertNodeStructural, batch); err != nil {
				return fmt.Errorf("failed to insert node_structural: %w", err)
			}
			batch = batch[:0]
		}
	}
	return nil
}

func insertNodeFunctionalRows(ctx context.Context, tx *sqlx.Tx, rows []domain.NodeFunctional) error {
	batch := make([]nodeFunctionalRow, 0, min(len(rows), insertBatch))
	for i, row := range rows {
		dbRow, err := toNodeFunctionalRow(i, row)
		if err != nil {
			return err
		}
		batch = append(batch, dbRow)
		if len(batch) == insertBatch || i == len(rows)-1 {
			if err := insertRows(ctx, tx, insertNodeFunctional, batch); err != nil {
				return fmt.Errorf("failed to insert node_functional: %w", err)
			}
			batch = batch[:0]
		}
	}
	return nil
}

// insertRows выполняет многострочный INSERT через NamedExec со срезом
func insertRows[T any](ctx context.Context, tx *sqlx.Tx, query string, batch []T) error {
	if len(batch) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, query, batch)
	return err
}

// LoadTables читает все таблицы. Если прогонов не было и таблицы пусты,
// возвращает domain.ErrNotFound.
func (r *metadataRepository) LoadTables(ctx context.Context) (*domain.MetadataTables, error) {
	var runs int
	if err := r.db.GetContext(ctx, &runs, "SELECT COUNT(*) FROM metadata_runs"); err != nil {
		return nil, fmt.Errorf("failed to count runs: %w", err)
	}

	tables := &domain.MetadataTables{}

	var es []edgeStructuralRow
	if err := r.db.SelectContext(ctx, &es, "SELECT * FROM edge_structural ORDER BY position"); err != nil {
		return nil, fmt.Errorf("failed to select edge_structural: %w", err)
	}
	for _, row := range es {
		v, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		tables.EdgeStructural = append(tables.EdgeStructural, v)
	}

	var ef []edgeFunctionalRow
	if err := r.db.SelectContext(ctx, &ef, "SELECT * FROM edge_functional ORDER BY position"); err != nil {
		return nil, fmt.Errorf("failed to select edge_functional: %w", err)
	}
	for _, row := range ef {
		v, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		tables.EdgeFunctional = append(tables.EdgeFunctional, v)
	}

	var ns []nodeStructuralRow
	if err := r.db.SelectContext(ctx, &ns, "SELECT * FROM node_structural ORDER BY position"); err != nil {
		return nil, fmt.Errorf("failed to select node_structural: %w", err)
	}
	for _, row := range ns {
		v, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		tables.NodeStructural = append(tables.NodeStructural, v)
	}

	var nf []nodeFunctionalRow
	if err := r.db.SelectContext(ctx, &nf, "SELECT * FROM node_functional ORDER BY position"); err != nil {
		return nil, fmt.Errorf("failed to select node_functional: %w", err)
	}
	for _, row := range nf {
		v, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		tables.NodeFunctional = append(tables.NodeFunctional, v)
	}

	if runs == 0 && len(es)+len(ef)+len(ns)+len(nf) == 0 {
		return nil, domain.ErrNotFound
	}
	return tables, nil
}

// SaveRun сохраняет диагностику прогона
func (r *metadataRepository) SaveRun(ctx context.Context, diag *domain.Diagnostics) error {
	data, err := json.Marshal(diag)
	if err != nil {
		return fmt.Errorf("marshal diagnostics: %w", err)
	}

	startedAt := diag.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	query := r.db.Rebind(`INSERT INTO metadata_runs (run_id, started_at, diagnostics) VALUES (?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, query, diag.RunID.String(), startedAt.UTC().Format(runTimeLayout), string(data)); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// LatestRun возвращает диагностику самого позднего прогона
func (r *metadataRepository) LatestRun(ctx context.Context) (*domain.Diagnostics, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, `SELECT run_id, started_at, diagnostics FROM metadata_runs
		ORDER BY started_at DESC, run_id DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select latest run: %w", err)
	}

	var diag domain.Diagnostics
	if err := json.Unmarshal([]byte(row.Diagnostics), &diag); err != nil {
		return nil, fmt.Errorf("unmarshal diagnostics: %w", err)
	}
	return &diag, nil
}
