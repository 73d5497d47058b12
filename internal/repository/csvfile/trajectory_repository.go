package csvfile

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/map-metadata/internal/domain"
	"github.com/map-metadata/internal/domain/repository"
	"github.com/map-metadata/internal/temporal"
)

const (
	colTripID       = "trip_id"
	colTimestamp    = "timestamp"
	colLat          = "lat"
	colLong         = "long"
	colSpeed        = "speed"
	colHeading      = "heading"
	colEdgeID       = "edge_id"
	colNodeID       = "node_id"
	colDistance     = "distance"
	colEdgeDistance = "edge_distance"
	colNodeDistance = "node_distance"
)

var trajectoryAliases = map[string]string{
	"position_date_time": colTimestamp,
	"time":               colTimestamp,
	"latitude":           colLat,
	"lon":                colLong,
	"lng":                colLong,
	"longitude":          colLong,
	"edge":               colEdgeID,
	"node":               colNodeID,
	"trip":               colTripID,
}

var trajectoryRequired = []string{colTripID, colTimestamp, colLat, colLong}

// Options - настройки доступа к файлам
type Options struct {
	// Progress выводит прогресс чтения входных файлов в stderr
	Progress bool
}

type trajectoryRepository struct {
	opts   Options
	logger *zap.Logger
}

// NewTrajectoryRepository создает репозиторий траекторий поверх CSV файлов
func NewTrajectoryRepository(opts Options, logger *zap.Logger) repository.TrajectoryRepository {
	return &trajectoryRepository{opts: opts, logger: logger}
}

// LoadTrajectories читает CSV с точками траекторий
func (r *trajectoryRepository) LoadTrajectories(ctx context.Context, path string) (*domain.TrajectoryBatch, error) {
	f, err := openReader(path, r.opts.Progress)
	if err != nil {
		return nil, fmt.Errorf("open trajectories: %w", err)
	}
	defer f.Close()

	batch := &domain.TrajectoryBatch{}
	rows, skipped, err := scan(ctx, f, trajectoryAliases, requireColumns(trajectoryRequired...), func(h header, rec []string, line int) error {
		p, err := parseTrajectoryPoint(h, rec)
		if err != nil {
			r.logger.Warn("Skipping trajectory row",
				zap.String("file", path),
				zap.Int("line", line),
				zap.Error(err))
			return err
		}
		batch.Points = append(batch.Points, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read trajectories %s: %w", path, err)
	}
	batch.Rows = rows
	batch.FormatErrors = skipped

	r.logger.Info("Trajectories loaded",
		zap.String("file", path),
		zap.Int("rows", rows),
		zap.Int("points", len(batch.Points)),
		zap.Int("format_errors", skipped))
	return batch, nil
}

func parseTrajectoryPoint(h header, rec []string) (domain.TrajectoryPoint, error) {
	var p domain.TrajectoryPoint

	p.TripID = h.get(rec, colTripID)
	if p.TripID == "" {
		return p, fmt.Errorf("%w: empty trip id", domain.ErrFormat)
	}

	ts, err := temporal.ParseTimestamp(h.get(rec, colTimestamp))
	if err != nil {
		return p, err
	}
	p.Timestamp = ts

	if p.Lat, err = parseFloat(h.get(rec, colLat), "lat"); err != nil {
		return p, err
	}
	if p.Lon, err = parseFloat(h.get(rec, colLong), "long"); err != nil {
		return p, err
	}

	if v, ok, err := parseOptionalFloat(h.get(rec, colSpeed), "speed"); err != nil {
		return p, err
	} else if ok {
		p.Speed, p.HasSpeed = v, true
	}

	if v, ok, err := parseOptionalFloat(h.get(rec, colHeading), "heading"); err != nil {
		return p, err
	} else if ok {
		if v < 0 || v >= 360 {
			return p, fmt.Errorf("%w: %v", domain.ErrHeadingRange, v)
		}
		p.Heading, p.HasHeading = v, true
	}

	if raw := h.get(rec, colEdgeID); !isMissing(raw) {
		id, err := domain.ParseEdgeID(raw)
		if err != nil {
			return p, err
		}
		p.Edge = &id
	}
	if raw := h.get(rec, colNodeID); !isMissing(raw) {
		id, err := domain.ParseNodeID(raw)
		if err != nil {
			return p, err
		}
		p.Node = &id
	}

	shared, hasShared, err := parseOptionalFloat(h.get(rec, colDistance), "distance")
	if err != nil {
		return p, err
	}
	if hasShared {
		p.EdgeDistance, p.NodeDistance = &shared, &shared
	}
	if v, ok, err := parseOptionalFloat(h.get(rec, colEdgeDistance), "edge_distance"); err != nil {
		return p, err
	} else if ok {
		p.EdgeDistance = &v
	}
	if v, ok, err := parseOptionalFloat(h.get(rec, colNodeDistance), "node_distance"); err != nil {
		return p, err
	} else if ok {
		p.NodeDistance = &v
	}

	return p, nil
}

// isMissing распознаёт пустые и NaN-подобные значения ячейки
func isMissing(s string) bool {
	switch strings.ToLower(s) {
	case "", "nan", "none", "null", "na":
		return true
	}
	return false
}

func parseFloat(s, field string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s %q", domain.ErrFormat, field, s)
	}
	return v, nil
}

func parseOptionalFloat(s, field string) (float64, bool, error) {
	if isMissing(s) {
		return 0, false, nil
	}
	v, err := parseFloat(s, field)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}
