package csvfile

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/map-metadata/internal/domain"
	"github.com/map-metadata/internal/domain/repository"
)

var edgeAliases = map[string]string{
	"edge_id": "edge",
	"x":       "vector_x",
	"y":       "vector_y",
	"dx":      "vector_x",
	"dy":      "vector_y",

	"osm_oneway":   "oneway",
	"osm_lanes":    "lanes",
	"osm_name":     "name",
	"osm_highway":  "highway",
	"osm_maxspeed": "maxspeed",
	"osm_length":   "length",
}

var nodeAliases = map[string]string{
	"node_id":  "node",
	"osmid":    "node",
	"id":       "node",
	"latitude": "lat",
	"y":        "lat",
	"lon":      "long",
	"lng":      "long",
	"x":        "long",
}

type graphRepository struct {
	opts   Options
	logger *zap.Logger
}

// NewGraphRepository создает репозиторий графа дорог поверх CSV файлов
func NewGraphRepository(opts Options, logger *zap.Logger) repository.GraphRepository {
	return &graphRepository{opts: opts, logger: logger}
}

// LoadGraph читает рёбра и (опционально) узлы графа
func (r *graphRepository) LoadGraph(ctx context.Context, edgesPath, nodesPath string) (*domain.Graph, error) {
	var nodes []domain.RoadNode
	if nodesPath != "" {
		var err error
		nodes, err = r.loadNodes(ctx, nodesPath)
		if err != nil {
			return nil, err
		}
	}

	edges, err := r.loadEdges(ctx, edgesPath)
	if err != nil {
		return nil, err
	}

	g := domain.NewGraph(nodes, edges)
	r.logger.Info("Road graph loaded",
		zap.Int("edges", g.EdgeCount()),
		zap.Int("nodes", g.NodeCount()))
	return g, nil
}

func (r *graphRepository) loadEdges(ctx context.Context, path string) ([]domain.RoadEdge, error) {
	f, err := openReader(path, r.opts.Progress)
	if err != nil {
		return nil, fmt.Errorf("open edges: %w", err)
	}
	defer f.Close()

	var edges []domain.RoadEdge
	_, skipped, err := scan(ctx, f, edgeAliases, validateEdgeHeader, func(h header, rec []string, line int) error {
		e, err := parseRoadEdge(h, rec)
		if err != nil {
			r.logger.Warn("Skipping edge row", zap.String("file", path), zap.Int("line", line), zap.Error(err))
			return err
		}
		edges = append(edges, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read edges %s: %w", path, err)
	}
	if skipped > 0 {
		r.logger.Warn("Edge rows skipped", zap.String("file", path), zap.Int("count", skipped))
	}
	return edges, nil
}

func validateEdgeHeader(h header) error {
	if !h.has("edge") && !(h.has("u") && h.has("v")) {
		return fmt.Errorf("%w: edges need an edge column or u and v", domain.ErrSchema)
	}
	return nil
}

func parseRoadEdge(h header, rec []string) (domain.RoadEdge, error) {
	var e domain.RoadEdge

	if raw := h.get(rec, "edge"); raw != "" {
		id, err := domain.ParseEdgeID(raw)
		if err != nil {
			return e, err
		}
		e.ID = id
	} else {
		u, err := domain.ParseNodeID(h.get(rec, "u"))
		if err != nil {
			return e, err
		}
		v, err := domain.ParseNodeID(h.get(rec, "v"))
		if err != nil {
			return e, err
		}
		e.ID = domain.EdgeID{U: u, V: v}
		if k := h.get(rec, "key"); !isMissing(k) {
			key, err := strconv.Atoi(k)
			if err != nil {
				return e, fmt.Errorf("%w: edge key %q", domain.ErrFormat, k)
			}
			e.ID.Key = key
		}
	}

	if raw := h.get(rec, "vector"); !isMissing(raw) {
		vec, err := parseVector(raw)
		if err != nil {
			return e, err
		}
		e.Vector = vec
		e.HasVector = true
	} else {
		vx, okX, err := parseOptionalFloat(h.get(rec, "vector_x"), "vector_x")
		if err != nil {
			return e, err
		}
		vy, okY, err := parseOptionalFloat(h.get(rec, "vector_y"), "vector_y")
		if err != nil {
			return e, err
		}
		if okX && okY {
			e.Vector = [2]float64{vx, vy}
			e.HasVector = true
		}
	}

	e.Tags = domain.EdgeTags{
		Oneway:   h.get(rec, "oneway"),
		Lanes:    h.get(rec, "lanes"),
		Name:     h.get(rec, "name"),
		Highway:  h.get(rec, "highway"),
		MaxSpeed: h.get(rec, "maxspeed"),
		Length:   h.get(rec, "length"),
	}
	return e, nil
}

// parseVector разбирает вектор ребра в виде "[x, y]" или "[x y]"
func parseVector(s string) ([2]float64, error) {
	var vec [2]float64
	body := strings.TrimSpace(s)
	if !strings.HasPrefix(body, "[") || !strings.HasSuffix(body, "]") {
		return vec, fmt.Errorf("%w: vector %q", domain.ErrFormat, s)
	}
	parts := strings.FieldsFunc(body[1:len(body)-1], func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(parts) != 2 {
		return vec, fmt.Errorf("%w: vector %q", domain.ErrFormat, s)
	}
	for i, p := range parts {
		v, err := parseFloat(p, "vector")
		if err != nil {
			return vec, err
		}
		vec[i] = v
	}
	return vec, nil
}

func (r *graphRepository) loadNodes(ctx context.Context, path string) ([]domain.RoadNode, error) {
	f, err := openReader(path, r.opts.Progress)
	if err != nil {
		return nil, fmt.Errorf("open nodes: %w", err)
	}
	defer f.Close()

	var nodes []domain.RoadNode
	_, skipped, err := scan(ctx, f, nodeAliases, requireColumns("node", "lat", "long"), func(h header, rec []string, line int) error {
		n, err := parseRoadNode(h, rec)
		if err != nil {
			r.logger.Warn("Skipping node row", zap.String("file", path), zap.Int("line", line), zap.Error(err))
			return err
		}
		nodes = append(nodes, n)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read nodes %s: %w", path, err)
	}
	if skipped > 0 {
		r.logger.Warn("Node rows skipped", zap.String("file", path), zap.Int("count", skipped))
	}
	return nodes, nil
}

func parseRoadNode(h header, rec []string) (domain.RoadNode, error) {
	var n domain.RoadNode

	id, err := domain.ParseNodeID(h.get(rec, "node"))
	if err != nil {
		return n, err
	}
	n.ID = id

	if n.Lat, err = parseFloat(h.get(rec, "lat"), "lat"); err != nil {
		return n, err
	}
	if n.Lon, err = parseFloat(h.get(rec, "long"), "long"); err != nil {
		return n, err
	}

	if raw := h.get(rec, "street_count"); !isMissing(raw) {
		id, err := domain.ParseNodeID(raw)
		if err != nil {
			return n, fmt.Errorf("%w: street_count %q", domain.ErrFormat, raw)
		}
		sc := int(id)
		n.StreetCount = &sc
	}
	return n, nil
}
