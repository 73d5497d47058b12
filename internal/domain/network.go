package domain

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
)

// NodeID - идентификатор перекрёстка или конечной точки графа дорог
type NodeID int64

func (n NodeID) String() string {
	return strconv.FormatInt(int64(n), 10)
}

// ParseNodeID разбирает десятичный id узла. Вещественная форма вида "42.0"
// тоже принимается.
func ParseNodeID(s string) (NodeID, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return NodeID(v), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return 0, fmt.Errorf("%w: node id %q", ErrFormat, s)
	}
	return NodeID(int64(f)), nil
}

// EdgeID - направленное ребро: концевые узлы и ключ, различающий
// параллельные рёбра между одной парой узлов
type EdgeID struct {
	U   NodeID `json:"u"`
	V   NodeID `json:"v"`
	Key int    `json:"key"`
}

func (e EdgeID) String() string {
	return fmt.Sprintf("(%d, %d, %d)", e.U, e.V, e.Key)
}

// Compare упорядочивает рёбра по (U, V, Key)
func (e EdgeID) Compare(o EdgeID) int {
	if c := cmp.Compare(e.U, o.U); c != 0 {
		return c
	}
	if c := cmp.Compare(e.V, o.V); c != 0 {
		return c
	}
	return cmp.Compare(e.Key, o.Key)
}

// Touches проверяет, является ли n концом ребра
func (e EdgeID) Touches(n NodeID) bool {
	return e.U == n || e.V == n
}

// MarshalText кодирует ребро кортежем, так его можно использовать ключом JSON
func (e EdgeID) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *EdgeID) UnmarshalText(b []byte) error {
	id, err := ParseEdgeID(string(b))
	if err != nil {
		return err
	}
	*e = id
	return nil
}

// ParseEdgeID принимает "(u, v, key)", "(u, v)" и "u-v-key"
func ParseEdgeID(s string) (EdgeID, error) {
	raw := strings.TrimSpace(s)
	var parts []string
	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		parts = strings.Split(raw[1:len(raw)-1], ",")
	} else {
		parts = strings.Split(raw, "-")
	}
	if len(parts) != 2 && len(parts) != 3 {
		return EdgeID{}, fmt.Errorf("%w: edge id %q", ErrFormat, s)
	}

	u, err := ParseNodeID(parts[0])
	if err != nil {
		return EdgeID{}, fmt.Errorf("%w: edge id %q", ErrFormat, s)
	}
	v, err := ParseNodeID(parts[1])
	if err != nil {
		return EdgeID{}, fmt.Errorf("%w: edge id %q", ErrFormat, s)
	}
	id := EdgeID{U: u, V: v}
	if len(parts) == 3 {
		key, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			return EdgeID{}, fmt.Errorf("%w: edge key %q", ErrFormat, s)
		}
		id.Key = key
	}
	return id, nil
}

// EdgeTags - OSM атрибуты ребра в том виде, в каком их отдаёт источник
type EdgeTags struct {
	Oneway   string `json:"oneway" db:"osm_oneway"`
	Lanes    string `json:"lanes" db:"osm_lanes"`
	Name     string `json:"name" db:"osm_name"`
	Highway  string `json:"highway" db:"osm_highway"`
	MaxSpeed string `json:"maxspeed" db:"osm_maxspeed"`
	Length   string `json:"length" db:"osm_length"`
}

// RoadEdge - ребро внешнего графа дорог, только для чтения
type RoadEdge struct {
	ID        EdgeID     `json:"id"`
	Vector    [2]float64 `json:"vector"`
	HasVector bool       `json:"has_vector"`
	Tags      EdgeTags   `json:"tags"`
}

// RoadNode - узел внешнего графа дорог, только для чтения
type RoadNode struct {
	ID          NodeID  `json:"id"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	StreetCount *int    `json:"street_count,omitempty"`
}

// Graph - загруженная дорожная сеть. Строится один раз за прогон и
// больше не изменяется.
type Graph struct {
	edges map[EdgeID]RoadEdge
	nodes map[NodeID]RoadNode
}

// NewGraph индексирует узлы и рёбра. Ребру без опорного вектора он
// вычисляется по координатам концов, если оба конца известны.
func NewGraph(nodes []RoadNode, edges []RoadEdge) *Graph {
	g := &Graph{
		edges: make(map[EdgeID]RoadEdge, len(edges)),
		nodes: make(map[NodeID]RoadNode, len(nodes)),
	}
	for _, n := range nodes {
		g.nodes[n.ID] = n
	}
	for _, e := range edges {
		if !e.HasVector {
			u, okU := g.nodes[e.ID.U]
			v, okV := g.nodes[e.ID.V]
			if okU && okV {
				e.Vector = [2]float64{v.Lon - u.Lon, v.Lat - u.Lat}
				e.HasVector = true
			}
		}
		g.edges[e.ID] = e
	}
	return g
}

func (g *Graph) Edge(id EdgeID) (RoadEdge, bool) {
	if g == nil {
		return RoadEdge{}, false
	}
	e, ok := g.edges[id]
	return e, ok
}

func (g *Graph) Node(id NodeID) (RoadNode, bool) {
	if g == nil {
		return RoadNode{}, false
	}
	n, ok := g.nodes[id]
	return n, ok
}

// EdgeVector возвращает опорное направление ребра (dlon, dlat)
func (g *Graph) EdgeVector(id EdgeID) ([2]float64, bool) {
	e, ok := g.Edge(id)
	if !ok || !e.HasVector {
		return [2]float64{}, false
	}
	return e.Vector, true
}

// EdgeMidpoint возвращает середину отрезка между концами ребра
func (g *Graph) EdgeMidpoint(id EdgeID) (Point, bool) {
	u, okU := g.Node(id.U)
	v, okV := g.Node(id.V)
	if !okU || !okV {
		return Point{}, false
	}
	return Point{Lat: (u.Lat + v.Lat) / 2, Lon: (u.Lon + v.Lon) / 2}, true
}

func (g *Graph) EdgeCount() int {
	if g == nil {
		return 0
	}
	return len(g.edges)
}

func (g *Graph) NodeCount() int {
	if g == nil {
		return 0
	}
	return len(g.nodes)
}
