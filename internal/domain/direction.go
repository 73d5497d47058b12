package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// CardinalDirection - один из восьми румбов компаса
type CardinalDirection uint8

const (
	North CardinalDirection = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
)

// CardinalCount - число значений CardinalDirection
const CardinalCount = 8

var cardinalNames = [CardinalCount]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// AllCardinals перечисляет румбы в порядке перечисления
func AllCardinals() []CardinalDirection {
	out := make([]CardinalDirection, CardinalCount)
	for i := range out {
		out[i] = CardinalDirection(i)
	}
	return out
}

func (c CardinalDirection) String() string {
	if int(c) < CardinalCount {
		return cardinalNames[c]
	}
	return "CardinalDirection(" + strconv.Itoa(int(c)) + ")"
}

func (c CardinalDirection) Valid() bool {
	return int(c) < CardinalCount
}

// Opposite возвращает точно противоположный румб (N/S, NE/SW, E/W, SE/NW)
func (c CardinalDirection) Opposite() CardinalDirection {
	return (c + 4) % CardinalCount
}

// ApproxOpposites возвращает два румба, соседних с противоположным,
// например SW и SE для N
func (c CardinalDirection) ApproxOpposites() [2]CardinalDirection {
	op := c.Opposite()
	return [2]CardinalDirection{(op + 1) % CardinalCount, (op + CardinalCount - 1) % CardinalCount}
}

func (c CardinalDirection) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid cardinal direction %d", c)
	}
	return []byte(c.String()), nil
}

func (c *CardinalDirection) UnmarshalText(b []byte) error {
	v, err := ParseCardinal(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseCardinal разбирает обозначение румба, например "NE"
func ParseCardinal(s string) (CardinalDirection, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, name := range cardinalNames {
		if name == s {
			return CardinalDirection(i), nil
		}
	}
	return 0, fmt.Errorf("%w: cardinal direction %q", ErrFormat, s)
}

// CardinalSet - множество румбов
type CardinalSet uint8

func NewCardinalSet(dirs ...CardinalDirection) CardinalSet {
	var s CardinalSet
	for _, d := range dirs {
		s = s.Add(d)
	}
	return s
}

func (s CardinalSet) Add(d CardinalDirection) CardinalSet {
	if !d.Valid() {
		return s
	}
	return s | 1<<d
}

func (s CardinalSet) Has(d CardinalDirection) bool {
	return d.Valid() && s&(1<<d) != 0
}

func (s CardinalSet) Union(o CardinalSet) CardinalSet {
	return s | o
}

func (s CardinalSet) Empty() bool {
	return s == 0
}

func (s CardinalSet) Len() int {
	n := 0
	for v := s; v != 0; v &= v - 1 {
		n++
	}
	return n
}

// Slice возвращает элементы в порядке перечисления
func (s CardinalSet) Slice() []CardinalDirection {
	out := make([]CardinalDirection, 0, s.Len())
	for _, d := range AllCardinals() {
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

// String выводит множество как "N|SE" в порядке перечисления
func (s CardinalSet) String() string {
	dirs := s.Slice()
	names := make([]string, len(dirs))
	for i, d := range dirs {
		names[i] = d.String()
	}
	return strings.Join(names, "|")
}

func (s CardinalSet) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *CardinalSet) UnmarshalText(b []byte) error {
	v, err := ParseCardinalSet(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseCardinalSet разбирает форму String. Пустая строка - пустое множество.
func ParseCardinalSet(str string) (CardinalSet, error) {
	var s CardinalSet
	str = strings.TrimSpace(str)
	if str == "" {
		return s, nil
	}
	for _, part := range strings.Split(str, "|") {
		d, err := ParseCardinal(part)
		if err != nil {
			return 0, err
		}
		s = s.Add(d)
	}
	return s, nil
}

// TurnCategory - тип изменения курса между двумя точками
type TurnCategory uint8

const (
	TurnNone TurnCategory = iota
	TurnRight
	TurnLeft
	TurnAhead
	TurnUTurn
)

func (t TurnCategory) String() string {
	switch t {
	case TurnRight:
		return "right"
	case TurnLeft:
		return "left"
	case TurnAhead:
		return "ahead"
	case TurnUTurn:
		return "u_turn"
	default:
		return "none"
	}
}

func (t TurnCategory) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Directionality - структурная направленность движения по ребру
type Directionality uint8

const (
	Ambiguous Directionality = iota
	Oneway
	Twoway
)

func (d Directionality) String() string {
	switch d {
	case Oneway:
		return "oneway"
	case Twoway:
		return "twoway"
	default:
		return "ambiguous"
	}
}

func (d Directionality) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Directionality) UnmarshalText(b []byte) error {
	v, err := ParseDirectionality(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func ParseDirectionality(s string) (Directionality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "oneway":
		return Oneway, nil
	case "twoway":
		return Twoway, nil
	case "ambiguous", "", "nan":
		return Ambiguous, nil
	}
	return Ambiguous, fmt.Errorf("%w: directionality %q", ErrFormat, s)
}

// SegmentDirection - метка направления проезда сегмента относительно
// опорного вектора ребра
type SegmentDirection uint8

const (
	DirectionUndefined SegmentDirection = iota
	DirectionForward
	DirectionBackward
	DirectionParallel
)

func (d SegmentDirection) String() string {
	switch d {
	case DirectionForward:
		return "+"
	case DirectionBackward:
		return "-"
	case DirectionParallel:
		return "p"
	default:
		return "NaN"
	}
}

func (d SegmentDirection) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// DirectionTally считает метки направлений сегментов на ребре
type DirectionTally struct {
	Forward  int `json:"+"`
	Backward int `json:"-"`
	Parallel int `json:"p"`
}

func (t *DirectionTally) Add(d SegmentDirection) {
	switch d {
	case DirectionForward:
		t.Forward++
	case DirectionBackward:
		t.Backward++
	case DirectionParallel:
		t.Parallel++
	}
}

func (t DirectionTally) Total() int {
	return t.Forward + t.Backward + t.Parallel
}

func (t DirectionTally) String() string {
	return fmt.Sprintf("+=%d;-=%d;p=%d", t.Forward, t.Backward, t.Parallel)
}

// ParseDirectionTally разбирает форму String
func ParseDirectionTally(s string) (DirectionTally, error) {
	var t DirectionTally
	s = strings.TrimSpace(s)
	if s == "" {
		return t, nil
	}
	for _, part := range strings.Split(s, ";") {
		label, raw, ok := strings.Cut(part, "=")
		if !ok {
			return t, fmt.Errorf("%w: direction tally %q", ErrFormat, s)
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return t, fmt.Errorf("%w: direction tally %q", ErrFormat, s)
		}
		switch label {
		case "+":
			t.Forward = n
		case "-":
			t.Backward = n
		case "p":
			t.Parallel = n
		default:
			return t, fmt.Errorf("%w: direction label %q", ErrFormat, label)
		}
	}
	return t, nil
}

// FlowCounts - упорядоченное отображение румба в число сегментов,
// покидающих узел в этом направлении
type FlowCounts [CardinalCount]int

func (f *FlowCounts) Add(d CardinalDirection) {
	if d.Valid() {
		f[d]++
	}
}

func (f FlowCounts) Total() int {
	n := 0
	for _, c := range f {
		n += c
	}
	return n
}

// String выводит ненулевые значения как "N=3;E=1" в порядке перечисления
func (f FlowCounts) String() string {
	parts := make([]string, 0, CardinalCount)
	for i, c := range f {
		if c > 0 {
			parts = append(parts, cardinalNames[i]+"="+strconv.Itoa(c))
		}
	}
	return strings.Join(parts, ";")
}

// MarshalJSON кодирует счётчики объектом с ключами-румбами в порядке перечисления
func (f FlowCounts) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for i, c := range f {
		if c == 0 {
			continue
		}
		if !first {
			b.WriteByte(',')
		}
		first = false
		fmt.Fprintf(&b, "%q:%d", cardinalNames[i], c)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

func (f *FlowCounts) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	*f = FlowCounts{}
	if strings.TrimSpace(s) == "" {
		return nil
	}
	for _, part := range strings.Split(s, ",") {
		label, raw, ok := strings.Cut(part, ":")
		if !ok {
			return fmt.Errorf("%w: flow %s", ErrFormat, b)
		}
		d, err := ParseCardinal(strings.Trim(strings.TrimSpace(label), `"`))
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%w: flow %s", ErrFormat, b)
		}
		f[d] = n
	}
	return nil
}

// ParseFlowCounts разбирает форму String
func ParseFlowCounts(s string) (FlowCounts, error) {
	var f FlowCounts
	s = strings.TrimSpace(s)
	if s == "" {
		return f, nil
	}
	for _, part := range strings.Split(s, ";") {
		label, raw, ok := strings.Cut(part, "=")
		if !ok {
			return f, fmt.Errorf("%w: flow %q", ErrFormat, s)
		}
		d, err := ParseCardinal(label)
		if err != nil {
			return f, err
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return f, fmt.Errorf("%w: flow %q", ErrFormat, s)
		}
		f[d] = n
	}
	return f, nil
}
