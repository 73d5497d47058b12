// Package temporal раскладывает отметки времени по типу дня и времени суток.
package temporal

import (
	"fmt"
	"strings"
	"time"

	"github.com/map-metadata/internal/domain"
)

// Дневные часы: с 04:00 по 18:59 включительно
const (
	dayStartHour = 4
	dayEndHour   = 18
)

// Unit задаёт единицу измерения для Elapsed
type Unit string

const (
	Hours   Unit = "hours"
	Minutes Unit = "minutes"
)

// ParseTimestamp разбирает "YYYY-MM-DD HH:MM:SS". Формат RFC 3339 тоже
// принимается.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(domain.TimestampLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: timestamp %q", domain.ErrFormat, s)
}

// DayType возвращает 1 для будних дней (ISO 1-5) и 0 для выходных
func DayType(t time.Time) int {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return 0
	default:
		return 1
	}
}

// TimeType возвращает 1 для часов из [4, 18] и -1 для остальных
func TimeType(t time.Time) int {
	if h := t.Hour(); h >= dayStartHour && h <= dayEndHour {
		return 1
	}
	return -1
}

// TimeBin - это DayType + TimeType
func TimeBin(t time.Time) domain.TimeBin {
	return BinOf(DayType(t), TimeType(t))
}

// BinOf объединяет тип дня и тип времени в бин
func BinOf(dayType, timeType int) domain.TimeBin {
	return domain.TimeBin(dayType + timeType)
}

// Elapsed возвращает t2 - t1 в заданных единицах. Результат отрицателен,
// если t2 раньше t1.
func Elapsed(t1, t2 time.Time, unit Unit) (float64, error) {
	d := t2.Sub(t1)
	switch unit {
	case Hours:
		return d.Hours(), nil
	case Minutes:
		return d.Minutes(), nil
	default:
		return 0, fmt.Errorf("unknown time unit %q", unit)
	}
}
