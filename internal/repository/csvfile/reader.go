// Package csvfile читает траектории и граф дорог из CSV и хранит таблицы
// метаданных в CSV файлах, при необходимости сжатых.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/map-metadata/internal/domain"
)

// header сопоставляет нормализованные имена колонок их индексам в записи
type header map[string]int

func normalizeColumn(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
	s = strings.ToLower(s)
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

func newHeader(record []string, aliases map[string]string) header {
	h := make(header, len(record))
	for i, col := range record {
		name := normalizeColumn(col)
		if canonical, ok := aliases[name]; ok {
			name = canonical
		}
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}
	return h
}

func (h header) has(col string) bool {
	_, ok := h[col]
	return ok
}

// require возвращает ErrSchema со списком всех отсутствующих колонок
func (h header) require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !h.has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing columns %s", domain.ErrSchema, strings.Join(missing, ", "))
	}
	return nil
}

// get возвращает значение col без пробелов, "" если колонки нет
func (h header) get(record []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// requireColumns проверяет заголовок по фиксированному списку колонок
func requireColumns(cols ...string) func(header) error {
	return func(h header) error { return h.require(cols...) }
}

// scan читает CSV построчно. validate проверяет заголовок, fn получает
// номер строки данных (с 2). ErrFormat из fn учитывается и строка
// пропускается, любая другая ошибка прерывает чтение.
func scan(ctx context.Context, r io.Reader, aliases map[string]string, validate func(header) error,
	fn func(h header, record []string, line int) error,
) (rows, skipped int, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	first, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return 0, 0, fmt.Errorf("%w: empty file", domain.ErrSchema)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("read header: %w", err)
	}
	h := newHeader(first, aliases)
	if validate != nil {
		if err := validate(h); err != nil {
			return 0, 0, err
		}
	}

	line := 1
	for {
		line++
		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return rows, skipped, err
			}
		}

		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, skipped, nil
		}
		rows++
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				skipped++
				continue
			}
			return rows, skipped, fmt.Errorf("read line %d: %w", line, err)
		}

		if err := fn(h, record, line); err != nil {
			if errors.Is(err, domain.ErrFormat) {
				skipped++
				continue
			}
			return rows, skipped, err
		}
	}
}
