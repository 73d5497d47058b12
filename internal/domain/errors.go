package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat - строку не удалось разобрать (время, id или число).
	// Строка пропускается, прогон продолжается.
	ErrFormat = errors.New("format error")

	// ErrHeadingRange - курс вне диапазона [0, 360)
	ErrHeadingRange = fmt.Errorf("%w: heading out of range [0, 360)", ErrFormat)

	// ErrSchema - во входных данных нет обязательной колонки. Прогон прерывается.
	ErrSchema = errors.New("schema error")

	ErrInvalidRegion = errors.New("invalid query region")
	ErrUnknownTable  = errors.New("unknown metadata table")
	ErrNotFound      = errors.New("not found")
)
