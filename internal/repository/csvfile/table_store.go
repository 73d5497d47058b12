package csvfile

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/map-metadata/internal/domain"
	"github.com/map-metadata/internal/domain/repository"
)

const runsFile = "runs.jsonl"

type tableStore struct {
	dir         string
	compression Compression
	logger      *zap.Logger
}

// NewTableStore создает хранилище таблиц метаданных в каталоге dir.
// Каждая таблица пишется в отдельный файл <table>.csv с расширением сжатия.
func NewTableStore(dir string, compression Compression, logger *zap.Logger) repository.MetadataRepository {
	return &tableStore{dir: dir, compression: compression, logger: logger}
}

// TablePath возвращает путь к файлу таблицы
func TablePath(dir string, table domain.TableName, c Compression) string {
	return filepath.Join(dir, string(table)+".csv"+c.Extension())
}

// SaveTables пишет все таблицы во временные файлы и затем переименовывает их
func (s *tableStore) SaveTables(ctx context.Context, tables *domain.MetadataTables) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	written := make(map[string]string, len(domain.AllTables))
	defer func() {
		for tmp := range written {
			os.Remove(tmp)
		}
	}()

	for _, table := range domain.AllTables {
		if err := ctx.Err(); err != nil {
			return err
		}
		final := TablePath(s.dir, table, s.compression)
		// сохраняем расширение, чтобы createWriter выбрал тот же кодек
		tmp := filepath.Join(s.dir, ".tmp-"+filepath.Base(final))
		if err := s.writeTable(tmp, table, tables); err != nil {
			return fmt.Errorf("write %s: %w", table, err)
		}
		written[tmp] = final
	}

	for _, table := range domain.AllTables {
		final := TablePath(s.dir, table, s.compression)
		tmp := filepath.Join(s.dir, ".tmp-"+filepath.Base(final))
		if err := os.Rename(tmp, final); err != nil {
			return fmt.Errorf("replace %s: %w", final, err)
		}
		delete(written, tmp)
	}

	s.logger.Info("Metadata tables written",
		zap.String("dir", s.dir),
		zap.Int("edge_structural", len(tables.EdgeStructural)),
		zap.Int("edge_functional", len(tables.EdgeFunctional)),
		zap.Int("node_structural", len(tables.NodeStructural)),
		zap.Int("node_functional", len(tables.NodeFunctional)))
	return nil
}

func (s *tableStore) writeTable(path string, table domain.TableName, tables *domain.MetadataTables) (err error) {
	w, err := createWriter(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()

	return WriteTable(w, table, tables)
}

// WriteTable кодирует одну таблицу в CSV
func WriteTable(w io.Writer, table domain.TableName, tables *domain.MetadataTables) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns(table)); err != nil {
		return err
	}

	switch table {
	case domain.TableEdgeStructural:
		for _, r := range tables.EdgeStructural {
			if err := cw.Write(encodeEdgeStructural(r)); err != nil {
				return err
			}
		}
	case domain.TableEdgeFunctional:
		for _, r := range tables.EdgeFunctional {
			rec, err := encodeEdgeFunctional(r)
			if err != nil {
				return err
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	case domain.TableNodeStructural:
		for _, r := range tables.NodeStructural {
			if err := cw.Write(encodeNodeStructural(r)); err != nil {
				return err
			}
		}
	case domain.TableNodeFunctional:
		for _, r := range tables.NodeFunctional {
			rec, err := encodeNodeFunctional(r)
			if err != nil {
				return err
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownTable, table)
	}

	cw.Flush()
	return cw.Error()
}

// LoadTables читает все четыре таблицы из каталога
func (s *tableStore) LoadTables(ctx context.Context) (*domain.MetadataTables, error) {
	tables := &domain.MetadataTables{}
	for _, table := range domain.AllTables {
		path := TablePath(s.dir, table, s.compression)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		if err := s.readTable(ctx, path, table, tables); err != nil {
			return nil, fmt.Errorf("read %s: %w", table, err)
		}
	}
	return tables, nil
}

func (s *tableStore) readTable(ctx context.Context, path string, table domain.TableName, tables *domain.MetadataTables) error {
	f, err := openReader(path, false)
	if err != nil {
		return err
	}
	defer f.Close()

	var cols []string
	for _, c := range Columns(table) {
		cols = append(cols, normalizeColumn(c))
	}

	_, skipped, err := scan(ctx, f, nil, requireColumns(cols...), func(h header, rec []string, line int) error {
		switch table {
		case domain.TableEdgeStructural:
			r, err := decodeEdgeStructural(h, rec)
			if err != nil {
				return err
			}
			tables.EdgeStructural = append(tables.EdgeStructural, r)
		case domain.TableEdgeFunctional:
			r, err := decodeEdgeFunctional(h, rec)
			if err != nil {
				return err
			}
			tables.EdgeFunctional = append(tables.EdgeFunctional, r)
		case domain.TableNodeStructural:
			r, err := decodeNodeStructural(h, rec)
			if err != nil {
				return err
			}
			tables.NodeStructural = append(tables.NodeStructural, r)
		case domain.TableNodeFunctional:
			r, err := decodeNodeFunctional(h, rec)
			if err != nil {
				return err
			}
			tables.NodeFunctional = append(tables.NodeFunctional, r)
		}
		return nil
	})
	if skipped > 0 {
		s.logger.Warn("Metadata rows skipped", zap.String("file", path), zap.Int("count", skipped))
	}
	return err
}

// SaveRun дописывает диагностику прогона в runs.jsonl
func (s *tableStore) SaveRun(ctx context.Context, diag *domain.Diagnostics) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	data, err := json.Marshal(diag)
	if err != nil {
		return fmt.Errorf("marshal diagnostics: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(s.dir, runsFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open runs file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append run: %w", err)
	}
	return nil
}

// LatestRun возвращает последнюю запись runs.jsonl
func (s *tableStore) LatestRun(ctx context.Context) (*domain.Diagnostics, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, runsFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read runs file: %w", err)
	}

	var last []byte
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		if line := bytes.TrimSpace(sc.Bytes()); len(line) > 0 {
			last = append(last[:0], line...)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan runs file: %w", err)
	}
	if last == nil {
		return nil, domain.ErrNotFound
	}

	var diag domain.Diagnostics
	if err := json.Unmarshal(last, &diag); err != nil {
		return nil, fmt.Errorf("unmarshal diagnostics: %w", err)
	}
	return &diag, nil
}
