package aggregation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/map-metadata/internal/domain"
	"github.com/map-metadata/internal/domain/repository"
	"github.com/map-metadata/internal/usecase"
	"github.com/map-metadata/internal/usecase/dto"
	"github.com/map-metadata/internal/worker"
)

// retryBackoff - пауза перед повтором, умножается на номер попытки
var retryBackoff = time.Second

// Recomputer - запуск прогона агрегации
type Recomputer interface {
	Recompute(ctx context.Context, req dto.RecomputeRequest) (*usecase.RecomputeResult, error)
}

// RecomputeWorker обрабатывает события пересчёта из stream:metadata:recompute
// и публикует итог в stream:metadata:done
type RecomputeWorker struct {
	*worker.BaseWorker
	streamRepo    repository.StreamRepository
	aggregationUC Recomputer
	consumerName  string
	maxRetries    int
}

// NewRecomputeWorker создает новый RecomputeWorker. Пустой consumerName
// заменяется на hostname-pid.
func NewRecomputeWorker(
	streamRepo repository.StreamRepository,
	aggregationUC Recomputer,
	consumerGroup string,
	consumerName string,
	maxRetries int,
	logger *zap.Logger,
) *RecomputeWorker {
	if consumerName == "" {
		hostname, _ := os.Hostname()
		consumerName = fmt.Sprintf("%s-%d", hostname, os.Getpid())
	}

	return &RecomputeWorker{
		BaseWorker:    worker.NewBaseWorker("metadata-recompute", consumerGroup, logger),
		streamRepo:    streamRepo,
		aggregationUC: aggregationUC,
		consumerName:  consumerName,
		maxRetries:    maxRetries,
	}
}

// Start запускает воркер
func (w *RecomputeWorker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting RecomputeWorker",
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.consumerName))

	// Создаем consumer group, если его нет
	if err := w.streamRepo.CreateConsumerGroup(ctx, domain.StreamMetadataRecompute, w.ConsumerGroup()); err != nil {
		logger.Error("Failed to create consumer group", zap.Error(err))
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	// Подписываемся на стрим
	msgChan, err := w.streamRepo.ConsumeStream(ctx, domain.StreamMetadataRecompute, w.ConsumerGroup(), w.consumerName)
	if err != nil {
		logger.Error("Failed to consume stream", zap.Error(err))
		return fmt.Errorf("failed to consume stream: %w", err)
	}

	for {
		select {
		case <-w.StopChan():
			logger.Info("Worker stopped")
			return nil

		case <-ctx.Done():
			logger.Info("Context cancelled")
			return ctx.Err()

		case msg, ok := <-msgChan:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn("Message channel closed")
				return fmt.Errorf("message channel closed")
			}

			if err := w.processMessage(ctx, msg); err != nil {
				// без ACK сообщение останется в PEL и будет прочитано повторно
				logger.Error("Failed to process message",
					zap.String("message_id", msg.ID),
					zap.Error(err))
				continue
			}

			if err := w.streamRepo.AckMessage(ctx, domain.StreamMetadataRecompute, w.ConsumerGroup(), msg.ID); err != nil {
				logger.Error("Failed to acknowledge message",
					zap.String("message_id", msg.ID),
					zap.Error(err))
			}
		}
	}
}

// processMessage обрабатывает одно событие. Ошибка возвращается только когда
// итог не удалось опубликовать.
func (w *RecomputeWorker) processMessage(ctx context.Context, msg domain.StreamMessage) error {
	logger := w.Logger()

	var event domain.RecomputeEvent
	if err := json.Unmarshal([]byte(msg.Data), &event); err != nil {
		// битое сообщение подтверждаем и пропускаем
		logger.Error("Failed to unmarshal event",
			zap.String("message_id", msg.ID),
			zap.String("raw_data", msg.Data),
			zap.Error(err))
		w.RecordFailed()
		return nil
	}

	logger.Info("Processing recompute event",
		zap.String("run_id", event.RunID.String()),
		zap.String("message_id", msg.ID))

	req := dto.RecomputeRequest{
		RunID:          event.RunID,
		TrajectoryPath: event.TrajectoryPath,
		EdgesPath:      event.EdgesPath,
		NodesPath:      event.NodesPath,
	}

	result, err := w.recomputeWithRetry(ctx, req)
	done := domain.RecomputeDoneEvent{RunID: event.RunID}
	if err != nil {
		logger.Error("Recompute failed",
			zap.String("run_id", event.RunID.String()),
			zap.Error(err))
		done.Error = err.Error()
		w.RecordFailed()
	} else {
		w.RecordProcessed()
		done.RunID = result.Diagnostics.RunID
		done.Diagnostics = result.Diagnostics
	}

	if err := w.streamRepo.PublishToStream(ctx, domain.StreamMetadataDone, &done); err != nil {
		return fmt.Errorf("failed to publish result: %w", err)
	}

	logger.Info("Recompute event processed",
		zap.String("run_id", done.RunID.String()),
		zap.Bool("succeeded", done.Succeeded()))
	return nil
}

// recomputeWithRetry повторяет прогон при временных ошибках. Ошибки входных
// данных не повторяются.
func (w *RecomputeWorker) recomputeWithRetry(ctx context.Context, req dto.RecomputeRequest) (*usecase.RecomputeResult, error) {
	var lastErr error
	for attempt := 0; attempt <= w.maxRetries; attempt++ {
		if attempt > 0 {
			w.Logger().Warn("Retrying recompute",
				zap.Int("attempt", attempt),
				zap.Error(lastErr))
			select {
			case <-time.After(time.Duration(attempt) * retryBackoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := w.aggregationUC.Recompute(ctx, req)
		if err == nil {
			return result, nil
		}
		if !retryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("recompute failed after %d retries: %w", w.maxRetries, lastErr)
}

func retryable(err error) bool {
	switch {
	case errors.Is(err, domain.ErrSchema),
		errors.Is(err, domain.ErrFormat),
		errors.Is(err, os.ErrNotExist),
		errors.Is(err, context.Canceled):
		return false
	}
	return true
}
