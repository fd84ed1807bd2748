// Package worker provides async batch analysis processing from the EventBus.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/garipamoja/askari/internal/domain"
	"github.com/garipamoja/askari/internal/fraud"
	"github.com/garipamoja/askari/internal/moderation"
	"github.com/garipamoja/askari/internal/pricing"
)

// Worker consumes analysis-request events and dispatches them to the domain
// services. Batch items are scored with the same pipeline as synchronous
// calls; results land in the repository, cache and completion topic.
type Worker struct {
	bus        domain.EventBus
	fraud      *fraud.Service
	pricing    *pricing.Service
	moderation *moderation.Service
	logger     *slog.Logger

	subscriptions []domain.Subscription
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewWorker creates an async batch worker.
func NewWorker(eventBus domain.EventBus, fraudSvc *fraud.Service, pricingSvc *pricing.Service, moderationSvc *moderation.Service, logger *slog.Logger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:        eventBus,
		fraud:      fraudSvc,
		pricing:    pricingSvc,
		moderation: moderationSvc,
		logger:     logger.With("component", "worker"),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start subscribes to the analysis request topic.
func (w *Worker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicAnalysisRequested, w.handleMessage)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	w.logger.Info("worker started", "topic", domain.TopicAnalysisRequested)
	return nil
}

// Stop cancels all subscriptions.
func (w *Worker) Stop() {
	w.cancel()
	for _, sub := range w.subscriptions {
		_ = sub.Unsubscribe()
	}
	w.subscriptions = nil
	w.logger.Info("worker stopped")
}

func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	var batch domain.BatchRequest
	if err := json.Unmarshal(msg.Payload, &batch); err != nil {
		w.logger.Error("failed to parse batch request",
			"message_id", msg.ID, "error", err)
		return err
	}

	w.logger.Debug("processing batch",
		"batch_id", batch.BatchID, "items", len(batch.Items))

	processed := 0
	for i, item := range batch.Items {
		if w.processItem(ctx, &item) {
			processed++
		} else {
			w.logger.Warn("skipping malformed batch item",
				"batch_id", batch.BatchID, "index", i, "domain", item.Domain)
		}
	}

	w.logger.Info("batch processed",
		"batch_id", batch.BatchID, "items", len(batch.Items), "processed", processed)
	return nil
}

// processItem dispatches one item to its domain service. The services
// themselves never fail, so only unroutable items report false.
func (w *Worker) processItem(ctx context.Context, item *domain.BatchItem) bool {
	switch item.Domain {
	case domain.DomainFraud:
		if item.Fraud == nil {
			return false
		}
		w.fraud.Detect(ctx, item.Fraud)
	case domain.DomainPricing:
		if item.Pricing == nil {
			return false
		}
		w.pricing.Suggest(ctx, item.Pricing)
	case domain.DomainModeration:
		if item.Moderation == nil {
			return false
		}
		w.moderation.Check(ctx, item.Moderation)
	default:
		return false
	}
	return true
}
