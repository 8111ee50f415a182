// Package reports completes requested reports in the background and exports
// finished ones.
package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"starhawk-api-server/internal/analytics"
	"starhawk-api-server/internal/database"
	"starhawk-api-server/internal/events"
	"starhawk-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Worker polls for reports in the generating state. State lives in the store,
// so reports requested before a restart are still completed after it.
type Worker struct {
	store     *database.Store
	publisher events.Publisher
	log       *zap.Logger

	Delay    time.Duration
	Interval time.Duration
	now      func() time.Time
}

func NewWorker(store *database.Store, publisher events.Publisher, delay, interval time.Duration, log *zap.Logger) *Worker {
	if interval <= 0 {
		interval = time.Second
	}
	return &Worker{
		store:     store,
		publisher: publisher,
		log:       log,
		Delay:     delay,
		Interval:  interval,
		now:       time.Now,
	}
}

// Run processes due reports every Interval until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	w.log.Info("report worker started", zap.Duration("delay", w.Delay), zap.Duration("interval", w.Interval))
	for {
		select {
		case <-ctx.Done():
			w.log.Info("report worker stopped")
			return nil
		case <-ticker.C:
			if _, err := w.ProcessDue(ctx); err != nil && ctx.Err() == nil {
				w.log.Error("report processing failed", zap.Error(err))
			}
		}
	}
}

// ProcessDue completes every generating report older than Delay and returns how many it finished.
// A report that cannot be written does not hold up the others; their errors are joined.
func (w *Worker) ProcessDue(ctx context.Context) (int, error) {
	pending, err := w.store.Reports.Find(ctx, bson.M{"status": models.ReportGenerating})
	if err != nil {
		return 0, fmt.Errorf("load pending reports: %w", err)
	}

	done := 0
	var errs []error
	for _, r := range pending {
		if w.now().Sub(r.CreatedAt) < w.Delay {
			continue
		}
		if err := w.complete(ctx, r); err != nil {
			errs = append(errs, err)
			continue
		}
		done++
	}
	return done, errors.Join(errs...)
}

func (w *Worker) generate(ctx context.Context, r models.Report) (*models.Summary, error) {
	window, err := analytics.ParsePeriod(r.ReportType, r.Period)
	if err != nil {
		return nil, err
	}
	return analytics.Generate(ctx, w.store, analytics.Scope{Type: r.Type, Window: window})
}

func (w *Worker) complete(ctx context.Context, r models.Report) error {
	finished := w.now().UTC()
	filter := bson.M{"_id": r.ID, "status": models.ReportGenerating}

	summary, err := w.generate(ctx, r)
	if err != nil {
		w.log.Error("report generation failed", zap.String("reportId", r.ReportID), zap.Error(err))
		_, uerr := w.store.Reports.UpdateOne(ctx, filter, bson.M{
			"status":      models.ReportFailed,
			"error":       err.Error(),
			"completedAt": finished,
		})
		if uerr != nil {
			return fmt.Errorf("mark report %s failed: %w", r.ReportID, uerr)
		}
		return nil
	}

	matched, err := w.store.Reports.UpdateOne(ctx, filter, bson.M{
		"status":      models.ReportCompleted,
		"data":        summary,
		"completedAt": finished,
	})
	if err != nil {
		return fmt.Errorf("complete report %s: %w", r.ReportID, err)
	}
	if matched == 0 {
		return nil
	}

	w.log.Info("report completed", zap.String("reportId", r.ReportID))
	e := events.New(events.ReportCompleted, r.RequestedBy, "Report ready",
		fmt.Sprintf("Report %s (%s) is ready", r.ReportID, r.Period), r.ReportID)
	if err := w.publisher.Publish(ctx, e); err != nil {
		w.log.Warn("publish report event failed", zap.String("reportId", r.ReportID), zap.Error(err))
	}
	return nil
}
