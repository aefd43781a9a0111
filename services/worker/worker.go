package worker

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"sjsage522/housewatch/internal/crawler"
	"sjsage522/housewatch/logger"
	"sjsage522/housewatch/pkg/errors"
	"sjsage522/housewatch/services/notifier"
	"sjsage522/housewatch/services/publisher"
	"sjsage522/housewatch/services/store"
)

// Worker runs poll-extract-diff-notify cycles over the configured sources
type Worker struct {
	crawlers  []crawler.Crawler
	store     store.Store
	notifier  notifier.Notifier
	publisher publisher.Publisher
	log       *logger.Logger

	now   func() time.Time
	newID func() string
}

// CycleResult summarizes one cycle
type CycleResult struct {
	CycleID       string
	NewItems      int
	Notified      int
	Undelivered   int
	Suppressed    int
	SourcesOK     int
	SourcesFailed int
	Duration      time.Duration
}

// NewWorker creates a new worker. pub may be nil.
func NewWorker(
	crawlers []crawler.Crawler,
	st store.Store,
	n notifier.Notifier,
	pub publisher.Publisher,
) *Worker {
	return &Worker{
		crawlers:  crawlers,
		store:     st,
		notifier:  n,
		publisher: pub,
		log:       logger.ForWorker(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// RunCycle processes every source once and persists the grown seen set. It
// returns the number of new listings. Source failures are logged and
// skipped; only a failed save or a cancelled context is returned.
func (w *Worker) RunCycle(ctx context.Context, suppressFirstRun bool) (int, error) {
	result, err := w.runCycle(ctx, suppressFirstRun)
	return result.NewItems, err
}

func (w *Worker) runCycle(ctx context.Context, suppressFirstRun bool) (CycleResult, error) {
	start := w.now()
	result := CycleResult{CycleID: w.newID()}
	log := w.log.WithField("cycle_id", result.CycleID)

	state := w.store.Load(ctx)
	notify := NotifyPolicy(state.Initialized, suppressFirstRun)
	if !notify {
		log.Info().Msg("First run: new listings are logged, not sent")
	}

	for _, c := range w.crawlers {
		if err := ctx.Err(); err != nil {
			log.Warn().Err(err).Msg("Cycle interrupted, state not saved")
			return result, err
		}

		name := c.GetName()
		links, err := c.FetchLinks(ctx)
		if err != nil {
			result.SourcesFailed++
			if errors.IsRateLimit(err) {
				logger.ForSource(name).Warn().Err(err).Msg("Source cooling down, skipped")
			} else {
				logger.ForSource(name).Error().Err(err).Msg("Fetch failed, skipped")
			}
			continue
		}
		result.SourcesOK++

		for _, link := range links {
			fp := store.Fingerprint(link)
			if !state.Add(fp) {
				continue
			}
			result.NewItems++

			msg := notifier.FormatMessage(name, link)
			if !notify {
				result.Suppressed++
				logger.ForSource(name).Info().Str("link", link).Msg("[dry-run] " + msg)
				continue
			}

			if w.notifier.Notify(ctx, msg) {
				result.Notified++
			} else {
				result.Undelivered++
			}
			w.publishEvent(ctx, result.CycleID, fp, name, link)
		}
	}

	state.Initialized = true
	if err := w.store.Save(ctx, state); err != nil {
		log.Error().Err(err).Msg("Failed to persist state")
		return result, err
	}

	result.Duration = w.now().Sub(start)
	log.Info().
		Int("sources_ok", result.SourcesOK).
		Int("sources_failed", result.SourcesFailed).
		Int("new", result.NewItems).
		Int("notified", result.Notified).
		Int("undelivered", result.Undelivered).
		Int("suppressed", result.Suppressed).
		Int("seen", state.Len()).
		Dur("duration", result.Duration).
		Str("state", w.stateLocation()).
		Msg("Cycle completed")

	return result, nil
}

func (w *Worker) publishEvent(ctx context.Context, cycleID, fp, source, link string) {
	if w.publisher == nil {
		return
	}

	payload, err := publisher.ListingEvent{
		ID:           fp,
		Source:       source,
		Link:         link,
		DiscoveredAt: w.now().UTC(),
		CycleID:      cycleID,
	}.Encode()
	if err == nil {
		err = w.publisher.Publish(ctx, publisher.ListingEventKey, payload)
	}
	if err != nil {
		logger.ForPublisher().Warn().
			Err(errors.NewPublisher(source, "publish listing event", err)).
			Str("link", link).
			Msg("Failed to publish listing event")
	}
}

func (w *Worker) stateLocation() string {
	if fs, ok := w.store.(*store.FileStore); ok {
		return fs.Path()
	}
	return fmt.Sprintf("%T", w.store)
}

// Start runs a cycle immediately and then every interval until ctx is
// cancelled. Cycle errors and panics are logged and the loop carries on.
func (w *Worker) Start(ctx context.Context, suppressFirstRun bool, interval time.Duration) {
	w.log.Info().Dur("interval", interval).Msg("Starting monitor")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		w.safeCycle(ctx, suppressFirstRun)

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Monitor stopped")
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) safeCycle(ctx context.Context, suppressFirstRun bool) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("Cycle panicked")
		}
	}()

	if _, err := w.RunCycle(ctx, suppressFirstRun); err != nil && ctx.Err() == nil {
		w.log.Error().Err(err).Msg("Cycle failed")
	}
}
