package auto_sync

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	cronv3 "github.com/robfig/cron/v3"

	"github.com/relocrm/leadstack/config"
	leadstack_errors "github.com/relocrm/leadstack/errors"
	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/internal/localstore"
	"github.com/relocrm/leadstack/internal/logger"
	"github.com/relocrm/leadstack/internal/models"
	"github.com/relocrm/leadstack/internal/repository"
	"github.com/relocrm/leadstack/internal/tracing"
	"github.com/relocrm/leadstack/internal/utils"
	"github.com/relocrm/leadstack/services/realtime"
)

const (
	// StalenessWindow is how old the last completed pass may be before NeedsSync reports true.
	StalenessWindow = 10 * time.Minute
	demoIDPrefix    = "demo_"
)

// AutoSyncService reconciles the legacy tabular source into the primary store.
// Only one pass runs at a time; a call made while busy returns the current status.
type AutoSyncService struct {
	repositories *repository.Repositories
	store        interfaces.LocalStore
	hub          *realtime.Hub
	cfg          *config.AutoSyncConfig
	log          logger.Logger

	mu     sync.Mutex
	status models.SyncStatus
	runner *cronv3.Cron
}

var _ interfaces.AutoSyncService = (*AutoSyncService)(nil)

// NewAutoSyncService restores the last persisted status from the local store.
func NewAutoSyncService(repositories *repository.Repositories, store interfaces.LocalStore, hub *realtime.Hub, cfg *config.AutoSyncConfig, log logger.Logger) *AutoSyncService {
	s := &AutoSyncService{
		repositories: repositories,
		store:        store,
		hub:          hub,
		cfg:          cfg,
		log:          log,
		status:       models.SyncStatus{Errors: []string{}},
	}

	var restored models.SyncStatus
	found, err := store.GetJSON(context.Background(), localstore.KeyAutoSyncStatus, &restored)
	if err != nil {
		log.Warnf("auto-sync status not restored: %v", err)
	} else if found {
		// a pass interrupted by a restart is not in flight any more
		restored.IsSyncing = false
		if restored.Errors == nil {
			restored.Errors = []string{}
		}
		s.status = restored
	}
	return s
}

// SyncNow runs one reconciliation pass and returns the resulting status.
func (s *AutoSyncService) SyncNow(ctx context.Context) models.SyncStatus {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AutoSyncService.SyncNow")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	s.mu.Lock()
	if s.status.IsSyncing {
		current := s.status.Clone()
		s.mu.Unlock()
		span.LogKV("skipped", leadstack_errors.ErrSyncInProgress.Error())
		return current
	}
	s.status.IsSyncing = true
	s.status.Errors = []string{}
	s.status.Synced = models.SyncCounts{}
	s.mu.Unlock()
	s.publish()

	s.log.Info("auto-sync pass started")
	counts, errs := s.runPass(ctx)

	now := utils.Now()
	s.mu.Lock()
	s.status.IsSyncing = false
	s.status.Synced = counts
	s.status.Errors = errs
	s.status.LastSync = &now
	result := s.status.Clone()
	s.mu.Unlock()

	if err := s.store.SetJSON(ctx, localstore.KeyAutoSyncStatus, result); err != nil {
		tracing.TraceErr(span, err)
		s.log.Errorf("auto-sync status not persisted: %v", err)
	}
	s.publish()

	span.LogKV("customers", counts.Customers, "quotes", counts.Quotes, "invoices", counts.Invoices, "errors", len(errs))
	s.log.Infof("auto-sync pass finished: %d customers, %d quotes, %d invoices, %d errors",
		counts.Customers, counts.Quotes, counts.Invoices, len(errs))
	return result
}

func (s *AutoSyncService) runPass(ctx context.Context) (models.SyncCounts, []string) {
	counts := models.SyncCounts{}
	errs := []string{}

	legacy := s.repositories.LegacySource
	if legacy == nil {
		return counts, append(errs, leadstack_errors.ErrLegacySourceAbsent.Error())
	}

	customers, err := legacy.ListCustomers(ctx)
	if err != nil {
		errs = append(errs, fmt.Sprintf("Customers: %v", err))
	} else {
		counts.Customers, errs = reconcile(ctx, "Customer", customers,
			func(row models.LegacyCustomer) string { return row.ID },
			s.repositories.CustomerRepository.ListIDs,
			func(ctx context.Context, row models.LegacyCustomer, exists bool) error {
				customer := row.ToCustomer()
				if exists {
					return s.repositories.CustomerRepository.Overwrite(ctx, &customer)
				}
				return s.repositories.CustomerRepository.Create(ctx, &customer)
			}, errs)
	}

	quotes, err := legacy.ListQuotes(ctx)
	if err != nil {
		errs = append(errs, fmt.Sprintf("Quotes: %v", err))
	} else {
		counts.Quotes, errs = reconcile(ctx, "Quote", quotes,
			func(row models.LegacyQuote) string { return row.ID },
			s.repositories.QuoteRepository.ListIDs,
			func(ctx context.Context, row models.LegacyQuote, exists bool) error {
				quote := row.ToQuote()
				if exists {
					return s.repositories.QuoteRepository.Overwrite(ctx, &quote)
				}
				return s.repositories.QuoteRepository.Create(ctx, &quote)
			}, errs)
	}

	invoices, err := legacy.ListInvoices(ctx)
	if err != nil {
		errs = append(errs, fmt.Sprintf("Invoices: %v", err))
	} else {
		counts.Invoices, errs = reconcile(ctx, "Invoice", invoices,
			func(row models.LegacyInvoice) string { return row.ID },
			s.repositories.InvoiceRepository.ListIDs,
			func(ctx context.Context, row models.LegacyInvoice, exists bool) error {
				invoice := row.ToInvoice()
				if exists {
					return s.repositories.InvoiceRepository.Overwrite(ctx, &invoice)
				}
				return s.repositories.InvoiceRepository.Create(ctx, &invoice)
			}, errs)
	}

	return counts, errs
}

// reconcile inserts rows missing from the primary store and overwrites the rest.
// Row failures are collected and do not stop the loop.
func reconcile[T any](
	ctx context.Context,
	entity string,
	rows []T,
	idOf func(T) string,
	listIDs func(context.Context) ([]string, error),
	write func(ctx context.Context, row T, exists bool) error,
	errs []string,
) (int, []string) {
	ids, err := listIDs(ctx)
	if err != nil {
		return 0, append(errs, fmt.Sprintf("%ss: %v", entity, err))
	}
	existing := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		existing[id] = struct{}{}
	}

	synced := 0
	for _, row := range rows {
		id := idOf(row)
		if id == "" || strings.HasPrefix(id, demoIDPrefix) {
			continue
		}
		_, exists := existing[id]
		if err := write(ctx, row, exists); err != nil {
			errs = append(errs, fmt.Sprintf("%s %s: %v", entity, id, err))
			continue
		}
		existing[id] = struct{}{}
		synced++
	}
	return synced, errs
}

// Start schedules a pass every interval and runs one right away.
// A non-positive interval falls back to the configured one.
// In cluster mode it only persists the toggle; the cron leader runs the passes.
func (s *AutoSyncService) Start(ctx context.Context, interval time.Duration) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "AutoSyncService.Start")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if s.cfg.ClusterMode {
		if err := s.store.SetJSON(ctx, localstore.KeyAutoSyncEnabled, true); err != nil {
			tracing.TraceErr(span, err)
			return err
		}
		s.log.Info("auto-sync enabled, passes run on the cron leader")
		return nil
	}

	if interval <= 0 {
		interval = time.Duration(s.cfg.IntervalMinutes) * time.Minute
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	span.SetTag("interval", interval.String())

	runCtx := context.WithoutCancel(ctx)
	runner := cronv3.New(cronv3.WithChain(cronv3.Recover(cronv3.DefaultLogger)))
	if _, err := runner.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		defer tracing.RecoverAndLogToJaeger(s.log)
		s.SyncNow(runCtx)
	}); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	s.mu.Lock()
	previous := s.runner
	s.runner = runner
	s.mu.Unlock()
	if previous != nil {
		<-previous.Stop().Done()
	}
	runner.Start()

	if err := s.store.SetJSON(ctx, localstore.KeyAutoSyncEnabled, true); err != nil {
		s.log.Warnf("auto-sync flag not persisted: %v", err)
	}
	s.log.Infof("auto-sync started, every %s", interval)

	go func() {
		defer tracing.RecoverAndLogToJaeger(s.log)
		s.SyncNow(runCtx)
	}()
	return nil
}

// Stop halts the interval runner. A pass already in flight completes.
func (s *AutoSyncService) Stop() {
	if s.cfg.ClusterMode {
		if err := s.store.SetJSON(context.Background(), localstore.KeyAutoSyncEnabled, false); err != nil {
			s.log.Warnf("auto-sync flag not persisted: %v", err)
		}
		s.log.Info("auto-sync disabled")
		return
	}

	s.mu.Lock()
	runner := s.runner
	s.runner = nil
	s.mu.Unlock()
	if runner == nil {
		return
	}
	runner.Stop()

	if err := s.store.SetJSON(context.Background(), localstore.KeyAutoSyncEnabled, false); err != nil {
		s.log.Warnf("auto-sync flag not persisted: %v", err)
	}
	s.log.Info("auto-sync stopped")
}

// Shutdown halts the runner for process exit and leaves the persisted toggle alone,
// so the next start resumes it.
func (s *AutoSyncService) Shutdown() {
	s.mu.Lock()
	runner := s.runner
	s.runner = nil
	s.mu.Unlock()
	if runner != nil {
		<-runner.Stop().Done()
	}
}

func (s *AutoSyncService) IsRunning() bool {
	if s.cfg.ClusterMode {
		return s.Enabled(context.Background())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runner != nil
}

// Status prefers the shared status in cluster mode, since passes may have run on another replica.
func (s *AutoSyncService) Status() models.SyncStatus {
	s.mu.Lock()
	local := s.status.Clone()
	s.mu.Unlock()
	if !s.cfg.ClusterMode || local.IsSyncing {
		return local
	}

	var shared models.SyncStatus
	found, err := s.store.GetJSON(context.Background(), localstore.KeyAutoSyncStatus, &shared)
	if err != nil {
		s.log.Warnf("shared auto-sync status not readable: %v", err)
		return local
	}
	if !found {
		return local
	}
	if shared.Errors == nil {
		shared.Errors = []string{}
	}
	return shared
}

// NeedsSync reports whether no pass has completed or the last one is stale.
func (s *AutoSyncService) NeedsSync() bool {
	lastSync := s.Status().LastSync
	if lastSync == nil {
		return true
	}
	return utils.Now().Sub(*lastSync) > StalenessWindow
}

// Enabled reads the persisted toggle, falling back to the configured default.
func (s *AutoSyncService) Enabled(ctx context.Context) bool {
	var enabled bool
	found, err := s.store.GetJSON(ctx, localstore.KeyAutoSyncEnabled, &enabled)
	if err != nil {
		s.log.Warnf("auto-sync flag not readable: %v", err)
		return s.cfg.EnabledDefault
	}
	if !found {
		return s.cfg.EnabledDefault
	}
	return enabled
}

func (s *AutoSyncService) publish() {
	if s.hub == nil {
		return
	}
	s.hub.Publish(realtime.TopicAutoSync, s.Status())
}
