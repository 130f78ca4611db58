package cron

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v6"
	cronv3 "github.com/robfig/cron/v3"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/leaderelection"
	"k8s.io/client-go/tools/leaderelection/resourcelock"

	"github.com/relocrm/leadstack/config"
	"github.com/relocrm/leadstack/interfaces"
	cron_config "github.com/relocrm/leadstack/internal/cron/config"
	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/logger"
	"github.com/relocrm/leadstack/internal/tracing"
)

// CONSTANTS
const (
	// GroupMail is the group for mailbox jobs
	GroupMail = "mail"
	// GroupSync is the group for tabular source reconciliation
	GroupSync = "sync"
	// GroupMaintenance is the group for cleanup and retry jobs
	GroupMaintenance = "maintenance"

	// LeaseDuration is how long a lease lasts before needing renewal
	LeaseDuration = 15 * time.Second
	// RenewDeadline is how long a leader has to renew its lease
	RenewDeadline = 10 * time.Second
	// RetryPeriod is how long to wait between leadership attempts
	RetryPeriod = 2 * time.Second

	failedImportRetryBatch = 50
)

// LOCK MANAGEMENT
var jobLocks = struct {
	sync.Mutex
	locks map[string]*sync.Mutex
}{
	locks: map[string]*sync.Mutex{
		GroupMail:        new(sync.Mutex),
		GroupSync:        new(sync.Mutex),
		GroupMaintenance: new(sync.Mutex),
	},
}

// Jobs are the services the scheduled jobs drive. Nil members disable their jobs.
type Jobs struct {
	EmailSync      interfaces.EmailSyncService
	AutoSync       interfaces.AutoSyncService
	ShareTokens    interfaces.ShareTokenService
	CustomerImport interfaces.CustomerImportService
}

type CronManager struct {
	cfg      *config.Config
	log      logger.Logger
	cron     *cronv3.Cron
	k8s      kubernetes.Interface
	stopCh   chan struct{}
	stopOnce sync.Once
	jobIDs   map[string]cronv3.EntryID
	jobs     Jobs
}

func NewCronManager(cfg *config.Config, log logger.Logger, k8s kubernetes.Interface, jobs Jobs) *CronManager {
	return &CronManager{
		cfg:    cfg,
		log:    log,
		k8s:    k8s,
		stopCh: make(chan struct{}),
		jobIDs: make(map[string]cronv3.EntryID),
		jobs:   jobs,
	}
}

// Start initializes and starts the cron manager with leader election
// If k8s is nil, it will start in local mode without leader election
func (cm *CronManager) Start(podName, namespace string) error {
	if cm.k8s == nil || os.Getenv("LOCAL_DEV") == "true" {
		cm.log.Info("Starting cron manager in local mode")
		cm.StartCron()
		return nil
	}

	lock := &resourcelock.LeaseLock{
		LeaseMeta: metav1.ObjectMeta{
			Name:      "leadstack-cron-leader",
			Namespace: namespace,
		},
		Client: cm.k8s.CoordinationV1(),
		LockConfig: resourcelock.ResourceLockConfig{
			Identity: podName,
		},
	}

	errCh := make(chan error, 1)

	go func() {
		defer tracing.RecoverAndLogToJaeger(cm.log)

		le, err := leaderelection.NewLeaderElector(leaderelection.LeaderElectionConfig{
			Lock:            lock,
			ReleaseOnCancel: true,
			LeaseDuration:   LeaseDuration,
			RenewDeadline:   RenewDeadline,
			RetryPeriod:     RetryPeriod,
			Callbacks: leaderelection.LeaderCallbacks{
				OnStartedLeading: func(ctx context.Context) {
					cm.StartCron()
				},
				OnStoppedLeading: func() {
					cm.log.Info("Leader lost - stopping crons")
					cm.Stop()
				},
				OnNewLeader: func(identity string) {
					cm.log.Infof("New leader elected: %s", identity)
				},
			},
		})
		if err != nil {
			errCh <- err
			return
		}

		le.Run(context.Background())
	}()

	// Wait briefly to see if leader election fails immediately
	select {
	case err := <-errCh:
		cm.log.Warnf("Leader election failed, falling back to local mode: %v", err)
		cm.StartCron()
	case <-time.After(5 * time.Second):
	}

	return nil
}

// Stop gracefully stops the cron manager. Safe to call more than once.
func (cm *CronManager) Stop() {
	cm.stopOnce.Do(func() {
		if cm.cron != nil {
			cm.log.Info("Stopping cron manager")
			ctx := cm.cron.Stop()
			// Wait for jobs to finish
			<-ctx.Done()
		}
		close(cm.stopCh)
	})
}

func (cm *CronManager) cronConfig() *cron_config.Config {
	if cm.cfg != nil && cm.cfg.CronConfig != nil {
		return cm.cfg.CronConfig
	}
	var cronConfig cron_config.Config
	if err := env.Parse(&cronConfig); err != nil {
		cm.log.Fatalf("Failed to parse cron config from environment: %v", err)
	}
	return &cronConfig
}

func (cm *CronManager) addJob(c *cronv3.Cron, name, schedule, group string, job func()) {
	if schedule == "" {
		return
	}
	id, err := c.AddFunc(schedule, func() {
		defer tracing.RecoverAndLogToJaeger(cm.log)
		if group != "" {
			jobLocks.locks[group].Lock()
			defer jobLocks.locks[group].Unlock()
		}
		job()
	})
	if err != nil {
		cm.log.Fatalf("Could not add %s cron job: %v", name, err)
	}
	cm.jobIDs[name] = id
	cm.log.Infof("Registered %s job with schedule: %s", name, schedule)
}

// registerJobs adds all cron jobs to the scheduler
func (cm *CronManager) registerJobs(c *cronv3.Cron) {
	cronConfig := cm.cronConfig()

	podName := os.Getenv("POD_NAME")
	if podName == "" {
		podName = "local"
	}
	cm.addJob(c, "heartbeat", cronConfig.CronScheduleHeartbeat, "", func() {
		cm.log.Infof("Cron heartbeat from pod: %s", podName)
	})

	if cm.jobs.EmailSync != nil {
		cm.addJob(c, "inbox_sync", cronConfig.CronScheduleInboxSync, GroupMail, cm.syncInbox)
	}
	if cm.jobs.AutoSync != nil {
		cm.addJob(c, "auto_sync_check", cronConfig.CronScheduleAutoSyncCheck, GroupSync, cm.checkAutoSync)
	}
	if cm.jobs.ShareTokens != nil {
		cm.addJob(c, "share_token_cleanup", cronConfig.CronScheduleShareTokenCleanup, GroupMaintenance, cm.cleanupShareTokens)
	}
	if cm.jobs.CustomerImport != nil {
		cm.addJob(c, "failed_import_retry", cronConfig.CronScheduleFailedImportRetry, GroupMaintenance, cm.retryFailedImports)
	}
}

// StartCron initializes and starts the cron scheduler
func (cm *CronManager) StartCron() {
	cm.log.Info("Starting cron manager")
	// seconds field enabled, overlapping runs skipped
	cronOptions := []cronv3.Option{
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger),
			cronv3.Recover(cronv3.DefaultLogger),
		),
	}
	c := cronv3.New(cronOptions...)
	cm.registerJobs(c)
	c.Start()
	cm.cron = c
}

func (cm *CronManager) syncInbox() {
	span, ctx := tracing.StartTracerSpan(context.Background(), "CronManager.syncInbox")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	limit := 0
	if cm.cfg != nil && cm.cfg.MailboxConfig != nil {
		limit = cm.cfg.MailboxConfig.DefaultSyncLimit
	}

	result := cm.jobs.EmailSync.SyncEmails(ctx, enum.EmailFolderInbox, limit, false)
	if !result.Success {
		cm.log.Errorf("Scheduled inbox sync failed: %s", result.Error)
		span.SetTag("error", true)
		return
	}
	if result.Count > 0 {
		cm.log.Infof("Scheduled inbox sync stored %d emails", result.Count)
	}
}

func (cm *CronManager) checkAutoSync() {
	span, ctx := tracing.StartTracerSpan(context.Background(), "CronManager.checkAutoSync")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	if !cm.jobs.AutoSync.Enabled(ctx) || !cm.jobs.AutoSync.NeedsSync() {
		return
	}

	status := cm.jobs.AutoSync.SyncNow(ctx)
	if len(status.Errors) > 0 {
		cm.log.Warnf("Auto-sync finished with %d errors", len(status.Errors))
	}
}

func (cm *CronManager) cleanupShareTokens() {
	span, ctx := tracing.StartTracerSpan(context.Background(), "CronManager.cleanupShareTokens")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	expired, err := cm.jobs.ShareTokens.CleanupExpired(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Failed to expire share tokens: %v", err)
		return
	}
	if expired > 0 {
		cm.log.Infof("Expired %d share tokens", expired)
	}
}

func (cm *CronManager) retryFailedImports() {
	span, ctx := tracing.StartTracerSpan(context.Background(), "CronManager.retryFailedImports")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	failed, err := cm.jobs.CustomerImport.ListFailedImports(ctx, failedImportRetryBatch)
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Failed to list failed imports: %v", err)
		return
	}
	if len(failed) == 0 {
		return
	}

	ids := make([]string, 0, len(failed))
	for _, f := range failed {
		ids = append(ids, f.ID)
	}

	result, err := cm.jobs.CustomerImport.RetryFailedImports(ctx, ids, false)
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Failed to retry failed imports: %v", err)
		return
	}
	cm.log.Infof("Retried %d failed imports: %d successful, %d failed", result.Processed, result.Successful, result.Failed)
}
