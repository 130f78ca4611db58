package cron

import (
	"context"
	"testing"
	"time"

	cronv3 "github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/kubernetes"

	"github.com/relocrm/leadstack/config"
	"github.com/relocrm/leadstack/dto"
	cron_config "github.com/relocrm/leadstack/internal/cron/config"
	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/logger"
	"github.com/relocrm/leadstack/internal/models"
)

type mockKubernetesInterface struct {
	kubernetes.Interface
	mock.Mock
}

type mockEmailSync struct {
	mock.Mock
}

func (m *mockEmailSync) SyncEmails(ctx context.Context, folder enum.EmailFolder, limit int, forceSync bool) *dto.SyncResult {
	return m.Called(ctx, folder, limit, forceSync).Get(0).(*dto.SyncResult)
}

func (m *mockEmailSync) SyncAllFolders(ctx context.Context, limit int, forceSync bool) []*dto.SyncResult {
	return m.Called(ctx, limit, forceSync).Get(0).([]*dto.SyncResult)
}

func (m *mockEmailSync) ListFolders(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

type mockAutoSync struct {
	mock.Mock
}

func (m *mockAutoSync) SyncNow(ctx context.Context) models.SyncStatus {
	return m.Called(ctx).Get(0).(models.SyncStatus)
}

func (m *mockAutoSync) Start(ctx context.Context, interval time.Duration) error {
	return m.Called(ctx, interval).Error(0)
}

func (m *mockAutoSync) Stop() {
	m.Called()
}

func (m *mockAutoSync) IsRunning() bool {
	return m.Called().Bool(0)
}

func (m *mockAutoSync) Status() models.SyncStatus {
	return m.Called().Get(0).(models.SyncStatus)
}

func (m *mockAutoSync) NeedsSync() bool {
	return m.Called().Bool(0)
}

func (m *mockAutoSync) Enabled(ctx context.Context) bool {
	return m.Called(ctx).Bool(0)
}

type mockShareTokens struct {
	mock.Mock
}

func (m *mockShareTokens) CreateShareToken(ctx context.Context, customerID, customerName, createdBy string, permissions *models.SharePermissions) (*models.ShareToken, error) {
	args := m.Called(ctx, customerID, customerName, createdBy, permissions)
	token, _ := args.Get(0).(*models.ShareToken)
	return token, args.Error(1)
}

func (m *mockShareTokens) ValidateToken(ctx context.Context, token string) (*models.ShareToken, error) {
	args := m.Called(ctx, token)
	shareToken, _ := args.Get(0).(*models.ShareToken)
	return shareToken, args.Error(1)
}

func (m *mockShareTokens) GetCustomerTokens(ctx context.Context, customerID string) ([]*models.ShareToken, error) {
	args := m.Called(ctx, customerID)
	tokens, _ := args.Get(0).([]*models.ShareToken)
	return tokens, args.Error(1)
}

func (m *mockShareTokens) Revoke(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *mockShareTokens) CleanupExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockShareTokens) GenerateShareURL(token string) string {
	return m.Called(token).String(0)
}

type mockImporter struct {
	mock.Mock
}

func (m *mockImporter) Preview(ctx context.Context, emailID string) (*dto.ImportPreview, error) {
	args := m.Called(ctx, emailID)
	preview, _ := args.Get(0).(*dto.ImportPreview)
	return preview, args.Error(1)
}

func (m *mockImporter) ConfirmImport(ctx context.Context, emailID string, parsed *dto.ParsedCustomerData) (string, error) {
	args := m.Called(ctx, emailID, parsed)
	return args.String(0), args.Error(1)
}

func (m *mockImporter) RetryFailedImports(ctx context.Context, ids []string, lenient bool) (*dto.RetryResult, error) {
	args := m.Called(ctx, ids, lenient)
	result, _ := args.Get(0).(*dto.RetryResult)
	return result, args.Error(1)
}

func (m *mockImporter) ListFailedImports(ctx context.Context, limit int) ([]*models.FailedImport, error) {
	args := m.Called(ctx, limit)
	items, _ := args.Get(0).([]*models.FailedImport)
	return items, args.Error(1)
}

func (m *mockImporter) DismissFailedImport(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func testConfig() *config.Config {
	return &config.Config{
		MailboxConfig: &config.MailboxConfig{DefaultSyncLimit: 25},
		CronConfig: &cron_config.Config{
			CronScheduleHeartbeat:         "0 * * * * *",
			CronScheduleInboxSync:         "0 */5 * * * *",
			CronScheduleAutoSyncCheck:     "30 * * * * *",
			CronScheduleShareTokenCleanup: "0 0 * * * *",
			CronScheduleFailedImportRetry: "0 0 3 * * *",
		},
	}
}

func TestNewCronManager(t *testing.T) {
	// Arrange
	cfg := testConfig()
	log := getLogger()
	k8s := &mockKubernetesInterface{}

	// Act
	cm := NewCronManager(cfg, log, k8s, Jobs{})

	// Assert
	assert.NotNil(t, cm)
	assert.Equal(t, cfg, cm.cfg)
	assert.Equal(t, log, cm.log)
	assert.Equal(t, k8s, cm.k8s)
	assert.NotNil(t, cm.jobIDs)
}

func TestCronManager_RegisterJobs(t *testing.T) {
	// Arrange
	cm := NewCronManager(testConfig(), getLogger(), nil, Jobs{
		EmailSync:      new(mockEmailSync),
		AutoSync:       new(mockAutoSync),
		ShareTokens:    new(mockShareTokens),
		CustomerImport: new(mockImporter),
	})
	c := cronv3.New(cronv3.WithSeconds())

	// Act
	cm.registerJobs(c)

	// Assert
	assert.Len(t, cm.jobIDs, 5)
	assert.Len(t, c.Entries(), 5)
	for _, name := range []string{"heartbeat", "inbox_sync", "auto_sync_check", "share_token_cleanup", "failed_import_retry"} {
		assert.Contains(t, cm.jobIDs, name)
	}
}

func TestCronManager_RegisterJobsSkipsMissingServices(t *testing.T) {
	cm := NewCronManager(testConfig(), getLogger(), nil, Jobs{})
	c := cronv3.New(cronv3.WithSeconds())

	cm.registerJobs(c)

	assert.Len(t, cm.jobIDs, 1)
	assert.Contains(t, cm.jobIDs, "heartbeat")
}

func TestCronManager_SyncInboxUsesConfiguredLimit(t *testing.T) {
	emailSync := new(mockEmailSync)
	emailSync.On("SyncEmails", mock.Anything, enum.EmailFolderInbox, 25, false).
		Return(&dto.SyncResult{Success: true, Count: 3, Folder: "inbox"})
	cm := NewCronManager(testConfig(), getLogger(), nil, Jobs{EmailSync: emailSync})

	cm.syncInbox()

	emailSync.AssertExpectations(t)
}

func TestCronManager_CheckAutoSync(t *testing.T) {
	t.Run("runs when enabled and stale", func(t *testing.T) {
		autoSync := new(mockAutoSync)
		autoSync.On("Enabled", mock.Anything).Return(true)
		autoSync.On("NeedsSync").Return(true)
		autoSync.On("SyncNow", mock.Anything).Return(models.SyncStatus{})
		cm := NewCronManager(testConfig(), getLogger(), nil, Jobs{AutoSync: autoSync})

		cm.checkAutoSync()

		autoSync.AssertCalled(t, "SyncNow", mock.Anything)
	})

	t.Run("skips when disabled", func(t *testing.T) {
		autoSync := new(mockAutoSync)
		autoSync.On("Enabled", mock.Anything).Return(false)
		cm := NewCronManager(testConfig(), getLogger(), nil, Jobs{AutoSync: autoSync})

		cm.checkAutoSync()

		autoSync.AssertNotCalled(t, "SyncNow", mock.Anything)
	})

	t.Run("skips when fresh", func(t *testing.T) {
		autoSync := new(mockAutoSync)
		autoSync.On("Enabled", mock.Anything).Return(true)
		autoSync.On("NeedsSync").Return(false)
		cm := NewCronManager(testConfig(), getLogger(), nil, Jobs{AutoSync: autoSync})

		cm.checkAutoSync()

		autoSync.AssertNotCalled(t, "SyncNow", mock.Anything)
	})
}

func TestCronManager_CleanupShareTokens(t *testing.T) {
	shareTokens := new(mockShareTokens)
	shareTokens.On("CleanupExpired", mock.Anything).Return(int64(2), nil)
	cm := NewCronManager(testConfig(), getLogger(), nil, Jobs{ShareTokens: shareTokens})

	cm.cleanupShareTokens()

	shareTokens.AssertExpectations(t)
}

func TestCronManager_RetryFailedImports(t *testing.T) {
	// Arrange
	importer := new(mockImporter)
	importer.On("ListFailedImports", mock.Anything, failedImportRetryBatch).Return([]*models.FailedImport{
		{ID: "failed_1"}, {ID: "failed_2"},
	}, nil)
	importer.On("RetryFailedImports", mock.Anything, []string{"failed_1", "failed_2"}, false).
		Return(&dto.RetryResult{Processed: 2, Successful: 1, Failed: 1}, nil)
	cm := NewCronManager(testConfig(), getLogger(), nil, Jobs{CustomerImport: importer})

	// Act
	cm.retryFailedImports()

	// Assert
	importer.AssertExpectations(t)
}

func TestCronManager_RetryFailedImportsNothingPending(t *testing.T) {
	importer := new(mockImporter)
	importer.On("ListFailedImports", mock.Anything, failedImportRetryBatch).Return([]*models.FailedImport{}, nil)
	cm := NewCronManager(testConfig(), getLogger(), nil, Jobs{CustomerImport: importer})

	cm.retryFailedImports()

	importer.AssertNotCalled(t, "RetryFailedImports", mock.Anything, mock.Anything, mock.Anything)
}

func TestCronManager_StartLocalAndStop(t *testing.T) {
	// Arrange
	cm := NewCronManager(testConfig(), getLogger(), nil, Jobs{})

	// Act
	err := cm.Start("pod-0", "default")
	require.NoError(t, err)
	cm.Stop()
	cm.Stop()

	// Assert
	select {
	case <-cm.stopCh:
	default:
		t.Error("Stop channel was not closed")
	}
}
