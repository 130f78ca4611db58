package share_token

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relocrm/leadstack/config"
	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/logger"
	"github.com/relocrm/leadstack/internal/models"
	"github.com/relocrm/leadstack/internal/repository"
	"github.com/relocrm/leadstack/internal/repository/inmemory"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode:  true,
		LogLevel: "debug",
	})
	appLogger.InitLogger()
	return appLogger
}

func newTestService() (interfaces.ShareTokenService, *repository.Repositories) {
	repos := inmemory.NewRepositories(nil)
	svc := NewShareTokenService(repos, &config.ShareTokenConfig{ValidityDays: 7}, "https://crm.example.com/", getLogger())
	return svc, repos
}

func TestCreateShareToken_UsesMostRecentQuote(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, repos := newTestService()
	require.NoError(t, repos.QuoteRepository.Create(ctx, &models.Quote{
		ID: "quote_march_1", CustomerID: "cust_1", CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, repos.QuoteRepository.Create(ctx, &models.Quote{
		ID: "quote_march_10", CustomerID: "cust_1", CreatedAt: time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
	}))

	// Act
	token, err := svc.CreateShareToken(ctx, "cust_1", "Max Mustermann", "office@relocrm.de", nil)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "quote_march_10", token.QuoteID)
	assert.Equal(t, enum.ShareTokenActive, token.Status)
	assert.Equal(t, models.DefaultSharePermissions(), token.Permissions)
	assert.Len(t, token.Token, 36)
	assert.WithinDuration(t, time.Now().UTC().Add(7*24*time.Hour), token.ExpiresAt, time.Minute)
}

func TestCreateShareToken_WithoutQuoteUsesDefault(t *testing.T) {
	svc, _ := newTestService()
	perms := &models.SharePermissions{ViewCustomer: true, ViewQuote: true}

	token, err := svc.CreateShareToken(context.Background(), "cust_2", "Anna Schmidt", "", perms)

	require.NoError(t, err)
	assert.Equal(t, DefaultQuoteID, token.QuoteID)
	assert.True(t, token.Permissions.ViewQuote)
	assert.False(t, token.Permissions.ViewPhotos)
	assert.Equal(t, "system", token.CreatedBy)
}

func TestValidateToken_CountsEveryAccess(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, _ := newTestService()
	token, err := svc.CreateShareToken(ctx, "cust_1", "Max Mustermann", "office@relocrm.de", nil)
	require.NoError(t, err)

	// Act
	first, err := svc.ValidateToken(ctx, token.Token)
	require.NoError(t, err)
	second, err := svc.ValidateToken(ctx, token.Token)
	require.NoError(t, err)

	// Assert
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, int64(1), first.AccessCount)
	assert.Equal(t, int64(2), second.AccessCount)
	require.NotNil(t, second.LastAccessedAt)
	assert.False(t, second.LastAccessedAt.Before(*first.LastAccessedAt))
}

func TestValidateToken_ExpiredLeavesCounterUnchanged(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, repos := newTestService()
	store := repos.ShareTokenRepository.(*inmemory.ShareTokenRepository)
	store.Put(models.ShareToken{
		Token:       "expired-token",
		CustomerID:  "cust_1",
		Status:      enum.ShareTokenActive,
		AccessCount: 4,
		ExpiresAt:   time.Now().UTC().Add(-time.Hour),
	})

	// Act
	result, err := svc.ValidateToken(ctx, "expired-token")

	// Assert
	require.NoError(t, err)
	assert.Nil(t, result)
	stored, _ := repos.ShareTokenRepository.GetByToken(ctx, "expired-token")
	assert.Equal(t, int64(4), stored.AccessCount)
	assert.Nil(t, stored.LastAccessedAt)
}

func TestValidateToken_Unknown(t *testing.T) {
	svc, _ := newTestService()

	result, err := svc.ValidateToken(context.Background(), "does-not-exist")

	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestRevoke_KeepsRecordAndInvalidates(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc, repos := newTestService()
	token, err := svc.CreateShareToken(ctx, "cust_1", "Max Mustermann", "office@relocrm.de", nil)
	require.NoError(t, err)

	// Act
	require.NoError(t, svc.Revoke(ctx, token.Token))

	// Assert
	result, err := svc.ValidateToken(ctx, token.Token)
	require.NoError(t, err)
	assert.Nil(t, result)
	stored, _ := repos.ShareTokenRepository.GetByToken(ctx, token.Token)
	require.NotNil(t, stored)
	assert.Equal(t, enum.ShareTokenRevoked, stored.Status)
	assert.True(t, stored.ExpiresAt.Before(time.Now().UTC()))
	assert.NotNil(t, stored.RevokedAt)

	tokens, err := svc.GetCustomerTokens(ctx, "cust_1")
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestCleanupExpired(t *testing.T) {
	ctx := context.Background()
	svc, repos := newTestService()
	store := repos.ShareTokenRepository.(*inmemory.ShareTokenRepository)
	store.Put(models.ShareToken{Token: "old", CustomerID: "cust_1", Status: enum.ShareTokenActive, ExpiresAt: time.Now().UTC().Add(-time.Minute)})
	store.Put(models.ShareToken{Token: "fresh", CustomerID: "cust_1", Status: enum.ShareTokenActive, ExpiresAt: time.Now().UTC().Add(time.Hour)})

	n, err := svc.CleanupExpired(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	old, _ := repos.ShareTokenRepository.GetByToken(ctx, "old")
	assert.Equal(t, enum.ShareTokenExpired, old.Status)
	tokens, _ := svc.GetCustomerTokens(ctx, "cust_1")
	require.Len(t, tokens, 1)
	assert.Equal(t, "fresh", tokens[0].Token)
}

func TestGenerateShareURL(t *testing.T) {
	svc, _ := newTestService()

	assert.Equal(t, "https://crm.example.com/share/abc", svc.GenerateShareURL("abc"))
}
