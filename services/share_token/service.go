package share_token

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/relocrm/leadstack/config"
	leadstack_errors "github.com/relocrm/leadstack/errors"
	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/internal/enum"
	"github.com/relocrm/leadstack/internal/logger"
	"github.com/relocrm/leadstack/internal/models"
	"github.com/relocrm/leadstack/internal/repository"
	"github.com/relocrm/leadstack/internal/tracing"
	"github.com/relocrm/leadstack/internal/utils"
)

const (
	DefaultValidity = 7 * 24 * time.Hour
	// DefaultQuoteID is linked when the customer has no quote yet.
	DefaultQuoteID = "default"
)

type shareTokenService struct {
	repositories *repository.Repositories
	validity     time.Duration
	publicURL    string
	log          logger.Logger
}

func NewShareTokenService(repositories *repository.Repositories, cfg *config.ShareTokenConfig, publicAppURL string, log logger.Logger) interfaces.ShareTokenService {
	validity := DefaultValidity
	if cfg != nil && cfg.ValidityDays > 0 {
		validity = time.Duration(cfg.ValidityDays) * 24 * time.Hour
	}
	return &shareTokenService{
		repositories: repositories,
		validity:     validity,
		publicURL:    strings.TrimRight(publicAppURL, "/"),
		log:          log,
	}
}

// CreateShareToken issues a token for the customer's most recent quote.
func (s *shareTokenService) CreateShareToken(ctx context.Context, customerID, customerName, createdBy string, permissions *models.SharePermissions) (*models.ShareToken, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ShareTokenService.CreateShareToken")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, customerID)

	if strings.TrimSpace(customerID) == "" {
		return nil, leadstack_errors.ErrCustomerNotFound
	}

	quoteID := DefaultQuoteID
	latest, err := s.repositories.QuoteRepository.GetLatestByCustomer(ctx, customerID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "latest quote")
	}
	if latest != nil {
		quoteID = latest.ID
	}

	perms := models.DefaultSharePermissions()
	if permissions != nil {
		perms = *permissions
	}
	if createdBy == "" {
		createdBy = utils.GetActorFromContext(ctx)
	}

	now := utils.Now()
	token := &models.ShareToken{
		Token:        uuid.NewString(),
		CustomerID:   customerID,
		CustomerName: customerName,
		QuoteID:      quoteID,
		CreatedBy:    createdBy,
		Status:       enum.ShareTokenActive,
		Permissions:  perms,
		ExpiresAt:    now.Add(s.validity),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repositories.ShareTokenRepository.Create(ctx, token); err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "store share token")
	}
	span.SetTag("quote.id", quoteID)
	s.log.Infof("share token created for customer %s (quote %s) by %s", customerID, quoteID, createdBy)
	return token, nil
}

// ValidateToken returns the token and counts the access, or nil when it is not usable.
func (s *shareTokenService) ValidateToken(ctx context.Context, token string) (*models.ShareToken, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ShareTokenService.ValidateToken")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if strings.TrimSpace(token) == "" {
		return nil, nil
	}
	shareToken, err := s.repositories.ShareTokenRepository.RecordAccess(ctx, token, utils.Now())
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	span.SetTag("valid", shareToken != nil)
	return shareToken, nil
}

// GetCustomerTokens lists the customer's currently valid tokens, newest first.
func (s *shareTokenService) GetCustomerTokens(ctx context.Context, customerID string) ([]*models.ShareToken, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ShareTokenService.GetCustomerTokens")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagEntity(span, customerID)

	tokens, err := s.repositories.ShareTokenRepository.ListByCustomer(ctx, customerID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	now := utils.Now()
	valid := make([]*models.ShareToken, 0, len(tokens))
	for _, t := range tokens {
		if t.IsValidAt(now) {
			valid = append(valid, t)
		}
	}
	return valid, nil
}

// Revoke keeps the row for audit; it is marked revoked with an expiry in the past.
func (s *shareTokenService) Revoke(ctx context.Context, token string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ShareTokenService.Revoke")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	if err := s.repositories.ShareTokenRepository.Revoke(ctx, token, utils.Now()); err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	s.log.Infof("share token revoked by %s", utils.GetActorFromContext(ctx))
	return nil
}

func (s *shareTokenService) CleanupExpired(ctx context.Context) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ShareTokenService.CleanupExpired")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	n, err := s.repositories.ShareTokenRepository.ExpireBefore(ctx, utils.Now())
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}
	if n > 0 {
		s.log.Infof("%d share tokens marked expired", n)
	}
	return n, nil
}

func (s *shareTokenService) GenerateShareURL(token string) string {
	return s.publicURL + "/share/" + token
}
