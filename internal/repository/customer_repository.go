package repository

import (
	"context"
	"errors"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/relocrm/leadstack/interfaces"
	"github.com/relocrm/leadstack/internal/models"
	"github.com/relocrm/leadstack/internal/tracing"
)

type customerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) interfaces.CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(ctx context.Context, customer *models.Customer) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "customerRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if err := r.db.WithContext(ctx).Create(customer).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	tracing.TagEntity(span, customer.ID)
	return nil
}

// Overwrite replaces every column of an existing customer, inserting it when absent
func (r *customerRepository) Overwrite(ctx context.Context, customer *models.Customer) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "customerRepository.Overwrite")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, customer.ID)

	if customer.ID == "" {
		return ErrInvalidInput
	}
	if err := r.db.WithContext(ctx).Save(customer).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *customerRepository) GetByID(ctx context.Context, id string) (*models.Customer, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "customerRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagEntity(span, id)

	var customer models.Customer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) GetBySourceEmailID(ctx context.Context, emailID string) (*models.Customer, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "customerRepository.GetBySourceEmailID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.LogKV("emailId", emailID)

	if emailID == "" {
		return nil, nil
	}

	var customer models.Customer
	if err := r.db.WithContext(ctx).Where("source_email_id = ?", emailID).Order("created_at ASC").First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &customer, nil
}

// FindByEmailOrPhone returns the first customer matching either non-empty contact field
func (r *customerRepository) FindByEmailOrPhone(ctx context.Context, email, phone string) (*models.Customer, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "customerRepository.FindByEmailOrPhone")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if email == "" && phone == "" {
		return nil, nil
	}

	query := r.db.WithContext(ctx).Model(&models.Customer{})
	switch {
	case email != "" && phone != "":
		query = query.Where("LOWER(email) = LOWER(?) OR phone = ?", email, phone)
	case email != "":
		query = query.Where("LOWER(email) = LOWER(?)", email)
	default:
		query = query.Where("phone = ?", phone)
	}

	var customer models.Customer
	if err := query.First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) List(ctx context.Context, limit, offset int) ([]*models.Customer, int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "customerRepository.List")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Customer{}).Count(&count).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}

	var customers []*models.Customer
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&customers).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}
	return customers, count, nil
}

func (r *customerRepository) ListIDs(ctx context.Context) ([]string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "customerRepository.ListIDs")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var ids []string
	if err := r.db.WithContext(ctx).Model(&models.Customer{}).Pluck("id", &ids).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return ids, nil
}
