package service

import (
	"context"
	"strings"
	"time"

	"github.com/Sourasish2503/churn-buster-v9/internal/cache"
	"github.com/Sourasish2503/churn-buster-v9/internal/clock"
	"github.com/Sourasish2503/churn-buster-v9/internal/company/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// discountTTL bounds staleness of the per-company discount cache. A
// changed setting shows up on the next claim within this window.
const discountTTL = time.Minute

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

type companyService struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	discounts cache.Cache[string, int64]
}

func NewService(p Params) domain.Service {
	return &companyService{
		db:        p.DB,
		log:       p.Log.Named("company.service"),
		clock:     p.Clock,
		discounts: cache.NewTTLCache[string, int64](),
	}
}

func (s *companyService) EnsureActive(ctx context.Context, companyID, membershipID string) (bool, error) {
	companyID = strings.TrimSpace(companyID)
	membershipID = strings.TrimSpace(membershipID)
	if companyID == "" || membershipID == "" {
		return false, domain.ErrInvalidCompany
	}

	res := s.db.WithContext(ctx).Exec(
		`INSERT INTO companies (id, membership_id, status, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		companyID,
		membershipID,
		domain.StatusActive,
		s.clock.Now(),
	)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		s.log.Info("company installed", zap.String("company_id", companyID))
		return true, nil
	}

	// Already known: a re-install or a redelivered lifecycle event.
	// Reactivate and refresh the owning membership either way.
	err := s.db.WithContext(ctx).Exec(
		`UPDATE companies
		 SET status = ?, membership_id = ?, deactivated_at = NULL
		 WHERE id = ?`,
		domain.StatusActive,
		membershipID,
		companyID,
	).Error
	return false, err
}

func (s *companyService) Deactivate(ctx context.Context, companyID string) error {
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return domain.ErrInvalidCompany
	}

	res := s.db.WithContext(ctx).Exec(
		`UPDATE companies
		 SET status = ?, deactivated_at = ?
		 WHERE id = ? AND status = ?`,
		domain.StatusInactive,
		s.clock.Now(),
		companyID,
		domain.StatusActive,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		s.log.Info("company deactivated", zap.String("company_id", companyID))
	}
	return nil
}

func (s *companyService) Get(ctx context.Context, companyID string) (*domain.Company, error) {
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return nil, domain.ErrInvalidCompany
	}

	var company domain.Company
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, membership_id, status, created_at, deactivated_at
		 FROM companies
		 WHERE id = ?`,
		companyID,
	).Scan(&company).Error
	if err != nil {
		return nil, err
	}
	if company.ID == "" {
		return nil, domain.ErrCompanyNotFound
	}
	return &company, nil
}

func (s *companyService) DiscountPercent(ctx context.Context, companyID string) (int64, error) {
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return 0, domain.ErrInvalidCompany
	}

	if percent, ok := s.discounts.Get(companyID); ok {
		return percent, nil
	}

	var cfg domain.Config
	err := s.db.WithContext(ctx).Raw(
		`SELECT company_id, discount_percent, updated_by, updated_at
		 FROM company_configs
		 WHERE company_id = ?`,
		companyID,
	).Scan(&cfg).Error
	if err != nil {
		return 0, err
	}

	percent := domain.DefaultDiscountPercent
	if cfg.CompanyID != "" {
		percent = cfg.DiscountPercent
	}
	s.discounts.Set(companyID, percent, discountTTL)
	return percent, nil
}

func (s *companyService) SetDiscountPercent(ctx context.Context, companyID string, percent int64, updatedBy string) error {
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return domain.ErrInvalidCompany
	}
	if percent < 1 || percent > 100 {
		return domain.ErrInvalidDiscount
	}

	var by *string
	if updatedBy = strings.TrimSpace(updatedBy); updatedBy != "" {
		by = &updatedBy
	}

	err := s.db.WithContext(ctx).Exec(
		`INSERT INTO company_configs (company_id, discount_percent, updated_by, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (company_id) DO UPDATE
		 SET discount_percent = excluded.discount_percent,
		     updated_by = excluded.updated_by,
		     updated_at = excluded.updated_at`,
		companyID,
		percent,
		by,
		s.clock.Now(),
	).Error
	if err != nil {
		return err
	}

	s.discounts.Set(companyID, percent, discountTTL)
	return nil
}
