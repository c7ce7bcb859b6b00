package service

import (
	"context"

	"github.com/Sourasish2503/churn-buster-v9/internal/audit/domain"
	"github.com/Sourasish2503/churn-buster-v9/internal/clock"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Repo  domain.Repository
	GenID *snowflake.Node
	Clock clock.Clock
}

type auditService struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
	clock clock.Clock
}

func NewService(p Params) domain.Service {
	return &auditService{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		repo:  p.Repo,
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *auditService) Record(ctx context.Context, entry *domain.AuditLog) error {
	if entry.ID == 0 {
		entry.ID = s.genID.Generate()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.clock.Now()
	}
	if entry.ActorType == "" {
		entry.ActorType = string(domain.ActorTypeSystem)
	}
	if entry.Metadata == nil {
		entry.Metadata = datatypes.JSONMap{}
	}
	if err := s.repo.Insert(ctx, s.db, entry); err != nil {
		s.log.Error("record audit entry",
			zap.String("action", entry.Action),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *auditService) List(ctx context.Context, filter domain.ListFilter) ([]*domain.AuditLog, error) {
	return s.repo.List(ctx, s.db, filter)
}

func (s *auditService) CountByAction(ctx context.Context, companyID, action string) (int64, error) {
	return s.repo.CountByAction(ctx, s.db, companyID, action)
}
