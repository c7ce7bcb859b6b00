package repository

import (
	"context"
	"strings"

	"github.com/Sourasish2503/churn-buster-v9/internal/audit/domain"
	"gorm.io/gorm"
)

const defaultListLimit = 50

type auditRepository struct{}

// Provide returns the gorm-backed audit repository.
func Provide() domain.Repository {
	return &auditRepository{}
}

func (auditRepository) Insert(ctx context.Context, db *gorm.DB, entry *domain.AuditLog) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (auditRepository) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.AuditLog, error) {
	var (
		conds []string
		args  []interface{}
	)

	if companyID := strings.TrimSpace(filter.CompanyID); companyID != "" {
		conds = append(conds, "company_id = ?")
		args = append(args, companyID)
	}
	if filter.Action != "" {
		conds = append(conds, "action = ?")
		args = append(args, filter.Action)
	}
	if filter.ActorType != "" {
		conds = append(conds, "actor_type = ?")
		args = append(args, filter.ActorType)
	}
	if filter.StartAt != nil {
		conds = append(conds, "created_at >= ?")
		args = append(args, *filter.StartAt)
	}
	if filter.EndAt != nil {
		conds = append(conds, "created_at <= ?")
		args = append(args, *filter.EndAt)
	}
	if filter.Cursor != nil {
		conds = append(conds, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.CreatedAt, filter.Cursor.ID)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = defaultListLimit
	}

	query := `SELECT id, company_id, actor_type, actor_id, action, target_type, target_id, metadata, created_at
	 FROM audit_logs`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	var entries []*domain.AuditLog
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (auditRepository) CountByAction(ctx context.Context, db *gorm.DB, companyID, action string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM audit_logs WHERE company_id = ? AND action = ?`,
		companyID,
		action,
	).Scan(&count).Error
	return count, err
}
