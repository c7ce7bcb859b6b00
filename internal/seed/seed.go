package seed

import (
	"context"
	"errors"

	companydomain "github.com/Sourasish2503/churn-buster-v9/internal/company/domain"
	"gorm.io/gorm"
)

const (
	devCompanyID    = "biz_dev"
	devMembershipID = "mem_dev"
	devCredits      = 25
)

// EnsureDevCompany seeds a starter company with a credit balance for
// local development, where no webhook will ever install one.
func EnsureDevCompany(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(
			`INSERT INTO companies (id, membership_id, status, created_at)
			 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
			 ON CONFLICT (id) DO NOTHING`,
			devCompanyID,
			devMembershipID,
			companydomain.StatusActive,
		)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		return tx.Exec(
			`INSERT INTO credit_balances (company_id, balance, last_updated)
			 VALUES (?, ?, CURRENT_TIMESTAMP)
			 ON CONFLICT (company_id) DO UPDATE
			 SET balance = credit_balances.balance + excluded.balance,
			     last_updated = excluded.last_updated`,
			devCompanyID,
			devCredits,
		).Error
	})
}
