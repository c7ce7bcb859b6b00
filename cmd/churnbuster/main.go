package main

import (
	"github.com/Sourasish2503/churn-buster-v9/internal/audit"
	"github.com/Sourasish2503/churn-buster-v9/internal/claim"
	"github.com/Sourasish2503/churn-buster-v9/internal/clock"
	"github.com/Sourasish2503/churn-buster-v9/internal/company"
	"github.com/Sourasish2503/churn-buster-v9/internal/config"
	"github.com/Sourasish2503/churn-buster-v9/internal/events"
	"github.com/Sourasish2503/churn-buster-v9/internal/idempotency"
	"github.com/Sourasish2503/churn-buster-v9/internal/ledger"
	"github.com/Sourasish2503/churn-buster-v9/internal/migration"
	"github.com/Sourasish2503/churn-buster-v9/internal/observability"
	"github.com/Sourasish2503/churn-buster-v9/internal/platform"
	"github.com/Sourasish2503/churn-buster-v9/internal/seed"
	"github.com/Sourasish2503/churn-buster-v9/internal/server"
	"github.com/Sourasish2503/churn-buster-v9/internal/webhook"
	"github.com/Sourasish2503/churn-buster-v9/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		db.Module,
		clock.Module,
		fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
			if err := migration.RunMigrations(conn); err != nil {
				return err
			}
			if !cfg.IsProduction() {
				return seed.EnsureDevCompany(conn)
			}
			return nil
		}),
		platform.Module,
		events.Module,
		ledger.Module,
		idempotency.Module,
		company.Module,
		audit.Module,
		claim.Module,
		webhook.Module,
		server.Module,
	)
	app.Run()
}
