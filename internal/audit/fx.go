package audit

import (
	"github.com/Sourasish2503/churn-buster-v9/internal/audit/repository"
	"github.com/Sourasish2503/churn-buster-v9/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
