package company

import (
	"github.com/Sourasish2503/churn-buster-v9/internal/company/service"
	"go.uber.org/fx"
)

var Module = fx.Module("company.service",
	fx.Provide(service.NewService),
)
