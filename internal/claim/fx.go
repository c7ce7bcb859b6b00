package claim

import (
	"github.com/Sourasish2503/churn-buster-v9/internal/claim/service"
	"go.uber.org/fx"
)

var Module = fx.Module("claim.service",
	fx.Provide(service.NewService),
)
