package ledger

import (
	"github.com/Sourasish2503/churn-buster-v9/internal/ledger/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ledger.service",
	fx.Provide(service.NewService),
)
