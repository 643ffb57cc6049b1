package scheduler

import "go.uber.org/fx"

var Module = fx.Module("scheduler",
	fx.Provide(
		NewService,
		NewScheduler,
	),
	fx.Invoke(StartScheduler),
)
