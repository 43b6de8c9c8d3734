//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
)

// InitializeApp builds the application graph via Wire.
// Caller must run the returned cleanup when done.
func InitializeApp(path ConfigPath) (*App, func(), error) {
	wire.Build(
		provideConfig,
		provideLogger,
		provideStore,
		provideCalendar,
		provideClock,
		provideDetector,
		provideUniverse,
		provideCoverage,
		provideNetwork,
		provideSource,
		provideBackfill,
		provideFiller,
		provideRunner,
		provideExporter,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}
