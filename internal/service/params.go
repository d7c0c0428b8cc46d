package service

import (
	"github.com/yourusername/machinery-pricer/internal/config"
	"github.com/yourusername/machinery-pricer/internal/models"
	"github.com/yourusername/machinery-pricer/internal/pricing"
)

// fetchHeadroom multiplies the estimator caps when fetching, so records the
// estimator later drops still leave enough usable samples.
const fetchHeadroom = 2

// UseCaseSettings are the per use case query defaults
type UseCaseSettings struct {
	YearTolerance     int
	HoursTolerance    int
	HistoricalSources []models.HistoricalSource
}

// ParamsFromConfig converts estimator configuration into pricing parameters
func ParamsFromConfig(cfg config.EstimatorConfig) pricing.Params {
	params := pricing.DefaultParams()
	params.HistoricalCap = cfg.HistoricalCap
	params.LiveCap = cfg.LiveCap
	params.HighConfidenceMin = cfg.HighConfidenceMin
	params.LiveMediumMin = cfg.LiveMediumMin
	params.UnknownRecency = pricing.RecencyPolicy(cfg.UnknownRecency)

	params.Ratios = make(map[models.UseCase]pricing.BlendRatio, len(cfg.UseCases))
	for name, uc := range cfg.UseCases {
		params.Ratios[models.UseCase(name)] = pricing.BlendRatio{
			Historical: uc.HistoricalWeight,
			Live:       uc.LiveWeight,
		}
	}
	return params
}

// SettingsFromConfig extracts tolerances and historical sources per use case
func SettingsFromConfig(cfg config.EstimatorConfig) map[models.UseCase]UseCaseSettings {
	settings := make(map[models.UseCase]UseCaseSettings, len(cfg.UseCases))
	for name, uc := range cfg.UseCases {
		sources := make([]models.HistoricalSource, 0, len(uc.HistoricalSources))
		for _, s := range uc.HistoricalSources {
			sources = append(sources, models.HistoricalSource(s))
		}
		settings[models.UseCase(name)] = UseCaseSettings{
			YearTolerance:     uc.YearTolerance,
			HoursTolerance:    uc.HoursTolerance,
			HistoricalSources: sources,
		}
	}
	return settings
}
