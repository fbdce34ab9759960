package weather

import (
	"math"

	"github.com/kailas-cloud/attire/internal/domain"
)

// Latitude band boundaries in degrees absolute latitude.
const (
	tropicBoundary    = 23.5
	temperateBoundary = 55.0
)

// seasonCutoffs are ascending temperature thresholds in Celsius separating
// Winter, Spring, Autumn and Summer within a latitude band. What counts as a
// warm day near the equator is a heat wave above the polar circle.
var (
	tropicalCutoffs  = [3]float64{22, 25, 28}
	temperateCutoffs = [3]float64{8, 16, 24}
	polarCutoffs     = [3]float64{0, 6, 11}
)

// CategorizeSeason maps a forecast to a catalog season using the mean daily
// midpoint temperature and a latitude-dependent cutoff table. A forecast with
// no daily data defaults to Autumn, the most wearable-neutral season.
func CategorizeSeason(f Forecast) domain.Season {
	days := len(f.DailyMax)
	if len(f.DailyMin) < days {
		days = len(f.DailyMin)
	}
	if days == 0 {
		return domain.SeasonAutumn
	}

	var sum float64
	for i := 0; i < days; i++ {
		sum += (f.DailyMax[i] + f.DailyMin[i]) / 2
	}
	return seasonFor(math.Abs(f.Latitude), sum/float64(days))
}

func seasonFor(absLat, avgTemp float64) domain.Season {
	var cutoffs [3]float64
	switch {
	case absLat < tropicBoundary:
		cutoffs = tropicalCutoffs
	case absLat < temperateBoundary:
		cutoffs = temperateCutoffs
	default:
		cutoffs = polarCutoffs
	}

	switch {
	case avgTemp < cutoffs[0]:
		return domain.SeasonWinter
	case avgTemp < cutoffs[1]:
		return domain.SeasonSpring
	case avgTemp < cutoffs[2]:
		return domain.SeasonAutumn
	default:
		return domain.SeasonSummer
	}
}
