package services

import (
	"context"

	"rescuereach/config"
	"rescuereach/interfaces"
	"rescuereach/models"

	"github.com/sirupsen/logrus"
)

// ResolverService finds the nearest emergency services for a report. The
// result is never empty: when the index returns nothing, errs, or the
// timeout expires, the list is exactly one synthetic entry carrying the
// regional toll-free number.
type ResolverService struct {
	places  interfaces.PlacesIndex
	numbers *config.EmergencyNumbers
	cfg     *config.Config
}

func NewResolverService(places interfaces.PlacesIndex, numbers *config.EmergencyNumbers, cfg *config.Config) *ResolverService {
	return &ResolverService{
		places:  places,
		numbers: numbers,
		cfg:     cfg,
	}
}

// Resolve looks up nearby services for the emergency type around a location.
// A nil location skips the index entirely and returns the fallback.
func (rs *ResolverService) Resolve(ctx context.Context, emergencyType models.EmergencyType, location *models.LocationFix, region string) []models.EmergencyService {
	if location == nil {
		return []models.EmergencyService{rs.Fallback(emergencyType, region)}
	}

	pctx, cancel := context.WithTimeout(ctx, rs.cfg.PlacesTimeout)
	defer cancel()

	services, err := rs.places.FindNearby(
		pctx,
		string(emergencyType),
		location.Latitude, location.Longitude,
		rs.cfg.NearbyRadiusMeters, rs.cfg.MaxNearbyServices,
	)
	if err != nil {
		logrus.Warnf("Nearby-service resolution failed for %s: %v", emergencyType, err)
		return []models.EmergencyService{rs.Fallback(emergencyType, region)}
	}
	if len(services) == 0 {
		return []models.EmergencyService{rs.Fallback(emergencyType, region)}
	}

	if len(services) > rs.cfg.MaxNearbyServices {
		services = services[:rs.cfg.MaxNearbyServices]
	}

	// The toll-free number rides along even when real results exist, so
	// the user always has a number that answers.
	for i := range services {
		if services[i].TollFree == "" {
			services[i].TollFree = rs.numbers.TollFreeFor(string(emergencyType), region)
		}
	}
	return services
}

// Fallback builds the synthetic entry used when resolution yields nothing.
func (rs *ResolverService) Fallback(emergencyType models.EmergencyType, region string) models.EmergencyService {
	return models.EmergencyService{
		Name:       "Emergency Services",
		TollFree:   rs.numbers.TollFreeFor(string(emergencyType), region),
		IsFallback: true,
	}
}
