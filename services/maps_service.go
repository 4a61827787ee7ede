package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"rescuereach/models"
	"rescuereach/utils"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"googlemaps.github.io/maps"
)

// placeCacheTTL keeps nearby-service lookups warm. Hospitals and police
// stations do not move; an hour is conservative.
const placeCacheTTL = time.Hour

// placeTypeFor maps an emergency category to the Places type to search.
var placeTypeFor = map[string]maps.PlaceType{
	"POLICE":  maps.PlaceTypePolice,
	"FIRE":    maps.PlaceTypeFireStation,
	"MEDICAL": maps.PlaceTypeHospital,
}

// MapsService wraps the Google Maps client for reverse geocoding and
// nearby-service search, with a Redis cache in front of Places.
type MapsService struct {
	client *maps.Client
	redis  *redis.Client
}

func NewMapsService(apiKey string, redisClient *redis.Client) (*MapsService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}
	return &MapsService{client: client, redis: redisClient}, nil
}

// ReverseGeocode resolves coordinates to a postal address. Callers treat a
// failure as "address unknown", never as a reason to abort.
func (ms *MapsService) ReverseGeocode(ctx context.Context, lat, lng float64) (*models.ResolvedAddress, error) {
	req := &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: lat, Lng: lng},
	}

	results, err := ms.client.ReverseGeocode(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("reverse geocoding failed: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no address for %.5f,%.5f", lat, lng)
	}

	resolved := &models.ResolvedAddress{
		Address: results[0].FormattedAddress,
	}
	for _, component := range results[0].AddressComponents {
		for _, t := range component.Types {
			switch t {
			case "locality":
				resolved.City = component.LongName
			case "administrative_area_level_1":
				resolved.State = component.LongName
			case "country":
				resolved.Country = component.LongName
			}
		}
	}
	return resolved, nil
}

// FindNearby searches Places for emergency services of one category around a
// point. Results come back sorted by distance and capped at limit.
func (ms *MapsService) FindNearby(ctx context.Context, category string, lat, lng float64, radiusMeters, limit int) ([]models.EmergencyService, error) {
	cacheKey := fmt.Sprintf("sos:places:%s:%.3f:%.3f:%d", category, lat, lng, radiusMeters)
	if cached, err := ms.redis.Get(ctx, cacheKey).Bytes(); err == nil {
		var services []models.EmergencyService
		if err := json.Unmarshal(cached, &services); err == nil {
			return capServices(services, limit), nil
		}
	}

	placeType, ok := placeTypeFor[category]
	if !ok {
		return nil, fmt.Errorf("no place type for category %q", category)
	}

	req := &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: lat, Lng: lng},
		Radius:   uint(radiusMeters),
		Type:     placeType,
	}

	resp, err := ms.client.NearbySearch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("nearby search failed: %w", err)
	}

	services := make([]models.EmergencyService, 0, len(resp.Results))
	for _, result := range resp.Results {
		service := models.EmergencyService{
			Name:    result.Name,
			Address: result.Vicinity,
			DistanceKM: utils.CalculateDistance(
				lat, lng,
				result.Geometry.Location.Lat, result.Geometry.Location.Lng,
			),
		}
		// Nearby search omits phone numbers; fetch them per place.
		if phone := ms.lookupPhone(ctx, result.PlaceID); phone != "" {
			service.Phone = phone
		}
		services = append(services, service)
	}

	sortServicesByDistance(services)

	if payload, err := json.Marshal(services); err == nil {
		if err := ms.redis.Set(ctx, cacheKey, payload, placeCacheTTL).Err(); err != nil {
			logrus.Debugf("Places cache write failed: %v", err)
		}
	}

	return capServices(services, limit), nil
}

func (ms *MapsService) lookupPhone(ctx context.Context, placeID string) string {
	req := &maps.PlaceDetailsRequest{
		PlaceID: placeID,
		Fields:  []maps.PlaceDetailsFieldMask{maps.PlaceDetailsFieldMaskFormattedPhoneNumber},
	}
	details, err := ms.client.PlaceDetails(ctx, req)
	if err != nil {
		logrus.Debugf("Place details lookup failed for %s: %v", placeID, err)
		return ""
	}
	return details.FormattedPhoneNumber
}

func sortServicesByDistance(services []models.EmergencyService) {
	sort.Slice(services, func(i, j int) bool {
		return services[i].DistanceKM < services[j].DistanceKM
	})
}

func capServices(services []models.EmergencyService, limit int) []models.EmergencyService {
	if limit > 0 && len(services) > limit {
		return services[:limit]
	}
	return services
}
