package domain

import "math"

const EarthRadiusMeters = 6371000.0

type GeoPoint struct {
	Latitude  float64
	Longitude float64
}

func NewGeoPoint(lat, lng float64) (GeoPoint, error) {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return GeoPoint{}, NewCodedError(ErrInvalidInput, CodeInvalidCoordinates, "latitude and longitude must be numeric")
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return GeoPoint{}, NewCodedError(ErrInvalidInput, CodeOutOfRangeCoordinates, "latitude must be within [-90,90] and longitude within [-180,180]")
	}
	return GeoPoint{Latitude: lat, Longitude: lng}, nil
}

// HaversineMeters returns the great-circle distance between two points.
func HaversineMeters(a, b GeoPoint) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// ClassifyDistance never blocks a check-out; it only grades it for supervisors.
func ClassifyDistance(distanceMeters, thresholdMeters float64) VerificationStatus {
	if distanceMeters < thresholdMeters {
		return VerificationValidated
	}
	return VerificationSuspect
}
