package utils

import (
	"github.com/bradfitz/latlong"
	"github.com/umahmood/haversine"
)

const metersPerMile = 1609.344

/*
   DistanceMiles uses Haversine for a direct "as-the-crow-flies" distance.
*/
func DistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := haversine.Coord{Lat: lat1, Lon: lon1}
	p2 := haversine.Coord{Lat: lat2, Lon: lon2}
	mi, _ := haversine.Distance(p1, p2)
	return mi
}

// DistanceMeters is the geofence measure: haversine great-circle distance in
// meters between two (lat, lng) pairs in degrees.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	return DistanceMiles(lat1, lng1, lat2, lng2) * metersPerMile
}

// TimeZoneFor resolves the IANA zone name for a coordinate. Coordinates the
// lookup has no answer for (open water, poles) fall back to UTC.
func TimeZoneFor(lat, lng float64) string {
	if zone := latlong.LookupZoneName(lat, lng); zone != "" {
		return zone
	}
	return "UTC"
}
