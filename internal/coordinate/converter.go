// Package coordinate converts points between the WGS-84, GCJ-02 and BD-09
// reference systems used by global GPS receivers and Chinese map providers.
//
// Every function is a pure computation over its arguments. Nothing here
// returns an error: malformed input (NaN, Inf, out-of-range degrees) simply
// propagates through the arithmetic, so callers that need strict validation
// must check their inputs first.
package coordinate

import (
	"math"

	"github.com/paulmach/orb"
)

// Krasovsky 1940 ellipsoid parameters used by the GCJ-02 transform.
const (
	semiMajorAxis        = 6378245.0
	eccentricitySquared  = 0.00669342162296594323
	bdOffsetLng          = 0.0065
	bdOffsetLat          = 0.006
	bdRadiusPerturbation = 0.00002
	bdAnglePerturbation  = 0.000003
	bdFactor             = math.Pi * 3000.0 / 180.0
)

// GeoPoint is a longitude/latitude pair in decimal degrees.
// The reference system is tracked by the caller, not by the point.
type GeoPoint struct {
	Lng float64
	Lat float64
}

// Orb returns the point as an orb.Point ([lng, lat]) for GeoJSON output.
func (p GeoPoint) Orb() orb.Point { return orb.Point{p.Lng, p.Lat} }

// OutOfChina reports whether the point falls outside the envelope in which
// the GCJ-02 offset is applied.
func OutOfChina(lng, lat float64) bool {
	return (lng < 72.004 || lng > 137.8347) || (lat < 0.8293 || lat > 55.8271)
}

// WGS84ToGCJ02 applies the restricted area transform.
// Points outside China are returned unchanged.
func WGS84ToGCJ02(lng, lat float64) GeoPoint {
	if OutOfChina(lng, lat) {
		return GeoPoint{Lng: lng, Lat: lat}
	}

	dLng, dLat := gcjDelta(lng, lat)
	return GeoPoint{Lng: lng + dLng, Lat: lat + dLat}
}

// GCJ02ToWGS84 approximately inverts WGS84ToGCJ02 by evaluating the forward
// delta at the GCJ-02 point and subtracting it. The residual is a few meters
// at most inside China.
func GCJ02ToWGS84(lng, lat float64) GeoPoint {
	if OutOfChina(lng, lat) {
		return GeoPoint{Lng: lng, Lat: lat}
	}

	dLng, dLat := gcjDelta(lng, lat)
	return GeoPoint{Lng: lng - dLng, Lat: lat - dLat}
}

// gcjDelta returns the GCJ-02 offset in degrees for a point, evaluated
// relative to the 105E/35N origin and scaled by the ellipsoid's radii of
// curvature at that latitude.
func gcjDelta(lng, lat float64) (dLng, dLat float64) {
	dLat = transformLat(lng-105.0, lat-35.0)
	dLng = transformLng(lng-105.0, lat-35.0)

	radLat := lat / 180.0 * math.Pi
	magic := math.Sin(radLat)
	magic = 1 - eccentricitySquared*magic*magic
	sqrtMagic := math.Sqrt(magic)

	dLat = (dLat * 180.0) / ((semiMajorAxis * (1 - eccentricitySquared)) / (magic * sqrtMagic) * math.Pi)
	dLng = (dLng * 180.0) / (semiMajorAxis / sqrtMagic * math.Cos(radLat) * math.Pi)
	return dLng, dLat
}

func transformLat(lng, lat float64) float64 {
	ret := -100.0 + 2.0*lng + 3.0*lat + 0.2*lat*lat + 0.1*lng*lat + 0.2*math.Sqrt(math.Abs(lng))
	ret += (20.0*math.Sin(6.0*lng*math.Pi) + 20.0*math.Sin(2.0*lng*math.Pi)) * 2.0 / 3.0
	ret += (20.0*math.Sin(lat*math.Pi) + 40.0*math.Sin(lat/3.0*math.Pi)) * 2.0 / 3.0
	ret += (160.0*math.Sin(lat/12.0*math.Pi) + 320*math.Sin(lat*math.Pi/30.0)) * 2.0 / 3.0
	return ret
}

func transformLng(lng, lat float64) float64 {
	ret := 300.0 + lng + 2.0*lat + 0.1*lng*lng + 0.1*lng*lat + 0.1*math.Sqrt(math.Abs(lng))
	ret += (20.0*math.Sin(6.0*lng*math.Pi) + 20.0*math.Sin(2.0*lng*math.Pi)) * 2.0 / 3.0
	ret += (20.0*math.Sin(lng*math.Pi) + 40.0*math.Sin(lng/3.0*math.Pi)) * 2.0 / 3.0
	ret += (150.0*math.Sin(lng/12.0*math.Pi) + 300.0*math.Sin(lng/30.0*math.Pi)) * 2.0 / 3.0
	return ret
}

// BD09ToGCJ02 removes Baidu's polar perturbation and fixed offset.
func BD09ToGCJ02(lng, lat float64) GeoPoint {
	x := lng - bdOffsetLng
	y := lat - bdOffsetLat
	z := math.Sqrt(x*x+y*y) - bdRadiusPerturbation*math.Sin(y*bdFactor)
	theta := math.Atan2(y, x) - bdAnglePerturbation*math.Cos(x*bdFactor)
	return GeoPoint{Lng: z * math.Cos(theta), Lat: z * math.Sin(theta)}
}

// GCJ02ToBD09 applies Baidu's polar perturbation and fixed offset.
func GCJ02ToBD09(lng, lat float64) GeoPoint {
	z := math.Sqrt(lng*lng+lat*lat) + bdRadiusPerturbation*math.Sin(lat*bdFactor)
	theta := math.Atan2(lat, lng) + bdAnglePerturbation*math.Cos(lng*bdFactor)
	return GeoPoint{
		Lng: z*math.Cos(theta) + bdOffsetLng,
		Lat: z*math.Sin(theta) + bdOffsetLat,
	}
}
