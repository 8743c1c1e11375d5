package coordinate

import "testing"

func TestDistanceZero(t *testing.T) {
	if d := Distance(0, 0, 0, 0); d != 0 {
		t.Fatalf("Distance(0,0,0,0) = %v, want 0", d)
	}
}

func TestDistanceOneDegreeLatitude(t *testing.T) {
	d := Distance(0, 0, 0, 1)
	if !near(d, 111194.93, 0.5) {
		t.Fatalf("Distance over 1 degree of latitude = %.2f, want ~111195", d)
	}
}

func TestDistanceBeijingShanghai(t *testing.T) {
	d := Distance(116.3974, 39.9093, 121.4737, 31.2304)
	if !near(d, 1068202.2, 1.0) {
		t.Fatalf("Distance(beijing, shanghai) = %.1f, want ~1068202", d)
	}
	if back := Distance(121.4737, 31.2304, 116.3974, 39.9093); !near(back, d, 1e-6) {
		t.Fatalf("Distance is not symmetric: %v vs %v", d, back)
	}
}

func TestPathLength(t *testing.T) {
	pts := []GeoPoint{{Lng: 0, Lat: 0}, {Lng: 0, Lat: 1}, {Lng: 0, Lat: 2}}
	if got := PathLength(pts); !near(got, 2*111194.93, 1.0) {
		t.Fatalf("PathLength = %.2f, want ~222390", got)
	}
	if got := PathLength(pts[:1]); got != 0 {
		t.Fatalf("PathLength(single) = %v, want 0", got)
	}
}
