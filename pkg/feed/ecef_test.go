package feed

import (
	"math"
	"testing"
)

// latLonAltToECEF is the forward WGS84 transform, reimplemented here
// (independent of production code) purely to generate round-trip inputs
// for ecefToLatLonAlt.
func latLonAltToECEF(lat, lon, alt float64) (x, y, z float64) {
	a := wgs84SemiMajorAxis
	f := wgs84Flattening
	e2 := 2*f - f*f
	sinLat, cosLat := math.Sin(lat), math.Cos(lat)
	n := a / math.Sqrt(1-e2*sinLat*sinLat)

	x = (n + alt) * cosLat * math.Cos(lon)
	y = (n + alt) * cosLat * math.Sin(lon)
	z = (n*(1-e2) + alt) * sinLat
	return x, y, z
}

func TestECEFRoundTrip(t *testing.T) {
	cases := []struct {
		name           string
		lat, lon, alt  float64
	}{
		{"equator/prime-meridian", 0, 0, 1000},
		{"mid-latitude", 37.0 * math.Pi / 180, -122.0 * math.Pi / 180, 3000},
		{"southern hemisphere", -33.9 * math.Pi / 180, 151.2 * math.Pi / 180, 500},
		{"high altitude", 45 * math.Pi / 180, 10 * math.Pi / 180, 12000},
	}
	for _, c := range cases {
		x, y, z := latLonAltToECEF(c.lat, c.lon, c.alt)
		lat, lon, alt := ecefToLatLonAlt(x, y, z)
		if diff := math.Abs(lat - c.lat); diff > 1e-9 {
			t.Errorf("%s: lat round trip off by %v rad", c.name, diff)
		}
		if diff := math.Abs(lon - c.lon); diff > 1e-9 {
			t.Errorf("%s: lon round trip off by %v rad", c.name, diff)
		}
		if diff := math.Abs(alt - c.alt); diff > 1e-3 {
			t.Errorf("%s: alt round trip off by %v m", c.name, diff)
		}
	}
}

func TestECEFVelocityToENUAtEquatorPrimeMeridian(t *testing.T) {
	// At lat=0, lon=0, local East is -Y(ecef)... actually East is ECEF +Y,
	// North is ECEF +Z, Up is ECEF +X, by the standard ENU rotation.
	e, n, u := ecefVelocityToENU(0, 0, 1, 2, 3)
	if math.Abs(e-2) > 1e-9 {
		t.Errorf("east component: got %v, want 2", e)
	}
	if math.Abs(n-3) > 1e-9 {
		t.Errorf("north component: got %v, want 3", n)
	}
	if math.Abs(u-1) > 1e-9 {
		t.Errorf("up component: got %v, want 1", u)
	}
}
