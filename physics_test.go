/*
Copyright © 2020 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package vertprof

import (
	"math"
	"testing"
)

func different(a, b, tolerance float64) bool {
	if a == b {
		return false
	}
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func TestNormalGravity(t *testing.T) {
	const tolerance = 1e-10
	tests := []struct {
		lat, want float64
	}{
		{lat: 0, want: gEquator},
		{lat: 45, want: 9.806197769373473},
		{lat: 90, want: 9.8321849378},
		{lat: -90, want: 9.8321849378},
	}
	for _, test := range tests {
		if g := NormalGravityFromLatitude(test.lat); different(g, test.want, tolerance) {
			t.Errorf("latitude %g: want %g, got %g", test.lat, test.want, g)
		}
		if g := GravityFromLatitudeAndAltitude(test.lat, 0); different(g, test.want, tolerance) {
			t.Errorf("latitude %g, zero altitude: want %g, got %g", test.lat, test.want, g)
		}
	}
	if GravityFromLatitudeAndAltitude(45, 10000) >= NormalGravityFromLatitude(45) {
		t.Error("gravity should decrease with altitude")
	}
}

func TestCurvatureRadius(t *testing.T) {
	if r := LocalCurvatureRadiusAtSurfaceFromLatitude(0); different(r, semiMajorAxis, 1e-12) {
		t.Errorf("equator: want %g, got %g", semiMajorAxis, r)
	}
	if r := LocalCurvatureRadiusAtSurfaceFromLatitude(90); different(r, semiMinorAxis, 1e-12) {
		t.Errorf("pole: want %g, got %g", semiMinorAxis, r)
	}
}

func TestGPHAltitudeRoundTrip(t *testing.T) {
	for _, lat := range []float64{-60, 0, 33.3, 89} {
		for _, z := range []float64{10, 1000, 25000, 80000} {
			gph := GPHFromAltitudeAndLatitude(z, lat)
			if z2 := AltitudeFromGPHAndLatitude(gph, lat); different(z, z2, 1e-10) {
				t.Errorf("lat %g: altitude %g became %g", lat, z, z2)
			}
		}
	}
	if gph := GPHFromGeopotential(GeopotentialFromGPH(1234.5)); gph != 1234.5 {
		t.Errorf("geopotential round trip: got %g", gph)
	}
}

// standardAtmosphere returns altitude [m], pressure [Pa] and
// temperature [K] at 1 km intervals from the surface to 20 km.
func standardAtmosphere() (z, p, T []float64) {
	const (
		lapse = 0.0065
		mAir  = 0.0289644
	)
	for i := 0; i <= 20; i++ {
		zi := float64(i) * 1000
		var Ti, pi float64
		if zi <= 11000 {
			Ti = 288.15 - lapse*zi
			pi = 101325 * math.Pow(Ti/288.15, g0*mAir/(rMolar*lapse))
		} else {
			Ti = 216.65
			pi = 22632.06 * math.Exp(-g0*mAir*(zi-11000)/(rMolar*Ti))
		}
		z = append(z, zi)
		p = append(p, pi)
		T = append(T, Ti)
	}
	return
}

func constant(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestPressureGPHRoundTrip(t *testing.T) {
	_, p, T := standardAtmosphere()
	M := constant(len(p), 28.9644)
	for _, reversed := range []bool{false, true} {
		pp, TT := append([]float64{}, p...), append([]float64{}, T...)
		if reversed {
			reverse(pp)
			reverse(TT)
		}
		gph := make([]float64, len(pp))
		ProfileGPHFromPressure(pp, TT, M, 101325, 0, gph)
		p2 := make([]float64, len(pp))
		ProfilePressureFromGPH(gph, TT, M, 101325, 0, p2)
		for i := range pp {
			if different(pp[i], p2[i], 1e-6) {
				t.Errorf("reversed=%v level %d: pressure %g became %g", reversed, i, pp[i], p2[i])
			}
		}
		top, surface := gph[len(gph)-1], gph[0]
		if reversed {
			top, surface = surface, top
		}
		if top <= surface {
			t.Errorf("reversed=%v: geopotential height should increase upward", reversed)
		}
	}
}

func TestPressureAltitudeRoundTrip(t *testing.T) {
	z, p, T := standardAtmosphere()
	M := constant(len(p), 28.9644)
	alt := make([]float64, len(p))
	ProfileAltitudeFromPressure(p, T, M, 101325, 0, 45, alt)
	for i := range z {
		// z holds geopotential heights.
		want := AltitudeFromGPHAndLatitude(z[i], 45)
		if math.Abs(alt[i]-want) > 10 {
			t.Errorf("level %d: altitude want %g, got %g", i, want, alt[i])
		}
	}
	p2 := make([]float64, len(p))
	ProfilePressureFromAltitude(alt, T, M, 101325, 0, 45, p2)
	for i := range p {
		if different(p[i], p2[i], 1e-3) {
			t.Errorf("level %d: pressure %g became %g", i, p[i], p2[i])
		}
	}
}

func TestColumnMassDensity(t *testing.T) {
	bounds := []float64{101325, 80000, 80000, 50000, 50000, 0}
	alt := []float64{1000, 4000, 12000}
	got := ColumnMassDensityFromSurfacePressureAndProfile(101325, bounds, alt, 45)
	// The column mass is close to ps/g0 and larger since gravity
	// decreases with altitude.
	if want := 101325 / NormalGravityFromLatitude(45); got <= want || different(got, want, 1e-2) {
		t.Errorf("want about %g, got %g", want, got)
	}
}

func TestPaddedTopFirstProfile(t *testing.T) {
	_, p, T := standardAtmosphere()
	M := constant(len(p)+2, 28.9644)
	pp, TT := append([]float64{}, p...), append([]float64{}, T...)
	reverse(pp)
	reverse(TT)
	want := make([]float64, len(pp))
	ProfileGPHFromPressure(pp, TT, M[:len(pp)], 101325, 0, want)

	pp = append(pp, math.NaN(), math.NaN())
	TT = append(TT, math.NaN(), math.NaN())
	gph := make([]float64, len(pp))
	ProfileGPHFromPressure(pp, TT, M, 101325, 0, gph)
	for i := range want {
		if different(gph[i], want[i], 1e-12) {
			t.Errorf("level %d: want %g, got %g", i, want[i], gph[i])
		}
	}
	for i := len(want); i < len(gph); i++ {
		if !math.IsNaN(gph[i]) {
			t.Errorf("padding level %d: want NaN, got %g", i, gph[i])
		}
	}
	if gph[0] <= gph[len(want)-1] {
		t.Errorf("top level %g should be above surface level %g", gph[0], gph[len(want)-1])
	}

	p2 := make([]float64, len(pp))
	ProfilePressureFromGPH(gph, TT, M, 101325, 0, p2)
	for i := range want {
		if different(pp[i], p2[i], 1e-6) {
			t.Errorf("level %d: pressure %g became %g", i, pp[i], p2[i])
		}
	}
	if !math.IsNaN(p2[len(p2)-1]) {
		t.Errorf("padding level: want NaN, got %g", p2[len(p2)-1])
	}
}
