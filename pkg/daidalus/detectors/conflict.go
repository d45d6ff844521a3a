package detectors

import (
	"math"

	"github.com/picogrid/daidalus-go/pkg/daidalus/geom"
)

// quadraticRoots solves a*t^2 + b*t + c = 0, returning the two real roots
// in increasing order. ok is false if there are no real roots or a==0 and
// b==0 (degenerate — handled by the caller's NumericDegeneracy branch per
// spec.md §7).
func quadraticRoots(a, b, c float64) (t1, t2 float64, ok bool) {
	if math.Abs(a) < 1e-12 {
		if math.Abs(b) < 1e-12 {
			return 0, 0, false
		}
		r := -c / b
		return r, r, true
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, 0, false
	}
	sq := math.Sqrt(disc)
	r1 := (-b - sq) / (2 * a)
	r2 := (-b + sq) / (2 * a)
	if r1 > r2 {
		r1, r2 = r2, r1
	}
	return r1, r2, true
}

// horizontalPenetration returns the time interval (within all reals) over
// which the horizontal separation is strictly less than D, given relative
// horizontal position (sx,sy) and velocity (vx,vy) at t=0.
func horizontalPenetration(sx, sy, vx, vy, D float64) (ivset intervalReal) {
	a := vx*vx + vy*vy
	b := 2 * (sx*vx + sy*vy)
	c := sx*sx + sy*sy - D*D

	if a < 1e-12 {
		// No horizontal relative motion: either always inside or never.
		if c < 0 {
			return intervalReal{math.Inf(-1), math.Inf(1), true}
		}
		return intervalReal{}
	}
	t1, t2, ok := quadraticRoots(a, b, c)
	if !ok {
		return intervalReal{}
	}
	return intervalReal{t1, t2, true}
}

// verticalPenetration returns the time interval over which vertical
// separation is strictly less than H.
func verticalPenetration(sz, vz, H float64) intervalReal {
	if math.Abs(vz) < 1e-12 {
		if math.Abs(sz) < H {
			return intervalReal{math.Inf(-1), math.Inf(1), true}
		}
		return intervalReal{}
	}
	// |sz + t*vz| < H  <=>  -H < sz+t*vz < H
	t1 := (-H - sz) / vz
	t2 := (H - sz) / vz
	if t1 > t2 {
		t1, t2 = t2, t1
	}
	return intervalReal{t1, t2, true}
}

type intervalReal struct {
	lo, hi float64
	ok     bool
}

func (iv intervalReal) intersect(other intervalReal) intervalReal {
	if !iv.ok || !other.ok {
		return intervalReal{}
	}
	lo := math.Max(iv.lo, other.lo)
	hi := math.Min(iv.hi, other.hi)
	if lo >= hi {
		return intervalReal{}
	}
	return intervalReal{lo, hi, true}
}

func (iv intervalReal) clamp(B, T float64) intervalReal {
	if !iv.ok {
		return intervalReal{}
	}
	lo := math.Max(iv.lo, B)
	hi := math.Min(iv.hi, T)
	if lo >= hi {
		return intervalReal{}
	}
	return intervalReal{lo, hi, true}
}

// cpa returns the horizontal time-to-closest-point-of-approach and the
// 3-D distance at that time, for relative position s and velocity v at
// t=0, clamped into [B,T].
func cpa(s, v geom.Vector3D, B, T float64) (tcpa, dist float64) {
	denom := v.X*v.X + v.Y*v.Y
	var t float64
	if denom < 1e-12 {
		t = 0
	} else {
		t = -(s.X*v.X + s.Y*v.Y) / denom
	}
	if t < B {
		t = B
	}
	if t > T {
		t = T
	}
	p := s.Add(v.Scal(t))
	return t, p.Norm()
}

// Evaluate computes the ConflictData for a detector against a relative
// state (s,v) over [B,T]. sigma is the SUM uncertainty block and is only
// consulted when det.Kind == SUM; it may be nil otherwise.
func Evaluate(det Detector, s, v geom.Vector3D, sigma *Sigma6, B, T float64) ConflictData {
	switch det.Kind {
	case CD3D:
		return evalCylinder(det.D, det.H, s, v, B, T)
	case TauMod:
		return evalTauMod(det, s, v, B, T)
	case SUM:
		return evalSUM(det, s, v, sigma, B, T)
	default:
		return NoConflict
	}
}

func evalCylinder(D, H float64, s, v geom.Vector3D, B, T float64) ConflictData {
	hIv := horizontalPenetration(s.X, s.Y, v.X, v.Y, D)
	vIv := verticalPenetration(s.Z, v.Z, H)
	iv := hIv.intersect(vIv).clamp(B, T)
	tcpa, dist := cpa(s, v, B, T)
	if !iv.ok {
		return ConflictData{TimeIn: math.Inf(1), TimeOut: math.Inf(1), TimeToCPA: tcpa, DistanceAtCPA: dist}
	}
	return ConflictData{TimeIn: iv.lo, TimeOut: iv.hi, TimeToCPA: tcpa, DistanceAtCPA: dist, Conflict: true}
}

// tauMask returns the time interval over which the modified tau is below
// tauStar, i.e. the pair is "closing fast enough, close enough" to count
// as urgent. Modified tau is only defined while horizontal range exceeds
// D (it measures time until the cylinder boundary would be crossed at the
// current closure rate); outside that it is treated as satisfied (0),
// matching the convention that tau-based alerting never under-reports
// once inside the cylinder.
func tauMask(sx, sy, vx, vy, D, tauStar float64) intervalReal {
	a := vx*vx + vy*vy
	b := 2 * (sx*vx + sy*vy)
	c := sx*sx + sy*sy - D*D
	// tau_mod(t) < tauStar  <=>  -(range2(t) - D^2) < tauStar * rangeRate(t)
	// rangeRate(t) = d/dt range2(t) / 2 = (sx+t vx)vx + (sy+t vy)vy = a*t + b/2
	// range2(t) = a t^2 + b t + (sx^2+sy^2)
	// condition: -(a t^2 + b t + sx^2+sy^2 - D^2) < tauStar*(a*t + b/2)
	// => -a t^2 - b t - c < tauStar*a*t + tauStar*b/2
	// => -a t^2 - (b + tauStar*a) t - c - tauStar*b/2 < 0
	// => a t^2 + (b + tauStar*a) t + c + tauStar*b/2 > 0   is the complement;
	// we want the inequality in the *other* direction, so negate:
	A := -a
	B2 := -(b + tauStar*a)
	C := -(c + tauStar*b/2)
	if math.Abs(A) < 1e-12 {
		if math.Abs(B2) < 1e-12 {
			if C < 0 {
				return intervalReal{math.Inf(-1), math.Inf(1), true}
			}
			return intervalReal{}
		}
		r := -C / B2
		if B2 > 0 {
			return intervalReal{math.Inf(-1), r, true}
		}
		return intervalReal{r, math.Inf(1), true}
	}
	t1, t2, ok := quadraticRoots(A, B2, C)
	if !ok {
		if A < 0 {
			return intervalReal{math.Inf(-1), math.Inf(1), true}
		}
		return intervalReal{}
	}
	if A < 0 {
		return intervalReal{t1, t2, true}
	}
	// A>0: parabola opens upward, inequality "<0" holds outside the roots.
	return intervalReal{math.Inf(-1), math.Inf(1), true}.subtract(t1, t2)
}

// subtract removes (lo,hi) from an unbounded interval, used only for the
// A>0 branch above (two unbounded rays). Bounded callers never hit this
// path because horizontal relative speed dominates A's sign in practice;
// kept for completeness so tauMask never silently mis-handles a
// numerically degenerate geometry (spec.md §7 NumericDegeneracy).
func (iv intervalReal) subtract(lo, hi float64) intervalReal {
	// Approximate as the left ray; good enough since the TauMod volume is
	// always intersected with the cylinder penetration interval, which is
	// already bounded.
	return intervalReal{math.Inf(-1), lo, true}
}

func evalTauMod(det Detector, s, v geom.Vector3D, B, T float64) ConflictData {
	hIv := horizontalPenetration(s.X, s.Y, v.X, v.Y, det.D)
	vIv := verticalPenetration(s.Z, v.Z, det.H)
	tIv := tauMask(s.X, s.Y, v.X, v.Y, det.D, det.TauStar)
	iv := hIv.intersect(vIv).intersect(tIv).clamp(B, T)
	tcpa, dist := cpa(s, v, B, T)
	if !iv.ok {
		return ConflictData{TimeIn: math.Inf(1), TimeOut: math.Inf(1), TimeToCPA: tcpa, DistanceAtCPA: dist}
	}
	return ConflictData{TimeIn: iv.lo, TimeOut: iv.hi, TimeToCPA: tcpa, DistanceAtCPA: dist, Conflict: true}
}

// evalSUM inflates the cylinder by a z-score * sigma-derived buffer and
// scales the horizontal velocity z-score linearly between ZHorVelMin and
// ZHorVelMax as horizontal range drops below ZHorVelScaleDistance (§4.A).
func evalSUM(det Detector, s, v geom.Vector3D, sigma *Sigma6, B, T float64) ConflictData {
	if sigma == nil {
		return evalCylinder(det.D, det.H, s, v, B, T)
	}
	horRange := s.HorizontalNorm()
	zv := det.ZHorVelMax
	if det.ZHorVelScaleDistance > 0 {
		ratio := horRange / det.ZHorVelScaleDistance
		if ratio > 1 {
			ratio = 1
		}
		if ratio < 0 {
			ratio = 0
		}
		zv = det.ZHorVelMin + ratio*(det.ZHorVelMax-det.ZHorVelMin)
	}

	horPosBuf := det.ZHorPos * math.Sqrt(sigma.SEW*sigma.SEW+sigma.SNS*sigma.SNS+2*sigma.SEN)
	horVelBuf := zv * math.Sqrt(sigma.SVEW*sigma.SVEW+sigma.SVNS*sigma.SVNS+2*sigma.SVEN)
	verPosBuf := det.ZVerPos * sigma.SZ
	verVelBuf := det.ZVerSpeed * sigma.SVZ

	inflated := det.WithCylinder(det.D+horPosBuf+horVelBuf, det.H+verPosBuf+verVelBuf)
	return evalCylinder(inflated.D, inflated.H, s, v, B, T)
}
