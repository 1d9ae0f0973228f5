package ik

import (
	"math"

	"github.com/Carmen-Shannon/oxy-rig/common"
)

// DefaultEpsilon keeps the solved triangle away from the fully straight and fully folded configurations.
const DefaultEpsilon float32 = 1e-3

// collinearTolerance is the minimum |a x b| (of unit vectors) for two directions to span a bend plane.
const collinearTolerance = 1e-4

var (
	// DefaultPole is the bend direction used when a chain has no pole target.
	DefaultPole = [3]float32{0, 1, 0}

	fallbackAxes = [][3]float32{{0, 0, 1}, {1, 0, 0}}
)

// Solver solves two-bone chains with a configurable reach epsilon.
// The zero value uses DefaultEpsilon.
type Solver struct {
	// Epsilon shrinks the reachable band to [|l1-l2|+Epsilon, l1+l2-Epsilon].
	Epsilon float32
}

// SolveTwoBoneIK solves a two-bone chain with DefaultEpsilon. See Solver.Solve.
func SolveTwoBoneIK(root, mid, end, target [3]float32, pole *[3]float32) [2][4]float32 {
	return Solver{}.Solve(root, mid, end, target, pole)
}

// Solve computes the two world-space delta rotations that bend the chain root -> mid -> end so that
// end reaches target. The first rotation is applied to the whole chain about root; the second is then
// applied to the lower segment about the moved mid joint. Targets outside the reachable band are clamped
// along the root -> target direction, so the result is always a pair of unit quaternions.
//
// The bend plane normal is target_dir x pole_dir, where pole_dir points from root to pole (or along
// DefaultPole when pole is nil). When that is degenerate the current mid joint stands in for the pole,
// then +Z, then +X.
//
// Parameters:
//   - root: world position of the proximal joint
//   - mid: world position of the middle joint
//   - end: world position of the end effector
//   - target: world position the end effector should reach
//   - pole: optional world position the middle joint should bend toward
//
// Returns:
//   - [2][4]float32: the root and middle delta rotations as (x, y, z, w) quaternions
func (s Solver) Solve(root, mid, end, target [3]float32, pole *[3]float32) [2][4]float32 {
	identity := [2][4]float32{common.QuatIdentity(), common.QuatIdentity()}

	upper := common.Vec3Sub(mid, root)
	lower := common.Vec3Sub(end, mid)
	l1 := float64(common.Vec3Length(upper))
	l2 := float64(common.Vec3Length(lower))
	if l1 < 1e-6 || l2 < 1e-6 {
		return identity
	}

	eps := float64(s.Epsilon)
	if !(eps > 0) {
		eps = float64(DefaultEpsilon)
	}

	toTarget := common.Vec3Sub(target, root)
	dir, ok := common.Vec3Normalize(toTarget)
	if !ok {
		// target on the root: keep reaching along the current chain
		if dir, ok = common.Vec3Normalize(common.Vec3Sub(end, root)); !ok {
			dir, _ = common.Vec3Normalize(upper)
		}
	}

	lo, hi := math.Abs(l1-l2)+eps, l1+l2-eps
	if lo > hi {
		lo = (lo + hi) / 2
		hi = lo
	}
	d := min(max(float64(common.Vec3Length(toTarget)), lo), hi)

	cosA := (l1*l1 + d*d - l2*l2) / (2 * l1 * d)
	a1 := math.Acos(min(max(cosA, -1), 1))

	n := bendNormal(dir, root, mid, pole)
	midDir := rotateAbout(dir, n, a1)
	desiredMid := common.Vec3Add(root, common.Vec3Scale(midDir, float32(l1)))
	reach := common.Vec3Add(root, common.Vec3Scale(dir, float32(d)))

	qRoot := common.QuatBetween(upper, midDir)
	qMid := common.QuatBetween(common.QuatRotateVec3(qRoot, lower), common.Vec3Sub(reach, desiredMid))
	return [2][4]float32{qRoot, qMid}
}

func bendNormal(dir, root, mid [3]float32, pole *[3]float32) [3]float32 {
	candidates := make([][3]float32, 0, 4)
	if pole != nil {
		candidates = append(candidates, common.Vec3Sub(*pole, root))
	} else {
		candidates = append(candidates, DefaultPole)
	}
	candidates = append(candidates, common.Vec3Sub(mid, root))
	candidates = append(candidates, fallbackAxes...)

	for _, c := range candidates {
		p, ok := common.Vec3Normalize(c)
		if !ok {
			continue
		}
		cross := common.Vec3Cross(dir, p)
		if common.Vec3Length(cross) < collinearTolerance {
			continue
		}
		n, _ := common.Vec3Normalize(cross)
		return n
	}
	// unreachable: dir cannot be parallel to both +Z and +X
	return common.Vec3Orthogonal(dir)
}

// rotateAbout rotates v by angle radians about the unit axis n (Rodrigues), in float64.
func rotateAbout(v, n [3]float32, angle float64) [3]float32 {
	c, s := math.Cos(angle), math.Sin(angle)
	k := [3]float64{float64(n[0]), float64(n[1]), float64(n[2])}
	x := [3]float64{float64(v[0]), float64(v[1]), float64(v[2])}
	kx := [3]float64{
		k[1]*x[2] - k[2]*x[1],
		k[2]*x[0] - k[0]*x[2],
		k[0]*x[1] - k[1]*x[0],
	}
	kd := k[0]*x[0] + k[1]*x[1] + k[2]*x[2]
	var out [3]float32
	for i := range out {
		out[i] = float32(x[i]*c + kx[i]*s + k[i]*kd*(1-c))
	}
	return out
}
