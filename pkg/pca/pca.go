// Package pca computes the principal axes of small (N×3) point clouds,
// tolerant of non-finite input and near-zero variance.
package pca

import (
	"math"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// varianceTolerance below which the covariance matrix is treated as
// degenerate and epsilon noise is injected before decomposition.
const varianceTolerance = 1e-18

// noiseStdDev is the standard deviation of the epsilon noise injected into a
// degenerate (near-zero variance) input before eigendecomposition.
const noiseStdDev = 1e-10

// Result holds the three principal axes (unit vectors, descending
// eigenvalue order) and their eigenvalues.
type Result struct {
	Axes        [3][3]float64
	Eigenvalues [3]float64
}

// Axis3 returns the first (dominant) principal axis.
func (r Result) Axis3() [3]float64 { return r.Axes[0] }

// Compute runs PCA on an N×3 matrix given as rows. Non-finite entries are
// replaced with 0 before anything else happens. If the total variance
// across all three columns is at or below tolerance, zero-mean Gaussian
// noise of std noiseStdDev is injected first so the covariance matrix is
// never exactly singular. rngSeed makes the epsilon-noise injection
// reproducible for a given caller/seed.
func Compute(rows [][3]float64, rngSeed uint64) Result {
	data := sanitize(rows)

	if totalVariance(data) <= varianceTolerance {
		injectNoise(data, rngSeed)
	}

	cov := covariance(data)
	return decompose(cov)
}

func sanitize(rows [][3]float64) [][3]float64 {
	out := make([][3]float64, len(rows))
	for i, row := range rows {
		for k, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				v = 0
			}
			out[i][k] = v
		}
	}
	return out
}

func totalVariance(data [][3]float64) float64 {
	if len(data) == 0 {
		return 0
	}
	var mean [3]float64
	for _, row := range data {
		for k, v := range row {
			mean[k] += v
		}
	}
	n := float64(len(data))
	for k := range mean {
		mean[k] /= n
	}

	var total float64
	for _, row := range data {
		for k, v := range row {
			d := v - mean[k]
			total += d * d
		}
	}
	return total / n
}

func injectNoise(data [][3]float64, seed uint64) {
	src := rand.New(rand.NewSource(seed))
	for i := range data {
		for k := range data[i] {
			data[i][k] += src.NormFloat64() * noiseStdDev
		}
	}
}

func covariance(data [][3]float64) *mat.SymDense {
	n := float64(len(data))
	if n == 0 {
		return mat.NewSymDense(3, nil)
	}

	var mean [3]float64
	for _, row := range data {
		for k, v := range row {
			mean[k] += v
		}
	}
	for k := range mean {
		mean[k] /= n
	}

	var cov [3][3]float64
	for _, row := range data {
		d := [3]float64{row[0] - mean[0], row[1] - mean[1], row[2] - mean[2]}
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				cov[i][j] += d[i] * d[j]
			}
		}
	}

	sym := mat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			sym.SetSym(i, j, cov[i][j]/n)
		}
	}
	return sym
}

// decompose runs symmetric eigendecomposition and orders axes/eigenvalues
// by descending eigenvalue, normalizing each axis to unit length.
func decompose(cov *mat.SymDense) Result {
	var eig mat.EigenSym
	ok := eig.Factorize(cov, true)
	if !ok {
		// Degenerate even after noise injection (should not happen in
		// practice); fall back to the coordinate axes.
		return Result{
			Axes:        [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
			Eigenvalues: [3]float64{0, 0, 0},
		}
	}

	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	order := []int{0, 1, 2}
	sort.Slice(order, func(a, b int) bool { return values[order[a]] > values[order[b]] })

	var res Result
	for outIdx, srcIdx := range order {
		res.Eigenvalues[outIdx] = values[srcIdx]
		axis := [3]float64{
			vectors.At(0, srcIdx),
			vectors.At(1, srcIdx),
			vectors.At(2, srcIdx),
		}
		res.Axes[outIdx] = normalize(axis)
	}
	return res
}

func normalize(v [3]float64) [3]float64 {
	norm := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if norm <= 0 {
		return [3]float64{1, 0, 0}
	}
	return [3]float64{v[0] / norm, v[1] / norm, v[2] / norm}
}
