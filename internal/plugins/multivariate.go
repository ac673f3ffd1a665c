package plugins

import (
	"context"
	"math"

	"github.com/KaramelBytes/datasight/internal/dataset"
	"github.com/KaramelBytes/datasight/internal/pipeline"
)

// maxSampleRows caps the rows fed to the iterative multivariate stages so a
// large frame cannot stall a phase.
const maxSampleRows = 1000

// PCAPayload holds the top-two principal components of the standardized
// numeric columns.
type PCAPayload struct {
	Columns           []string       `json:"columns"`
	VarianceExplained []float64      `json:"variance_explained"`
	CumulativeTop2    float64        `json:"cumulative_top2"`
	Scores            []ScatterPoint `json:"scores"`
}

// PCAPlugin projects the numeric columns onto their top two principal axes
// via power iteration with deflation.
type PCAPlugin struct{ stage }

func (p *PCAPlugin) Run(_ context.Context, _ *pipeline.View, frame *dataset.Frame) (any, error) {
	numCols := frame.NumericColumns()
	if len(numCols) < 3 {
		return nil, pipeline.Skip("fewer than three numeric columns")
	}
	rows, names := numericMatrix(frame, numCols)
	if len(rows) < 10 {
		return nil, pipeline.Skip("too few complete rows")
	}
	std := standardize(rows)

	cov := covariance(std)
	trace := 0.0
	for i := range cov {
		trace += cov[i][i]
	}
	if trace == 0 {
		return nil, pipeline.Skip("degenerate covariance")
	}

	v1, l1 := powerIterate(cov)
	deflate(cov, v1, l1)
	v2, l2 := powerIterate(cov)

	out := PCAPayload{
		Columns:           names,
		VarianceExplained: []float64{l1 / trace, l2 / trace},
		CumulativeTop2:    (l1 + l2) / trace,
	}
	for _, row := range std {
		out.Scores = append(out.Scores, ScatterPoint{X: dot(row, v1), Y: dot(row, v2)})
		if len(out.Scores) >= 500 {
			break
		}
	}
	return out, nil
}

// ClusterPoint is one projected observation with its cluster assignment.
type ClusterPoint struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Cluster int     `json:"cluster"`
}

// ClusteringPayload reports the k-means segmentation chosen by simplified
// silhouette over candidate k.
type ClusteringPayload struct {
	SuggestedK int            `json:"suggested_k"`
	Silhouette float64        `json:"silhouette"`
	Sizes      []int          `json:"sizes"`
	Points     []ClusterPoint `json:"points"`
}

// ClusteringPlugin segments rows with deterministic k-means over the PCA
// projection.
type ClusteringPlugin struct{ stage }

func (p *ClusteringPlugin) Run(_ context.Context, view *pipeline.View, frame *dataset.Frame) (any, error) {
	payload, ok := view.Payload(IDPCA)
	if !ok {
		return nil, pipeline.Skip("no pca evidence")
	}
	pca := payload.(PCAPayload)
	points := make([][]float64, 0, len(pca.Scores))
	for _, s := range pca.Scores {
		points = append(points, []float64{s.X, s.Y})
	}
	if len(points) < 20 {
		return nil, pipeline.Skip("too few points to segment")
	}

	bestK, bestSil := 0, math.Inf(-1)
	var bestAssign []int
	maxK := 6
	if maxK > len(points)/4 {
		maxK = len(points) / 4
	}
	for k := 2; k <= maxK; k++ {
		assign, centers := kmeans(points, k, 25)
		sil := simplifiedSilhouette(points, assign, centers)
		if sil > bestSil {
			bestK, bestSil, bestAssign = k, sil, assign
		}
	}
	if bestK == 0 {
		return nil, pipeline.Skip("no viable segmentation")
	}

	out := ClusteringPayload{SuggestedK: bestK, Silhouette: bestSil, Sizes: make([]int, bestK)}
	for i, a := range bestAssign {
		out.Sizes[a]++
		if len(out.Points) < 500 {
			out.Points = append(out.Points, ClusterPoint{X: points[i][0], Y: points[i][1], Cluster: a})
		}
	}
	return out, nil
}

// numericMatrix collects complete-case rows, capped at maxSampleRows.
func numericMatrix(frame *dataset.Frame, cols []*dataset.Column) ([][]float64, []string) {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	var rows [][]float64
	for r := 0; r < frame.Rows && len(rows) < maxSampleRows; r++ {
		row := make([]float64, len(cols))
		complete := true
		for j, c := range cols {
			if r >= len(c.Floats) || math.IsNaN(c.Floats[r]) {
				complete = false
				break
			}
			row[j] = c.Floats[r]
		}
		if complete {
			rows = append(rows, row)
		}
	}
	return rows, names
}

func covariance(std [][]float64) [][]float64 {
	n := len(std)
	d := len(std[0])
	cov := make([][]float64, d)
	for i := range cov {
		cov[i] = make([]float64, d)
	}
	for _, row := range std {
		for i := 0; i < d; i++ {
			for j := i; j < d; j++ {
				cov[i][j] += row[i] * row[j]
			}
		}
	}
	for i := 0; i < d; i++ {
		for j := i; j < d; j++ {
			cov[i][j] /= float64(n - 1)
			cov[j][i] = cov[i][j]
		}
	}
	return cov
}

// powerIterate returns the dominant eigenvector and eigenvalue of a symmetric
// matrix. The starting vector is fixed, keeping runs reproducible.
func powerIterate(m [][]float64) ([]float64, float64) {
	d := len(m)
	v := make([]float64, d)
	for i := range v {
		v[i] = 1 / math.Sqrt(float64(d))
	}
	var lambda float64
	for iter := 0; iter < 100; iter++ {
		next := make([]float64, d)
		for i := 0; i < d; i++ {
			for j := 0; j < d; j++ {
				next[i] += m[i][j] * v[j]
			}
		}
		norm := 0.0
		for _, x := range next {
			norm += x * x
		}
		norm = math.Sqrt(norm)
		if norm == 0 {
			return v, 0
		}
		for i := range next {
			next[i] /= norm
		}
		prev := lambda
		lambda = norm
		v = next
		if math.Abs(lambda-prev) < 1e-9 {
			break
		}
	}
	return v, lambda
}

func deflate(m [][]float64, v []float64, lambda float64) {
	for i := range m {
		for j := range m[i] {
			m[i][j] -= lambda * v[i] * v[j]
		}
	}
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		if i < len(b) {
			s += a[i] * b[i]
		}
	}
	return s
}

// kmeans runs Lloyd's algorithm with deterministic spread-out initialization
// (evenly spaced input rows as seeds).
func kmeans(points [][]float64, k, iters int) ([]int, [][]float64) {
	n := len(points)
	centers := make([][]float64, k)
	for i := 0; i < k; i++ {
		src := points[i*n/k]
		centers[i] = append([]float64(nil), src...)
	}
	assign := make([]int, n)
	for iter := 0; iter < iters; iter++ {
		changed := false
		for i, pt := range points {
			best, bestD := 0, math.Inf(1)
			for c := range centers {
				d := sqDist(pt, centers[c])
				if d < bestD {
					best, bestD = c, d
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}
		counts := make([]int, k)
		next := make([][]float64, k)
		for c := range next {
			next[c] = make([]float64, len(points[0]))
		}
		for i, pt := range points {
			counts[assign[i]]++
			for j, x := range pt {
				next[assign[i]][j] += x
			}
		}
		for c := range next {
			if counts[c] == 0 {
				next[c] = centers[c]
				continue
			}
			for j := range next[c] {
				next[c][j] /= float64(counts[c])
			}
		}
		centers = next
		if !changed {
			break
		}
	}
	return assign, centers
}

// simplifiedSilhouette scores an assignment using centroid distances instead
// of full pairwise distances.
func simplifiedSilhouette(points [][]float64, assign []int, centers [][]float64) float64 {
	var sum float64
	var n int
	for i, pt := range points {
		own := math.Sqrt(sqDist(pt, centers[assign[i]]))
		other := math.Inf(1)
		for c := range centers {
			if c == assign[i] {
				continue
			}
			if d := math.Sqrt(sqDist(pt, centers[c])); d < other {
				other = d
			}
		}
		den := math.Max(own, other)
		if den == 0 || math.IsInf(other, 1) {
			continue
		}
		sum += (other - own) / den
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func sqDist(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}
