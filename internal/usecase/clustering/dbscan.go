package clustering

import "github.com/spontime/geocore/internal/domain/geo"

// noiseLabel marks points not reachable from any dense core.
const noiseLabel = -1

// dbscan assigns a cluster label to every point, or noiseLabel. Coordinates
// are treated as planar degrees; eps is a degree radius, valid at city scale.
// minSamples counts the point itself, matching the usual DBSCAN definition.
func dbscan(points []geo.Point, eps float64, minSamples int) []int {
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = noiseLabel
	}

	visited := make([]bool, len(points))
	next := 0

	for i := range points {
		if visited[i] {
			continue
		}
		visited[i] = true

		neighbors := regionQuery(points, i, eps)
		if len(neighbors) < minSamples {
			continue // noise unless later absorbed as a border point
		}

		labels[i] = next
		expand(points, labels, visited, neighbors, next, eps, minSamples)
		next++
	}

	return labels
}

// expand grows cluster c from a core point's neighborhood: border points join
// the cluster, and neighborhoods of further core points extend the seed set.
func expand(points []geo.Point, labels []int, visited []bool, seeds []int, c int, eps float64, minSamples int) {
	for k := 0; k < len(seeds); k++ {
		j := seeds[k]

		if !visited[j] {
			visited[j] = true
			further := regionQuery(points, j, eps)
			if len(further) >= minSamples {
				seeds = append(seeds, further...)
			}
		}

		if labels[j] == noiseLabel {
			labels[j] = c
		}
	}
}

// regionQuery returns indexes of all points within eps of points[i],
// including i itself.
func regionQuery(points []geo.Point, i int, eps float64) []int {
	var hits []int
	for j := range points {
		if geo.EuclideanDegrees(points[i], points[j]) <= eps {
			hits = append(hits, j)
		}
	}
	return hits
}
