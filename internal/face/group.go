package face

import (
	"image"
	"math"
)

// groupEps is the relative tolerance used to decide that two raw hits describe
// the same face.
const groupEps = 0.2

// similarRects reports whether every edge of a and b lies within
// eps × (mean of the smaller width and height) of each other.
func similarRects(a, b image.Rectangle, eps float64) bool {
	delta := eps * float64(minInt(a.Dx(), b.Dx())+minInt(a.Dy(), b.Dy())) * 0.5
	return math.Abs(float64(a.Min.X-b.Min.X)) <= delta &&
		math.Abs(float64(a.Min.Y-b.Min.Y)) <= delta &&
		math.Abs(float64(a.Max.X-b.Max.X)) <= delta &&
		math.Abs(float64(a.Max.Y-b.Max.Y)) <= delta
}

// groupRectangles clusters raw detections and keeps the clusters with more
// than minNeighbors members, each replaced by the average of its members.
//
// Clusters come out in the order of their first raw member. With
// minNeighbors == 0 the raw detections are returned unchanged.
func groupRectangles(raw []image.Rectangle, minNeighbors int) []image.Rectangle {
	if minNeighbors <= 0 || len(raw) == 0 {
		return raw
	}

	parent := make([]int, len(raw))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	for i := range raw {
		for j := i + 1; j < len(raw); j++ {
			if similarRects(raw[i], raw[j], groupEps) {
				if ri, rj := find(i), find(j); ri != rj {
					parent[rj] = ri
				}
			}
		}
	}

	type cluster struct {
		x1, y1, x2, y2 int
		n              int
	}
	index := make(map[int]int)
	var clusters []*cluster
	for i, r := range raw {
		root := find(i)
		ci, ok := index[root]
		if !ok {
			ci = len(clusters)
			index[root] = ci
			clusters = append(clusters, &cluster{})
		}
		c := clusters[ci]
		c.x1 += r.Min.X
		c.y1 += r.Min.Y
		c.x2 += r.Max.X
		c.y2 += r.Max.Y
		c.n++
	}

	var out []image.Rectangle
	for _, c := range clusters {
		if c.n <= minNeighbors {
			continue
		}
		n := float64(c.n)
		out = append(out, image.Rect(
			int(math.Round(float64(c.x1)/n)),
			int(math.Round(float64(c.y1)/n)),
			int(math.Round(float64(c.x2)/n)),
			int(math.Round(float64(c.y2)/n)),
		))
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
