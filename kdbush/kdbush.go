// Package kdbush is a static kd-tree over 2d points, used to narrow feature
// scans to a bounding box before exact geometry checks.
package kdbush

import (
	"math"
)

type Point[T any] struct {
	X, Y float64
	Data T
}

type KDBush[T any] struct {
	NodeSize int
	Points   []Point[T]

	idxs   []int
	coords []float64
}

const DefaultNodeSize = 64

func NewBush[T any](points []Point[T], nodeSize int) *KDBush[T] {
	if nodeSize <= 0 {
		nodeSize = DefaultNodeSize
	}
	b := &KDBush[T]{}
	b.buildIndex(points, nodeSize)
	return b
}

// RangeFunc calls fn with the index of every point inside the box until fn returns false.
func (bush *KDBush[T]) RangeFunc(minX, minY, maxX, maxY float64, fn func(i int) bool) {
	if len(bush.idxs) == 0 {
		return
	}

	inside := func(x, y float64) bool {
		return x >= minX && x <= maxX && y >= minY && y <= maxY
	}

	stack := []int{0, len(bush.idxs) - 1, 0}
	for len(stack) > 0 {
		axis := stack[len(stack)-1]
		right := stack[len(stack)-2]
		left := stack[len(stack)-3]
		stack = stack[:len(stack)-3]

		if right-left <= bush.NodeSize {
			for i := left; i <= right; i++ {
				if inside(bush.coords[2*i], bush.coords[2*i+1]) && !fn(bush.idxs[i]) {
					return
				}
			}
			continue
		}

		m := (left + right) / 2
		x := bush.coords[2*m]
		y := bush.coords[2*m+1]
		if inside(x, y) && !fn(bush.idxs[m]) {
			return
		}

		nextAxis := (axis + 1) % 2
		if (axis == 0 && minX <= x) || (axis != 0 && minY <= y) {
			stack = append(stack, left, m-1, nextAxis)
		}
		if (axis == 0 && maxX >= x) || (axis != 0 && maxY >= y) {
			stack = append(stack, m+1, right, nextAxis)
		}
	}
}

func (bush *KDBush[T]) buildIndex(points []Point[T], nodeSize int) {
	bush.NodeSize = nodeSize
	bush.Points = points

	bush.idxs = make([]int, len(points))
	bush.coords = make([]float64, 2*len(points))

	for i, v := range points {
		bush.idxs[i] = i
		bush.coords[i*2] = v.X
		bush.coords[i*2+1] = v.Y
	}

	sortKD(bush.idxs, bush.coords, bush.NodeSize, 0, len(bush.idxs)-1, 0)
}

func sortKD(idxs []int, coords []float64, nodeSize int, left, right, depth int) {
	if right-left <= nodeSize {
		return
	}

	m := (left + right) / 2
	selectKD(idxs, coords, m, left, right, depth%2)

	sortKD(idxs, coords, nodeSize, left, m-1, depth+1)
	sortKD(idxs, coords, nodeSize, m+1, right, depth+1)
}

// selectKD is Floyd-Rivest selection: it reorders [left, right] so that the
// k-th element along axis inc is in place.
func selectKD(idxs []int, coords []float64, k, left, right, inc int) {
	for right > left {
		if right-left > 600 {
			n := float64(right - left + 1)
			m := float64(k - left + 1)
			z := math.Log(n)
			s := 0.5 * math.Exp(2.0*z/3.0)
			sd := 0.5 * math.Sqrt(z*s*(n-s)/n)
			if m-n/2 < 0 {
				sd = -sd
			}
			newLeft := max(left, int(math.Floor(float64(k)-m*s/n+sd)))
			newRight := min(right, int(math.Floor(float64(k)+(n-m)*s/n+sd)))
			selectKD(idxs, coords, k, newLeft, newRight, inc)
		}

		t := coords[2*k+inc]
		i := left
		j := right

		swapItem(idxs, coords, left, k)
		if coords[2*right+inc] > t {
			swapItem(idxs, coords, left, right)
		}

		for i < j {
			swapItem(idxs, coords, i, j)
			i++
			j--
			for coords[2*i+inc] < t {
				i++
			}
			for coords[2*j+inc] > t {
				j--
			}
		}

		if coords[2*left+inc] == t {
			swapItem(idxs, coords, left, j)
		} else {
			j++
			swapItem(idxs, coords, j, right)
		}

		if j <= k {
			left = j + 1
		}
		if k <= j {
			right = j - 1
		}
	}
}

func swapItem(idxs []int, coords []float64, i, j int) {
	idxs[i], idxs[j] = idxs[j], idxs[i]
	coords[2*i], coords[2*j] = coords[2*j], coords[2*i]
	coords[2*i+1], coords[2*j+1] = coords[2*j+1], coords[2*i+1]
}
