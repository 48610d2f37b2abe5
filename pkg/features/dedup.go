package features

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// distinctColumns returns, in left to right order, the index of the first
// occurrence of every group of bit-identical columns.
func distinctColumns(x mat.Matrix) []int {
	rows, cols := x.Dims()
	columns := make([][]float64, cols)
	for j := range columns {
		columns[j] = mat.Col(nil, j, x)
	}

	var keep []int
	for j := 0; j < cols; j++ {
		duplicate := false
		for _, k := range keep {
			if identical(columns[j], columns[k], rows) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			keep = append(keep, j)
		}
	}
	return keep
}

func identical(a, b []float64, n int) bool {
	for i := 0; i < n; i++ {
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			return false
		}
	}
	return true
}

func selectColumns(x mat.Matrix, keep []int) *mat.Dense {
	rows, _ := x.Dims()
	result := mat.NewDense(rows, len(keep), nil)
	for j, k := range keep {
		result.SetCol(j, mat.Col(nil, k, x))
	}
	return result
}
