package model

import (
	"fmt"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

var _ Regressor = &Ridge{}

// Ridge is an L2 penalized least squares regressor. The intercept is not
// penalized: features and target are centered before solving.
type Ridge struct {
	Alpha     float64
	Intercept float64
	Coef      []float64
}

func NewRidge(alpha float64) *Ridge {
	return &Ridge{Alpha: alpha}
}

func (r *Ridge) String() string {
	return fmt.Sprintf("Ridge(alpha=%g)", r.Alpha)
}

// Fit solves (XcᵀXc + αI)β = Xcᵀyc by Cholesky factorization.
func (r *Ridge) Fit(x mat.Matrix, y []float64) error {
	rows, cols := x.Dims()
	if rows != len(y) {
		return errors.Errorf("feature matrix has %d rows, target has %d", rows, len(y))
	}
	if rows == 0 || cols == 0 {
		return errors.Errorf("cannot fit on a %dx%d feature matrix", rows, cols)
	}

	xMean := make([]float64, cols)
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			xMean[j] += x.At(i, j)
		}
		xMean[j] /= float64(rows)
	}
	yMean := 0.0
	for _, v := range y {
		yMean += v
	}
	yMean /= float64(rows)

	gram := mat.NewSymDense(cols, nil)
	rhs := mat.NewVecDense(cols, nil)
	for j := 0; j < cols; j++ {
		for k := j; k < cols; k++ {
			sum := 0.0
			for i := 0; i < rows; i++ {
				sum += (x.At(i, j) - xMean[j]) * (x.At(i, k) - xMean[k])
			}
			if j == k {
				sum += r.Alpha
			}
			gram.SetSym(j, k, sum)
		}
		sum := 0.0
		for i := 0; i < rows; i++ {
			sum += (x.At(i, j) - xMean[j]) * (y[i] - yMean)
		}
		rhs.SetVec(j, sum)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(gram); !ok {
		return errors.Errorf("normal equations are singular (alpha=%g); increase alpha", r.Alpha)
	}
	beta := mat.NewVecDense(cols, nil)
	if err := chol.SolveVecTo(beta, rhs); err != nil {
		return errors.Wrap(err, "error solving normal equations")
	}

	r.Coef = make([]float64, cols)
	r.Intercept = yMean
	for j := range r.Coef {
		r.Coef[j] = beta.AtVec(j)
		r.Intercept -= r.Coef[j] * xMean[j]
	}
	return nil
}

func (r *Ridge) Predict(x mat.Matrix) ([]float64, error) {
	if r.Coef == nil {
		return nil, errors.New("ridge regressor is not fitted")
	}
	rows, cols := x.Dims()
	if cols != len(r.Coef) {
		return nil, errors.Errorf("feature matrix has %d columns, model expects %d", cols, len(r.Coef))
	}
	result := make([]float64, rows)
	for i := range result {
		result[i] = r.Intercept
		for j, c := range r.Coef {
			result[i] += c * x.At(i, j)
		}
	}
	return result, nil
}
