package model

import (
	"encoding/gob"

	"gonum.org/v1/gonum/mat"
)

func init() {
	gob.Register(&Ridge{})
}

// Regressor maps each row of a feature matrix to a real valued prediction.
type Regressor interface {
	Predict(x mat.Matrix) ([]float64, error)
}
