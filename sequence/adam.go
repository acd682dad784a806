package sequence

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Adam is the Adam optimiser with bias correction folded into the step size.
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64

	t    int
	m, v [][]float64
}

// NewAdam returns Adam with the usual moment decay rates.
func NewAdam(lr float64) *Adam {
	return &Adam{LearningRate: lr, Beta1: 0.9, Beta2: 0.999, Epsilon: 1e-7}
}

// Step updates params in place from grads.
func (a *Adam) Step(params, grads []*mat.Dense) {
	if a.m == nil {
		a.m = make([][]float64, len(params))
		a.v = make([][]float64, len(params))
		for i, p := range params {
			r, c := p.Dims()
			a.m[i] = make([]float64, r*c)
			a.v[i] = make([]float64, r*c)
		}
	}
	a.t++
	lr := a.LearningRate * math.Sqrt(1-math.Pow(a.Beta2, float64(a.t))) / (1 - math.Pow(a.Beta1, float64(a.t)))

	for i, p := range params {
		rows, cols := p.Dims()
		m, v := a.m[i], a.v[i]
		for r := 0; r < rows; r++ {
			prow := p.RawRowView(r)
			grow := grads[i].RawRowView(r)
			for k := 0; k < cols; k++ {
				j := r*cols + k
				g := grow[k]
				m[j] = a.Beta1*m[j] + (1-a.Beta1)*g
				v[j] = a.Beta2*v[j] + (1-a.Beta2)*g*g
				prow[k] -= lr * m[j] / (math.Sqrt(v[j]) + a.Epsilon)
			}
		}
	}
}
