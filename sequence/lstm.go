package sequence

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Activation is the cell and candidate activation of the LSTM layer. The
// gates always use the logistic sigmoid.
type Activation string

const (
	Tanh Activation = "tanh"
	ReLU Activation = "relu"
)

func (a Activation) apply(x float64) float64 {
	if a == ReLU {
		return math.Max(0, x)
	}
	return math.Tanh(x)
}

// deriv is the derivative expressed through the activated value.
func (a Activation) deriv(y float64) float64 {
	if a == ReLU {
		if y > 0 {
			return 1
		}
		return 0
	}
	return 1 - y*y
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Network is a single LSTM layer followed by a dense output layer. Gate
// blocks in W, U and B are ordered input, forget, candidate, output.
type Network struct {
	Inputs     int
	Units      int
	Outputs    int
	Activation Activation

	W  *mat.Dense // Inputs x 4*Units
	U  *mat.Dense // Units x 4*Units
	B  *mat.Dense // 1 x 4*Units
	Wd *mat.Dense // Units x Outputs
	Bd *mat.Dense // 1 x Outputs
}

// NewNetwork initialises input kernels with Glorot uniform weights, the
// recurrent kernel orthogonally and the forget-gate bias to one.
func NewNetwork(inputs, units, outputs int, act Activation, rng *rand.Rand) *Network {
	if act == "" {
		act = Tanh
	}
	n := &Network{
		Inputs:     inputs,
		Units:      units,
		Outputs:    outputs,
		Activation: act,
		W:          glorot(inputs, 4*units, rng),
		U:          orthogonal(units, 4*units, rng),
		B:          mat.NewDense(1, 4*units, nil),
		Wd:         glorot(units, outputs, rng),
		Bd:         mat.NewDense(1, outputs, nil),
	}
	for k := units; k < 2*units; k++ {
		n.B.Set(0, k, 1)
	}
	return n
}

func glorot(rows, cols int, rng *rand.Rand) *mat.Dense {
	limit := math.Sqrt(6 / float64(rows+cols))
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = (2*rng.Float64() - 1) * limit
	}
	return mat.NewDense(rows, cols, data)
}

// orthogonal returns a rows x cols matrix with orthonormal rows, taken from
// the QR factorisation of a gaussian matrix.
func orthogonal(rows, cols int, rng *rand.Rand) *mat.Dense {
	data := make([]float64, cols*rows)
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	a := mat.NewDense(cols, rows, data)

	var qr mat.QR
	qr.Factorize(a)
	var q, r mat.Dense
	qr.QTo(&q)
	qr.RTo(&r)

	out := mat.NewDense(rows, cols, nil)
	for j := 0; j < rows; j++ {
		sign := 1.0
		if r.At(j, j) < 0 {
			sign = -1
		}
		for i := 0; i < cols; i++ {
			out.Set(j, i, sign*q.At(i, j))
		}
	}
	return out
}

func (n *Network) params() []*mat.Dense {
	return []*mat.Dense{n.W, n.U, n.B, n.Wd, n.Bd}
}

// snapshot copies the weights.
func (n *Network) snapshot() []*mat.Dense {
	ps := n.params()
	out := make([]*mat.Dense, len(ps))
	for i, p := range ps {
		out[i] = mat.DenseCopyOf(p)
	}
	return out
}

func (n *Network) restore(weights []*mat.Dense) {
	for i, p := range n.params() {
		p.Copy(weights[i])
	}
}

type step struct {
	x, hPrev, cPrev *mat.Dense
	i, f, g, o      *mat.Dense
	tc              *mat.Dense // activation of the new cell state
}

type tape struct {
	steps []step
	hLast *mat.Dense // final hidden state after dropout
	mask  *mat.Dense
}

// forward runs a batch of windows. mask, when non-nil, multiplies the final
// hidden state element-wise.
func (n *Network) forward(batch [][][]float64, mask *mat.Dense) (*mat.Dense, *tape) {
	bsz, T, H := len(batch), len(batch[0]), n.Units
	h := mat.NewDense(bsz, H, nil)
	c := mat.NewDense(bsz, H, nil)
	bias := n.B.RawRowView(0)
	tp := &tape{steps: make([]step, T), mask: mask}

	for t := 0; t < T; t++ {
		x := mat.NewDense(bsz, n.Inputs, nil)
		for b := range batch {
			x.SetRow(b, batch[b][t])
		}
		var z, zu mat.Dense
		z.Mul(x, n.W)
		zu.Mul(h, n.U)
		z.Add(&z, &zu)

		st := step{
			x: x, hPrev: h, cPrev: c,
			i: mat.NewDense(bsz, H, nil), f: mat.NewDense(bsz, H, nil),
			g: mat.NewDense(bsz, H, nil), o: mat.NewDense(bsz, H, nil),
			tc: mat.NewDense(bsz, H, nil),
		}
		hNext := mat.NewDense(bsz, H, nil)
		cNext := mat.NewDense(bsz, H, nil)
		for r := 0; r < bsz; r++ {
			row := z.RawRowView(r)
			for k := 0; k < H; k++ {
				iv := sigmoid(row[k] + bias[k])
				fv := sigmoid(row[H+k] + bias[H+k])
				gv := n.Activation.apply(row[2*H+k] + bias[2*H+k])
				ov := sigmoid(row[3*H+k] + bias[3*H+k])
				cv := fv*c.At(r, k) + iv*gv
				tc := n.Activation.apply(cv)

				st.i.Set(r, k, iv)
				st.f.Set(r, k, fv)
				st.g.Set(r, k, gv)
				st.o.Set(r, k, ov)
				st.tc.Set(r, k, tc)
				cNext.Set(r, k, cv)
				hNext.Set(r, k, ov*tc)
			}
		}
		tp.steps[t] = st
		h, c = hNext, cNext
	}

	if mask != nil {
		h.MulElem(h, mask)
	}
	tp.hLast = h

	var y mat.Dense
	y.Mul(h, n.Wd)
	bd := n.Bd.RawRowView(0)
	for r := 0; r < bsz; r++ {
		row := y.RawRowView(r)
		for k := range row {
			row[k] += bd[k]
		}
	}
	return &y, tp
}

// backward returns gradients in the order of params given dL/dy.
func (n *Network) backward(tp *tape, dy *mat.Dense) []*mat.Dense {
	H := n.Units
	bsz, _ := dy.Dims()

	dW := mat.NewDense(n.Inputs, 4*H, nil)
	dU := mat.NewDense(H, 4*H, nil)
	dB := mat.NewDense(1, 4*H, nil)
	dWd := mat.NewDense(H, n.Outputs, nil)
	dBd := mat.NewDense(1, n.Outputs, nil)

	dWd.Mul(tp.hLast.T(), dy)
	addColumnSums(dBd, dy)

	dh := mat.NewDense(bsz, H, nil)
	dh.Mul(dy, n.Wd.T())
	if tp.mask != nil {
		dh.MulElem(dh, tp.mask)
	}
	dc := mat.NewDense(bsz, H, nil)

	var tmp mat.Dense
	for t := len(tp.steps) - 1; t >= 0; t-- {
		st := tp.steps[t]
		dz := mat.NewDense(bsz, 4*H, nil)
		dcPrev := mat.NewDense(bsz, H, nil)
		for r := 0; r < bsz; r++ {
			row := dz.RawRowView(r)
			for k := 0; k < H; k++ {
				iv, fv, gv, ov := st.i.At(r, k), st.f.At(r, k), st.g.At(r, k), st.o.At(r, k)
				tc := st.tc.At(r, k)
				dhv := dh.At(r, k)

				dcv := dc.At(r, k) + dhv*ov*n.Activation.deriv(tc)
				row[k] = dcv * gv * iv * (1 - iv)
				row[H+k] = dcv * st.cPrev.At(r, k) * fv * (1 - fv)
				row[2*H+k] = dcv * iv * n.Activation.deriv(gv)
				row[3*H+k] = dhv * tc * ov * (1 - ov)
				dcPrev.Set(r, k, dcv*fv)
			}
		}

		tmp.Reset()
		tmp.Mul(st.x.T(), dz)
		dW.Add(dW, &tmp)
		tmp.Reset()
		tmp.Mul(st.hPrev.T(), dz)
		dU.Add(dU, &tmp)
		addColumnSums(dB, dz)

		dh = mat.NewDense(bsz, H, nil)
		dh.Mul(dz, n.U.T())
		dc = dcPrev
	}
	return []*mat.Dense{dW, dU, dB, dWd, dBd}
}

func addColumnSums(dst *mat.Dense, m *mat.Dense) {
	rows, cols := m.Dims()
	out := dst.RawRowView(0)
	for r := 0; r < rows; r++ {
		row := m.RawRowView(r)
		for k := 0; k < cols; k++ {
			out[k] += row[k]
		}
	}
}

// mseGrad returns the mean squared error over every element and its
// gradient with respect to y.
func mseGrad(y *mat.Dense, target [][]float64) (float64, *mat.Dense) {
	rows, cols := y.Dims()
	grad := mat.NewDense(rows, cols, nil)
	total := float64(rows * cols)
	loss := 0.0
	for r := 0; r < rows; r++ {
		for k := 0; k < cols; k++ {
			diff := y.At(r, k) - target[r][k]
			loss += diff * diff
			grad.Set(r, k, 2*diff/total)
		}
	}
	return loss / total, grad
}

// Predict runs the network on windows without dropout.
func (n *Network) Predict(windows [][][]float64) [][]float64 {
	if len(windows) == 0 {
		return nil
	}
	y, _ := n.forward(windows, nil)
	rows, _ := y.Dims()
	out := make([][]float64, rows)
	for r := range out {
		out[r] = append([]float64(nil), y.RawRowView(r)...)
	}
	return out
}

// PredictStep predicts the row following one window.
func (n *Network) PredictStep(window [][]float64) ([]float64, error) {
	if len(window) == 0 {
		return nil, fmt.Errorf("empty window")
	}
	for i, row := range window {
		if len(row) != n.Inputs {
			return nil, fmt.Errorf("window row %d has %d values, want %d", i, len(row), n.Inputs)
		}
	}
	return n.Predict([][][]float64{window})[0], nil
}
