package matrix

import "fmt"

// Admittance is the complex bus admittance matrix, stored as a flat
// row-major arena. Bus indices are 0-based.
type Admittance struct {
	n    int
	data []complex128
}

func NewAdmittance(n int) *Admittance {
	return &Admittance{
		n:    n,
		data: make([]complex128, n*n),
	}
}

func (y *Admittance) Size() int {
	return y.n
}

func (y *Admittance) At(i, j int) complex128 {
	return y.data[i*y.n+j]
}

func (y *Admittance) AddElement(i, j int, value complex128) {
	if i < 0 || j < 0 || i >= y.n || j >= y.n {
		fmt.Printf("Warning: Admittance index out of bounds (i=%d, j=%d, size=%d)\n", i, j, y.n)
		return
	}
	y.data[i*y.n+j] += value
}

// MulVec computes out = Y*v. Both slices must have length Size.
func (y *Admittance) MulVec(v, out []complex128) {
	if len(v) != y.n || len(out) != y.n {
		fmt.Printf("Warning: Admittance vector length mismatch (v=%d, out=%d, size=%d)\n", len(v), len(out), y.n)
		return
	}
	for i := 0; i < y.n; i++ {
		var sum complex128
		row := y.data[i*y.n : (i+1)*y.n]
		for j, yij := range row {
			if yij != 0 {
				sum += yij * v[j]
			}
		}
		out[i] = sum
	}
}
