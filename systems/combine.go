package systems

import "gonum.org/v1/gonum/blas/blas32"

// Combine recomputes every population's sensed signal as the
// attraction-weighted sum of all populations' trails:
//
//	bufs[i] = Σ_j table[i][j] · datas[j]
//
// bufs and datas are indexed in lockstep. Each bufs[i] is written only by its
// own CombineField call and datas are only read, so calls for different i
// may run concurrently.
func Combine(bufs, datas [][]float32, table AttractionTable) {
	for i := range bufs {
		CombineField(bufs[i], datas, table[i])
	}
}

// CombineField writes Σ_j weights[j] · datas[j] into dst.
func CombineField(dst []float32, datas [][]float32, weights []float32) {
	clear(dst)
	y := blas32.Vector{N: len(dst), Inc: 1, Data: dst}
	for j, src := range datas {
		blas32.Axpy(weights[j], blas32.Vector{N: len(src), Inc: 1, Data: src}, y)
	}
}
