package common

import "math"

// dctCos[k][n] = C(k) * cos((2n+1)*k*pi/16) / 2, with C(0) = 1/sqrt(2) and C(k>0) = 1.
// The product of a row and a column factor carries the 2/N normalization for N = 8.
var dctCos [8][8]float64

func init() {
	for k := 0; k < 8; k++ {
		ck := 1.0
		if k == 0 {
			ck = 1 / math.Sqrt2
		}
		for n := 0; n < 8; n++ {
			dctCos[k][n] = ck * math.Cos(float64((2*n+1)*k)*math.Pi/16) / 2
		}
	}
}

// ForwardDCT transforms 64 row-major samples (0-255) into 64 DCT coefficients.
// Samples are level shifted by -128 and results are rounded to the nearest integer.
func ForwardDCT(samples []int32) ([]int32, error) {
	if len(samples) != BlockSize {
		return nil, ErrBlockSize
	}
	var b Block
	copy(b[:], samples)
	FDCT(&b)
	return b[:], nil
}

// FDCT performs the level-shifted forward DCT in place on an 8x8 block.
func FDCT(b *Block) {
	var tmp [64]float64

	// Rows: tmp[y][u] = sum_x f(x,y) * c[u][x]
	for y := 0; y < 8; y++ {
		row := b[y*8 : y*8+8]
		for u := 0; u < 8; u++ {
			c := &dctCos[u]
			s := 0.0
			for x := 0; x < 8; x++ {
				s += float64(row[x]-128) * c[x]
			}
			tmp[y*8+u] = s
		}
	}

	// Columns: F[v][u] = sum_y tmp[y][u] * c[v][y]
	for u := 0; u < 8; u++ {
		for v := 0; v < 8; v++ {
			c := &dctCos[v]
			s := 0.0
			for y := 0; y < 8; y++ {
				s += tmp[y*8+u] * c[y]
			}
			b[v*8+u] = int32(math.Round(s))
		}
	}
}
