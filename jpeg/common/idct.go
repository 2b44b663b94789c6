package common

import "math"

// InverseDCT transforms 64 row-major DCT coefficients back into samples,
// adding the 128 level shift and clamping to [0,255].
func InverseDCT(coefs []int32) ([]int32, error) {
	if len(coefs) != BlockSize {
		return nil, ErrBlockSize
	}
	var b Block
	copy(b[:], coefs)
	var out [64]byte
	IDCT(&b, out[:], 8)

	res := make([]int32, BlockSize)
	for i, v := range out {
		res[i] = int32(v)
	}
	return res, nil
}

// IDCT performs the inverse DCT of b and writes the clamped 8x8 samples to out
// with the given row stride.
func IDCT(b *Block, out []byte, stride int) {
	// DC-only blocks are flat.
	flat := true
	for i := 1; i < BlockSize; i++ {
		if b[i] != 0 {
			flat = false
			break
		}
	}
	if flat {
		dc := ClampByte(int32(math.Round(float64(b[0])/8)) + 128)
		for y := 0; y < 8; y++ {
			row := out[y*stride : y*stride+8]
			for x := range row {
				row[x] = dc
			}
		}
		return
	}

	var tmp [64]float64

	// Columns: tmp[y][u] = sum_v F[v][u] * c[v][y]
	for u := 0; u < 8; u++ {
		for y := 0; y < 8; y++ {
			s := 0.0
			for v := 0; v < 8; v++ {
				s += float64(b[v*8+u]) * dctCos[v][y]
			}
			tmp[y*8+u] = s
		}
	}

	// Rows: f(x,y) = sum_u tmp[y][u] * c[u][x]
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			s := 0.0
			for u := 0; u < 8; u++ {
				s += tmp[y*8+u] * dctCos[u][x]
			}
			out[y*stride+x] = ClampByte(int32(math.Round(s)) + 128)
		}
	}
}
