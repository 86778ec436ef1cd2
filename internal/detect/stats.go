package detect

import "math"

// mean returns the arithmetic mean of a gray-channel buffer.
func mean(values []byte) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	return sum / float64(len(values))
}

// stddev returns the population standard deviation of a gray-channel
// buffer, given its precomputed mean.
func stddev(values []byte, m float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := float64(v) - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// laplacianVariance computes the variance of the 3x3 Laplacian response
// over a grayscale image — the classic focus/blur measure: sharp edges
// produce a high-variance Laplacian, blur flattens it.
func laplacianVariance(gray []byte, width, height int) float64 {
	if width < 3 || height < 3 {
		return 0
	}
	responses := make([]float64, 0, (width-2)*(height-2))
	at := func(x, y int) float64 { return float64(gray[y*width+x]) }
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			lap := -4*at(x, y) + at(x-1, y) + at(x+1, y) + at(x, y-1) + at(x, y+1)
			responses = append(responses, lap)
		}
	}
	var sum float64
	for _, r := range responses {
		sum += r
	}
	m := sum / float64(len(responses))
	var varSum float64
	for _, r := range responses {
		d := r - m
		varSum += d * d
	}
	return varSum / float64(len(responses))
}

// sobelMeanGradient computes the mean Sobel gradient magnitude, used by the
// deep blur feature blend alongside the Laplacian variance.
func sobelMeanGradient(gray []byte, width, height int) float64 {
	if width < 3 || height < 3 {
		return 0
	}
	at := func(x, y int) float64 { return float64(gray[y*width+x]) }
	var sum float64
	var count int
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			gx := (at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)) -
				(at(x-1, y-1) + 2*at(x-1, y) + at(x-1, y+1))
			gy := (at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)) -
				(at(x-1, y-1) + 2*at(x, y-1) + at(x+1, y-1))
			sum += math.Hypot(gx, gy)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// brennerGradient computes the Brenner focus measure: mean of squared
// differences between pixels two columns apart.
func brennerGradient(gray []byte, width, height int) float64 {
	if width < 3 {
		return 0
	}
	var sum float64
	for y := 0; y < height; y++ {
		for x := 0; x < width-2; x++ {
			d := float64(gray[y*width+x+2]) - float64(gray[y*width+x])
			sum += d * d
		}
	}
	return sum / float64(height*(width-2))
}

// medianFilter3x3 returns a denoised copy of gray using a 3x3 median
// filter, with edge pixels passed through unchanged.
func medianFilter3x3(gray []byte, width, height int) []byte {
	out := make([]byte, len(gray))
	copy(out, gray)
	window := make([]byte, 9)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			idx := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					window[idx] = gray[(y+dy)*width+(x+dx)]
					idx++
				}
			}
			out[y*width+x] = medianOf9(window)
		}
	}
	return out
}

func medianOf9(w []byte) byte {
	var sorted [9]byte
	copy(sorted[:], w)
	for i := 1; i < len(sorted); i++ {
		key := sorted[i]
		j := i - 1
		for j >= 0 && sorted[j] > key {
			sorted[j+1] = sorted[j]
			j--
		}
		sorted[j+1] = key
	}
	return sorted[4]
}
