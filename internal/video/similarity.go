package video

import "github.com/rendiffdev/frameguard/internal/frame"

// globalSSIM computes a whole-frame structural similarity index between two
// equally sized grayscale frames. This is a simplified, single-window SSIM
// (mirroring how a full-frame ffmpeg ssim comparison yields one score per
// frame pair, rather than a sliding per-block computation); it is adequate
// for adjacent-sample freeze detection where the whole frame either holds
// still or it doesn't.
func globalSSIM(a, b *frame.Frame) float64 {
	const c1 = (0.01 * 255) * (0.01 * 255)
	const c2 = (0.03 * 255) * (0.03 * 255)

	n := float64(len(a.Pixels))
	if n == 0 || len(a.Pixels) != len(b.Pixels) {
		return 0
	}

	var sumA, sumB float64
	for i := range a.Pixels {
		sumA += float64(a.Pixels[i])
		sumB += float64(b.Pixels[i])
	}
	meanA := sumA / n
	meanB := sumB / n

	var varA, varB, covar float64
	for i := range a.Pixels {
		da := float64(a.Pixels[i]) - meanA
		db := float64(b.Pixels[i]) - meanB
		varA += da * da
		varB += db * db
		covar += da * db
	}
	varA /= n
	varB /= n
	covar /= n

	numerator := (2*meanA*meanB + c1) * (2*covar + c2)
	denominator := (meanA*meanA + meanB*meanB + c1) * (varA + varB + c2)
	if denominator == 0 {
		return 1
	}
	return numerator / denominator
}

// meanAbsoluteDifference computes the MAD between two equally sized
// grayscale frames' pixel buffers.
func meanAbsoluteDifference(a, b *frame.Frame) float64 {
	n := len(a.Pixels)
	if n == 0 || n != len(b.Pixels) {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := int(a.Pixels[i]) - int(b.Pixels[i])
		if d < 0 {
			d = -d
		}
		sum += float64(d)
	}
	return sum / float64(n)
}

// edgeDensity returns the fraction of pixels whose Sobel gradient magnitude
// exceeds a fixed edge threshold, used by the scene-change detector.
func edgeDensity(gray *frame.Frame) float64 {
	const threshold = 40.0
	w, h := gray.Width, gray.Height
	if w < 3 || h < 3 {
		return 0
	}
	var edges, total float64
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := -int(gray.At(x-1, y-1)[0]) + int(gray.At(x+1, y-1)[0]) +
				-2*int(gray.At(x-1, y)[0]) + 2*int(gray.At(x+1, y)[0]) +
				-int(gray.At(x-1, y+1)[0]) + int(gray.At(x+1, y+1)[0])
			gy := -int(gray.At(x-1, y-1)[0]) - 2*int(gray.At(x, y-1)[0]) - int(gray.At(x+1, y-1)[0]) +
				int(gray.At(x-1, y+1)[0]) + 2*int(gray.At(x, y+1)[0]) + int(gray.At(x+1, y+1)[0])
			mag := absInt(gx) + absInt(gy)
			if float64(mag) > threshold {
				edges++
			}
			total++
		}
	}
	if total == 0 {
		return 0
	}
	return edges / total
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
