package detect

import "math/cmplx"

// fft computes the discrete Fourier transform of in using a recursive
// radix-2 Cooley-Tukey algorithm. The input is zero-padded up to the next
// power of two.
func fft(in []float64) []complex128 {
	n := nextPowerOfTwo(len(in))
	buf := make([]complex128, n)
	for i, v := range in {
		buf[i] = complex(v, 0)
	}
	fftRecurse(buf)
	return buf
}

func fftRecurse(a []complex128) {
	n := len(a)
	if n <= 1 {
		return
	}
	even := make([]complex128, n/2)
	odd := make([]complex128, n/2)
	for i := 0; i < n/2; i++ {
		even[i] = a[2*i]
		odd[i] = a[2*i+1]
	}
	fftRecurse(even)
	fftRecurse(odd)
	for k := 0; k < n/2; k++ {
		t := cmplx.Rect(1, -2*3.141592653589793*float64(k)/float64(n)) * odd[k]
		a[k] = even[k] + t
		a[k+n/2] = even[k] - t
	}
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	if p == 0 {
		p = 1
	}
	return p
}

// spectrumPeakRatio returns the ratio of the largest non-DC magnitude to
// the mean magnitude of the spectrum — a high ratio indicates a dominant
// periodic component such as a stripe artifact.
func spectrumPeakRatio(in []float64) float64 {
	spec := fft(in)
	if len(spec) < 2 {
		return 0
	}
	mags := make([]float64, len(spec)/2)
	var sum float64
	var peak float64
	for i := 1; i < len(spec)/2; i++ { // skip DC (index 0)
		m := cmplx.Abs(spec[i])
		mags[i] = m
		sum += m
		if m > peak {
			peak = m
		}
	}
	meanMag := sum / float64(len(mags)-1)
	if meanMag < 1e-9 {
		return 0
	}
	return peak / meanMag
}
