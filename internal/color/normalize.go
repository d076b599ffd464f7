package color

// Luma weights (ITU-R BT.601). They sum to 1.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Normalize rescales raw linearly so the black point maps to 0 and the white
// point to 1, clamping each channel into [0,1]. cal must have been validated.
func Normalize(raw RawColor, cal Calibration) Normalized {
	return Normalized{
		R: rescale(raw.R, cal.Black.R, cal.White.R),
		G: rescale(raw.G, cal.Black.G, cal.White.G),
		B: rescale(raw.B, cal.Black.B, cal.White.B),
	}
}

func rescale(v, black, white int) float64 {
	return clamp01(float64(v-black) / float64(white-black))
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Brightness returns the perceptual luma of n.
func Brightness(n Normalized) float64 {
	return lumaR*n.R + lumaG*n.G + lumaB*n.B
}
