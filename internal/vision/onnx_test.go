package vision

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreprocessCHWLayoutAndScaling(t *testing.T) {
	// 1x2 image: white pixel then black pixel.
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	img.Set(1, 0, color.RGBA{R: 0, G: 0, B: 0, A: 255})

	data := preprocessCHW(img, 2, 1)
	require.Len(t, data, 3*1*2)

	// Channel-major layout: R plane, then G, then B. White maps to 1,
	// black to -1.
	for ch := 0; ch < 3; ch++ {
		assert.InDelta(t, 1.0, data[ch*2+0], 1e-6)
		assert.InDelta(t, -1.0, data[ch*2+1], 1e-6)
	}
}

func TestResizeImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), A: 255})
		}
	}

	resized := resizeImage(img, 2, 2)
	bounds := resized.Bounds()
	assert.Equal(t, 2, bounds.Dx())
	assert.Equal(t, 2, bounds.Dy())
}

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	normalize(v)
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)
}

func TestNormalizeZeroVector(t *testing.T) {
	v := []float32{0, 0, 0}
	normalize(v)
	assert.Equal(t, []float32{0, 0, 0}, v)
}
