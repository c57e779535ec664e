// Package vision holds the small amount of image math the pipeline needs:
// luma extraction and the Laplacian blur-variance sharpness score.
package vision

import (
	"image"
)

// Luma converts an image to an 8-bit grayscale plane using the standard
// library's grayscale model.
func Luma(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, img.At(x, y))
		}
	}
	return gray
}

// LaplacianVariance computes the variance of the 4-neighbour discrete
// Laplacian over the luma plane. Higher values indicate sharper images;
// a flat image scores zero. Border pixels are excluded from the stencil.
func LaplacianVariance(gray *image.Gray) float64 {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 3 || h < 3 {
		return 0
	}

	n := (w - 2) * (h - 2)
	var sum, sumSq float64
	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		for x := b.Min.X + 1; x < b.Max.X-1; x++ {
			c := float64(gray.GrayAt(x, y).Y)
			lap := float64(gray.GrayAt(x-1, y).Y) +
				float64(gray.GrayAt(x+1, y).Y) +
				float64(gray.GrayAt(x, y-1).Y) +
				float64(gray.GrayAt(x, y+1).Y) -
				4*c
			sum += lap
			sumSq += lap * lap
		}
	}

	mean := sum / float64(n)
	return sumSq/float64(n) - mean*mean
}

// Sharpness is the blur-variance score for an image: the Laplacian
// variance of its luma plane.
func Sharpness(img image.Image) float64 {
	return LaplacianVariance(Luma(img))
}
