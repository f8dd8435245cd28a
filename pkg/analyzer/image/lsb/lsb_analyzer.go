package lsb

import (
	"math"

	"BehindThePicture/pkg/config"
	"BehindThePicture/pkg/models"
	"BehindThePicture/pkg/pixels"
)

// distribution holds the raw counters of one pass over a buffer
type distribution struct {
	ones       int
	zeros      int
	sequential int
	// per-channel histograms of byte values, used for the variance
	histograms [3][256]int
	pixels     int
}

// Detect scores buf for LSB steganography with the default thresholds
func Detect(buf *pixels.Buffer) (*models.DetectionReport, error) {
	return DetectWithThresholds(buf, config.DefaultDetectionThresholds())
}

// DetectWithThresholds scores buf for LSB steganography.
// The buffer is only read.
func DetectWithThresholds(buf *pixels.Buffer, t config.DetectionThresholds) (*models.DetectionReport, error) {
	if buf.Empty() {
		return nil, models.ErrMissingInput
	}

	dist := analyzeDistribution(buf)

	// Ratio of ones among the R, G, B LSBs and its distance from an even split
	lsbRatio := float64(dist.ones) / float64(dist.ones+dist.zeros)
	deviation := math.Abs(lsbRatio - 0.5)

	avgVariance := (histogramVariance(dist.histograms[0], dist.pixels) +
		histogramVariance(dist.histograms[1], dist.pixels) +
		histogramVariance(dist.histograms[2], dist.pixels)) / 3.0

	score := calculateSuspicionScore(t, deviation, dist.sequential, len(buf.Pix), avgVariance)
	likelihood, confidence := models.Classify(score)

	return &models.DetectionReport{
		Likelihood:          likelihood,
		Confidence:          confidence,
		SuspicionScore:      score,
		LSBOnesRatioPercent: round2(lsbRatio * 100),
		LSBDeviationPercent: round2(deviation * 100),
		SequentialPatterns:  dist.sequential,
		ChannelVarianceAvg:  round2(avgVariance),
		TotalPixels:         dist.pixels,
	}, nil
}

// analyzeDistribution counts R, G, B LSBs, neighbouring pixels whose LSB sums match,
// and the byte values of each channel
func analyzeDistribution(buf *pixels.Buffer) distribution {
	dist := distribution{pixels: buf.PixelCount()}

	prevSum := -1
	for p := 0; p < dist.pixels; p++ {
		base := p * pixels.BytesPerPixel
		sum := 0
		for c := 0; c < 3; c++ {
			v := buf.Pix[base+c]
			dist.histograms[c][v]++
			if v&1 == 1 {
				dist.ones++
				sum++
			} else {
				dist.zeros++
			}
		}

		if prevSum == sum {
			dist.sequential++
		}
		prevSum = sum
	}

	return dist
}

// calculateSuspicionScore combines the statistics into a 0-100 score
func calculateSuspicionScore(t config.DetectionThresholds, deviation float64, sequential, totalBytes int, avgVariance float64) int {
	score := 0.0

	// A ones ratio far from 50% means the LSB plane was overwritten with biased data
	if deviation > t.DeviationThreshold {
		score += (deviation - t.DeviationThreshold) * t.DeviationWeight
	}

	if float64(sequential) > float64(totalBytes)/t.SequentialDivisor {
		score += t.SequentialWeight
	}

	// Flat images have little room to hide bits; extreme variance is unusual for photos
	if avgVariance < t.LowVariance {
		score += t.LowVarianceWeight
	}
	if avgVariance > t.HighVariance {
		score += t.HighVarianceWeight
	}

	score = math.Floor(score)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return int(score)
}

// histogramVariance calculates the population variance of the values counted in hist
func histogramVariance(hist [256]int, n int) float64 {
	if n == 0 {
		return 0
	}

	// Calculate mean
	sum := 0.0
	for v, count := range hist {
		sum += float64(v * count)
	}
	mean := sum / float64(n)

	// Calculate variance
	varSum := 0.0
	for v, count := range hist {
		if count == 0 {
			continue
		}
		diff := float64(v) - mean
		varSum += diff * diff * float64(count)
	}

	return varSum / float64(n)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
