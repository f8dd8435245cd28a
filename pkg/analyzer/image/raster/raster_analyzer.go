package raster

import (
	"errors"
	"fmt"
	"image"
	"time"

	"BehindThePicture/pkg/analyzer"
	"BehindThePicture/pkg/analyzer/image/lsb"
	"BehindThePicture/pkg/config"
	extractlsb "BehindThePicture/pkg/extractor/image/lsb"
	"BehindThePicture/pkg/filehandler"
	"BehindThePicture/pkg/models"
	"BehindThePicture/pkg/pixels"
)

/*
Summary of this file and these functions:
- RasterAnalyzer implements the ImageAnalyzer interface for every raster format the filehandler can decode.
- Analyze loads the file, records its size and dimensions and hands the decoded image to AnalyzeImage.
- AnalyzeImage converts the image to a pixel buffer, runs the LSB detector and turns its report into findings.
- When a password is supplied with Extract set, a keyed extraction is attempted and its outcome recorded as a finding.
*/

// RasterAnalyzer implements analysis for lossless and lossy raster images
type RasterAnalyzer struct {
	analyzer.BaseAnalyzer
	thresholds config.DetectionThresholds
}

// NewRasterAnalyzer creates a new raster analyzer using the default thresholds
func NewRasterAnalyzer() *RasterAnalyzer {
	return NewRasterAnalyzerWithThresholds(config.DefaultDetectionThresholds())
}

// NewRasterAnalyzerWithThresholds creates a new raster analyzer scoring with t
func NewRasterAnalyzerWithThresholds(t config.DetectionThresholds) *RasterAnalyzer {
	return &RasterAnalyzer{
		BaseAnalyzer: analyzer.NewBaseAnalyzer(
			"Raster LSB Analyzer",
			"Scores the R, G, B least significant bits of raster images for embedded data",
			[]string{"png", "jpeg", "gif", "bmp", "tiff", "webp"},
		),
		thresholds: t,
	}
}

// Analyze performs analysis on an image file
func (a *RasterAnalyzer) Analyze(filePath string, options analyzer.AnalysisOptions) (*models.AnalysisResult, error) {
	start := time.Now()

	img, info, err := filehandler.LoadImage(filePath)
	if err != nil {
		return nil, err
	}

	result, err := a.AnalyzeImage(img, options)
	if err != nil {
		return nil, err
	}

	result.Filename = info.Name
	result.FileType = info.Format
	result.Image = info
	result.Details["file_size"] = info.HumanSize
	if info.Format == "jpeg" {
		result.AddFinding("Lossy format", 0.5,
			"JPEG compression rewrites low bits, so a keyed LSB payload would not survive re-encoding")
	}
	result.AnalysisTime = start
	result.AnalysisDuration = time.Since(start)

	return result, nil
}

// AnalyzeImage analyzes a decoded image
func (a *RasterAnalyzer) AnalyzeImage(img image.Image, options analyzer.AnalysisOptions) (*models.AnalysisResult, error) {
	if img == nil {
		return nil, errors.New("nil image provided")
	}
	start := time.Now()

	buf, err := pixels.FromImage(img)
	if err != nil {
		return nil, err
	}

	report, err := lsb.DetectWithThresholds(buf, a.thresholds)
	if err != nil {
		return nil, fmt.Errorf("LSB analysis failed: %w", err)
	}

	result := &models.AnalysisResult{
		FileType:        options.Format,
		DetectionScore:  float64(report.SuspicionScore) / 100,
		Confidence:      confidenceValue(report.Confidence),
		Report:          report,
		Findings:        []models.Finding{},
		Recommendations: []string{},
		Details: map[string]interface{}{
			"width":               buf.Width,
			"height":              buf.Height,
			"likelihood":          string(report.Likelihood),
			"suspicion_score":     report.SuspicionScore,
			"lsb_ratio":           report.LSBOnesRatioPercent,
			"lsb_deviation":       report.LSBDeviationPercent,
			"sequential_patterns": report.SequentialPatterns,
			"channel_variance":    report.ChannelVarianceAvg,
		},
		AnalysisTime: start,
	}

	a.addFindings(result, report)

	switch report.Likelihood {
	case models.VeryLikely, models.Likely:
		result.PossibleAlgorithm = "LSB Steganography"
		result.Recommendations = append(result.Recommendations,
			"Try a keyed extraction with the suspected password",
			"Compare against the original cover image if available")
		result.AddExtractionHint(extractlsb.Algorithm, result.DetectionScore, map[string]interface{}{
			"requires_password": true,
			"channels":          "rgb",
		})
	case models.Possible:
		result.Recommendations = append(result.Recommendations,
			"Run further analysis with specialized tools")
	}

	if options.Extract && options.Password != "" {
		a.tryExtraction(result, buf, options)
	}

	result.AnalysisDuration = time.Since(start)
	return result, nil
}

// addFindings records one finding per scoring rule that fired
func (a *RasterAnalyzer) addFindings(result *models.AnalysisResult, report *models.DetectionReport) {
	t := a.thresholds

	if report.LSBDeviationPercent > t.DeviationThreshold*100 {
		result.AddFinding("Skewed LSB distribution", 0.8,
			fmt.Sprintf("LSB ones ratio=%.2f%%, deviation=%.2f%% (>%.2f%% is suspicious)",
				report.LSBOnesRatioPercent, report.LSBDeviationPercent, t.DeviationThreshold*100))
	}

	if float64(report.SequentialPatterns) > float64(report.TotalPixels*pixels.BytesPerPixel)/t.SequentialDivisor {
		result.AddFinding("Repeated LSB parity between neighbouring pixels", 0.5,
			fmt.Sprintf("%d neighbouring pixel pairs share an LSB sum", report.SequentialPatterns))
	}

	if report.ChannelVarianceAvg < t.LowVariance {
		result.AddFinding("Very low colour variance", 0.4,
			fmt.Sprintf("Average channel variance=%.2f (<%.0f)", report.ChannelVarianceAvg, t.LowVariance))
	} else if report.ChannelVarianceAvg > t.HighVariance {
		result.AddFinding("Very high colour variance", 0.3,
			fmt.Sprintf("Average channel variance=%.2f (>%.0f)", report.ChannelVarianceAvg, t.HighVariance))
	}
}

// tryExtraction attempts to open a keyed payload and records the outcome
func (a *RasterAnalyzer) tryExtraction(result *models.AnalysisResult, buf *pixels.Buffer, options analyzer.AnalysisOptions) {
	message, err := extractlsb.ExtractWithLimit(buf, options.Password, options.MaxBits)
	if err != nil {
		result.Details["extraction_error"] = err.Error()
		return
	}

	result.AddFinding("Hidden message recovered", 1.0,
		fmt.Sprintf("%d characters recovered with the supplied password", len([]rune(message))))
	result.Details["extracted_message"] = message
	result.DetectionScore = 1.0
	result.PossibleAlgorithm = "LSB Steganography"
}

// confidenceValue maps a confidence class to the 0-1 scale of AnalysisResult
func confidenceValue(c models.ConfidenceClass) float64 {
	switch c {
	case models.HighConfidence:
		return 0.9
	case models.MediumConfidence:
		return 0.6
	default:
		return 0.3
	}
}
