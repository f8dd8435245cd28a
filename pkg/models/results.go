package models

import (
	"time"
)

// AnalysisResult contains the results of a steganalysis run over one file
type AnalysisResult struct {
	FileType          string                 `json:"fileType"`
	Filename          string                 `json:"filename"`
	DetectionScore    float64                `json:"detectionScore"` // 0.0-1.0, the suspicion score scaled down from 0-100
	Confidence        float64                `json:"confidence"`     // 0.0-1.0 confidence in the detection score
	PossibleAlgorithm string                 `json:"possibleAlgorithm"`
	Report            *DetectionReport       `json:"report,omitempty"`
	Image             *ImageInfo             `json:"image,omitempty"`
	Details           map[string]interface{} `json:"details"`
	Findings          []Finding              `json:"findings"`
	Recommendations   []string               `json:"recommendations"`
	ExtractionHints   []ExtractionHint       `json:"extractionHints"`
	AnalysisTime      time.Time              `json:"analysisTime"`
	AnalysisDuration  time.Duration          `json:"analysisDuration"`
}

// Finding represents a specific detection or discovery during analysis
type Finding struct {
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"` // 0.0-1.0
	Details     string  `json:"details"`
}

// ExtractionHint provides guidance for data extraction
type ExtractionHint struct {
	Algorithm  string                 `json:"algorithm"`
	Confidence float64                `json:"confidence"`
	Parameters map[string]interface{} `json:"parameters"`
}

// ExtractionResult contains the results of a keyed extraction attempt
type ExtractionResult struct {
	Success   bool                   `json:"success"`
	FileType  string                 `json:"fileType"`
	Filename  string                 `json:"filename"`
	Algorithm string                 `json:"algorithm"`
	Message   string                 `json:"message"`
	DataSize  int                    `json:"dataSize"` // message length in characters
	Details   map[string]interface{} `json:"details"`
}

// EmbedResult describes a successful embedding
type EmbedResult struct {
	Mode          string  `json:"mode"`
	Label         string  `json:"label"`
	MessageLength int     `json:"messageLength"`
	EnvelopeBits  int     `json:"envelopeBits"`
	CapacityBits  int     `json:"capacityBits"`
	UsagePercent  float64 `json:"usagePercent"`
	OutputFile    string  `json:"outputFile,omitempty"`
	Status        string  `json:"status"`
}

// ImageInfo describes a decoded input image, as shown next to an upload preview
type ImageInfo struct {
	Name      string `json:"name"`
	Format    string `json:"format"`
	Size      int64  `json:"size"`
	HumanSize string `json:"humanSize"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// AddFinding adds a finding to the analysis result
func (r *AnalysisResult) AddFinding(description string, confidence float64, details string) {
	r.Findings = append(r.Findings, Finding{
		Description: description,
		Confidence:  confidence,
		Details:     details,
	})
}

// AddExtractionHint adds an extraction hint to the analysis result
func (r *AnalysisResult) AddExtractionHint(algorithm string, confidence float64, parameters map[string]interface{}) {
	r.ExtractionHints = append(r.ExtractionHints, ExtractionHint{
		Algorithm:  algorithm,
		Confidence: confidence,
		Parameters: parameters,
	})
}

// GetHighestConfidenceAlgorithm returns the extraction algorithm with highest confidence
func (r *AnalysisResult) GetHighestConfidenceAlgorithm() (string, float64, map[string]interface{}) {
	if len(r.ExtractionHints) == 0 {
		return "", 0.0, nil
	}

	best := r.ExtractionHints[0]
	for _, hint := range r.ExtractionHints {
		if hint.Confidence > best.Confidence {
			best = hint
		}
	}

	return best.Algorithm, best.Confidence, best.Parameters
}
