package models

// Likelihood is the categorical verdict derived from a suspicion score
type Likelihood string

const (
	VeryLikely Likelihood = "Very Likely"
	Likely     Likelihood = "Likely"
	Possible   Likelihood = "Possible"
	Unlikely   Likelihood = "Unlikely"
	Clean      Likelihood = "Clean"
)

// ConfidenceClass is the categorical confidence attached to a Likelihood
type ConfidenceClass string

const (
	HighConfidence   ConfidenceClass = "High"
	MediumConfidence ConfidenceClass = "Medium"
	LowConfidence    ConfidenceClass = "Low"
)

// DetectionReport is the outcome of one LSB steganalysis pass over a pixel buffer.
// Ratios are expressed in percent.
type DetectionReport struct {
	Likelihood          Likelihood      `json:"likelihood"`
	Confidence          ConfidenceClass `json:"confidence"`
	SuspicionScore      int             `json:"suspicionScore"`
	LSBOnesRatioPercent float64         `json:"lsbRatio"`
	LSBDeviationPercent float64         `json:"lsbDeviation"`
	SequentialPatterns  int             `json:"sequentialPatterns"`
	ChannelVarianceAvg  float64         `json:"variance"`
	TotalPixels         int             `json:"totalPixels"`
}

// Classify maps a 0-100 suspicion score to its likelihood and confidence labels
func Classify(score int) (Likelihood, ConfidenceClass) {
	switch {
	case score > 70:
		return VeryLikely, HighConfidence
	case score > 50:
		return Likely, MediumConfidence
	case score > 30:
		return Possible, LowConfidence
	case score > 15:
		return Unlikely, MediumConfidence
	default:
		return Clean, HighConfidence
	}
}
