package report

import "time"

// Report is the structured well-being assessment generated at the end of a
// conversation. The shape mirrors the JSON the model is instructed to emit.
type Report struct {
	ObservedPatterns    []string `json:"observedPatterns"`
	TentativeConditions []string `json:"tentativeConditions"`
	MoodScore           int      `json:"moodScore"`
	SentimentScore      int      `json:"sentimentScore"`
	KeyQuotes           []string `json:"keyQuotes"`
	Recommendations     []string `json:"recommendations"`
	AnalysisDate        string   `json:"analysisDate"` // ISO-8601
}

const fallbackRecommendation = "Consider speaking with a mental health professional for a fuller assessment."

// Fallback returns the degraded placeholder report installed whenever report
// synthesis fails. A completed generation attempt always leaves a valid
// report behind, so downstream consumers never have to handle absence.
func Fallback(now time.Time) *Report {
	return &Report{
		ObservedPatterns:    []string{},
		TentativeConditions: []string{},
		MoodScore:           5,
		SentimentScore:      5,
		KeyQuotes:           []string{},
		Recommendations:     []string{fallbackRecommendation},
		AnalysisDate:        now.UTC().Format(time.RFC3339),
	}
}

// GeneratedAt parses the analysis date, falling back to the current time when
// the model produced something unparseable.
func (r *Report) GeneratedAt() time.Time {
	if t, err := time.Parse(time.RFC3339, r.AnalysisDate); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", r.AnalysisDate); err == nil {
		return t
	}
	return time.Now().UTC()
}
