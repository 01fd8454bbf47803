package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mindhaven/companion/internal/report"
)

// fallbackFollowUp keeps the bot from going silent when a reply strips down
// to nothing.
const fallbackFollowUp = "I'm here with you. What's been on your mind?"

var replyPrefixes = []string{"Assistant:", "assistant:", "Bot:", "bot:", "Model:", "AI:"}

// CleanChatReply strips leading role-label artifacts and surrounding
// whitespace from generated chat text.
func CleanChatReply(raw string) string {
	text := strings.TrimSpace(raw)
	for _, prefix := range replyPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimSpace(strings.TrimPrefix(text, prefix))
			break
		}
	}
	if text == "" {
		return fallbackFollowUp
	}
	return text
}

// ParseReport parses model output as a well-being report. The text is
// untrusted: markdown fencing is tolerated, and anything that still fails to
// parse yields the degraded placeholder alongside the parse error. Scores
// are clamped into the 1-10 domain.
func ParseReport(raw string, now time.Time) (*report.Report, error) {
	text := stripFences(strings.TrimSpace(raw))

	var r report.Report
	if err := json.Unmarshal([]byte(text), &r); err != nil {
		return report.Fallback(now), fmt.Errorf("report JSON parse failed: %w", err)
	}

	r.MoodScore = clampScore(r.MoodScore)
	r.SentimentScore = clampScore(r.SentimentScore)
	if r.AnalysisDate == "" {
		r.AnalysisDate = now.UTC().Format(time.RFC3339)
	}
	return &r, nil
}

func clampScore(score int) int {
	if score < 1 {
		return 1
	}
	if score > 10 {
		return 10
	}
	return score
}

func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
