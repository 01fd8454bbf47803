package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const exportHeader = "MENTAL HEALTH SUPPORT - WELL-BEING REPORT"

// Saver persists an exported report document. The HTTP layer streams the same
// bytes directly; a Saver is only involved when the service is configured to
// keep text copies on disk.
type Saver interface {
	Save(filename string, data []byte) error
}

// FileSaver writes exported reports into a fixed directory.
type FileSaver struct {
	Dir string
}

func NewFileSaver(dir string) *FileSaver {
	return &FileSaver{Dir: dir}
}

func (s *FileSaver) Save(filename string, data []byte) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(s.Dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}

// Filename returns the download name for a report generated at the given time.
func Filename(generatedAt time.Time) string {
	return fmt.Sprintf("mental-health-report-%s.txt", generatedAt.UTC().Format("2006-01-02"))
}

// Format renders a report as a flat UTF-8 text document. The layout is
// deterministic: header, timestamp, scores, then bulleted sections. The
// "Potential Conditions" section is included only when it has content; every
// other section is always present. Lines carry no trailing whitespace.
func Format(r *Report) string {
	var b strings.Builder

	b.WriteString(exportHeader + "\n")
	b.WriteString("Generated: " + r.AnalysisDate + "\n")
	b.WriteString("\n")
	fmt.Fprintf(&b, "Mood Score: %d/10\n", r.MoodScore)
	fmt.Fprintf(&b, "Sentiment Score: %d/10\n", r.SentimentScore)

	b.WriteString("\nObserved Patterns:\n")
	for _, p := range r.ObservedPatterns {
		b.WriteString("- " + p + "\n")
	}

	if len(r.TentativeConditions) > 0 {
		b.WriteString("\nPotential Conditions:\n")
		for _, c := range r.TentativeConditions {
			b.WriteString("- " + c + "\n")
		}
	}

	b.WriteString("\nKey Quotes:\n")
	for _, q := range r.KeyQuotes {
		b.WriteString("- \"" + q + "\"\n")
	}

	b.WriteString("\nRecommendations:\n")
	for _, rec := range r.Recommendations {
		b.WriteString("- " + rec + "\n")
	}

	return trimTrailingWhitespace(b.String())
}

// Export formats the report and hands it to the saver under the standard
// filename.
func Export(r *Report, saver Saver) error {
	return saver.Save(Filename(r.GeneratedAt()), []byte(Format(r)))
}

func trimTrailingWhitespace(doc string) string {
	lines := strings.Split(doc, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	out := strings.Join(lines, "\n")
	return strings.TrimRight(out, "\n") + "\n"
}
