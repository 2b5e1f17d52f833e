package automatic

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"gopkg.in/yaml.v3"

	"github.com/domino14/blockgrid/stats"
)

// ReadLog decodes every game record in an autoplay log.
func ReadLog(r io.Reader) ([]GameRecord, error) {
	dec := yaml.NewDecoder(r)
	var records []GameRecord
	for {
		var rec GameRecord
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// AnalyzeLogFile reads an autoplay log and summarizes it.
func AnalyzeLogFile(filepath string) (string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	records, err := ReadLog(file)
	if err != nil {
		return "", err
	}
	return Summarize(records), nil
}

// Summarize reports hand count and score statistics over a set of games,
// with a histogram of scores.
func Summarize(records []GameRecord) string {
	var ss strings.Builder
	if len(records) == 0 {
		return "No games played.\n"
	}
	hands := &stats.Statistic{}
	scores := &stats.Statistic{}
	lines := &stats.Statistic{}
	truncated := 0
	scoreData := make([]float64, 0, len(records))
	for _, rec := range records {
		hands.Push(float64(rec.Hands))
		scores.Push(float64(rec.Score))
		lines.Push(float64(rec.LinesCleared))
		scoreData = append(scoreData, float64(rec.Score))
		if rec.Truncated {
			truncated++
		}
	}
	lo, hi := scores.ConfidenceInterval(95)
	q := stats.Quantiles(scoreData, 0.1, 0.5, 0.9)

	fmt.Fprintf(&ss, "Games played: %d (%d stopped at the hand limit)\n", len(records), truncated)
	fmt.Fprintf(&ss, "Hands:  %s\n", hands)
	fmt.Fprintf(&ss, "Lines:  %s\n", lines)
	fmt.Fprintf(&ss, "Score:  %s\n", scores)
	fmt.Fprintf(&ss, "Score 95%% CI: [%.2f, %.2f]\n", lo, hi)
	fmt.Fprintf(&ss, "Score p10/p50/p90: %.0f / %.0f / %.0f\n", q[0], q[1], q[2])
	if scores.Min() < scores.Max() {
		ss.WriteString("Score histogram:\n")
		h := histogram.Hist(10, scoreData)
		if err := histogram.Fprint(&ss, h, histogram.Linear(40)); err != nil {
			fmt.Fprintf(&ss, "(histogram unavailable: %v)\n", err)
		}
	}
	return ss.String()
}
