// Package report writes a finished run to disk for the graphing layer: a
// JSON summary, one CSV per take and metric, and the annotated takes.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jsphweid/perfgrade/model"
	"github.com/jsphweid/perfgrade/take"
	"github.com/jsphweid/perfgrade/util"
)

const (
	SummaryFile = "summary.json"
	places      = 2
)

var metricHeader = []string{"Line number", "Ticks", "Millis", "Value", "Deviation (%)", "Space for barline"}

var unsafe = strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")

func fileName(takeName string, suffix string) string {
	return unsafe.Replace(takeName) + "_" + suffix + ".csv"
}

func format(v float64) string {
	return strconv.FormatFloat(util.Round(v, places), 'f', -1, 64)
}

// Rounded returns a copy of the metric with every value and deviation
// rounded for display.
func Rounded(m model.MetricResult) model.MetricResult {
	points := make([]model.DeviationPoint, len(m.Points))
	for i, p := range m.Points {
		p.Value = util.Round(p.Value, places)
		if p.Deviation != nil {
			d := util.Round(*p.Deviation, places)
			p.Deviation = &d
		}
		points[i] = p
	}
	m.Points = points
	m.Baseline = util.Round(m.Baseline, places)
	return m
}

// Round returns a copy of the report rounded for display.
func Round(rep *model.Report) model.Report {
	out := *rep
	out.Takes = make([]model.TakeReport, len(rep.Takes))
	for i, tr := range rep.Takes {
		if tr.Deviations != nil {
			d := *tr.Deviations
			for _, m := range d.Metrics() {
				*m = Rounded(*m)
			}
			tr.Deviations = &d
		}
		out.Takes[i] = tr
	}
	return out
}

// WriteJSON writes the rounded report as indented JSON.
func WriteJSON(path string, rep *model.Report) error {
	b, err := json.MarshalIndent(Round(rep), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return err
	}
	return f.Close()
}

func metricRecords(m model.MetricResult) [][]string {
	records := [][]string{metricHeader}
	for _, p := range m.Points {
		dev := ""
		if p.Deviation != nil {
			dev = format(*p.Deviation)
		}
		records = append(records, []string{
			strconv.Itoa(p.LineNumber),
			strconv.FormatInt(p.TimestampTicks, 10),
			format(p.TimestampMillis),
			format(p.Value),
			dev,
			format(p.BarlineSpacing),
		})
	}
	return records
}

func writeAnnotated(path string, tk model.Take) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := take.WriteAnnotated(f, tk); err != nil {
		return err
	}
	return f.Close()
}

// Write puts the report into dir and returns the paths it wrote. Metrics
// without data get no CSV.
func Write(dir string, rep *model.Report) ([]string, error) {
	if err := util.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	var written []string
	summary := filepath.Join(dir, SummaryFile)
	if err := WriteJSON(summary, rep); err != nil {
		return nil, fmt.Errorf("writing summary: %w", err)
	}
	written = append(written, summary)

	for _, tr := range rep.Takes {
		p := filepath.Join(dir, fileName(tr.Name, "annotated"))
		if err := writeAnnotated(p, tr.Alignment.Take); err != nil {
			return written, fmt.Errorf("writing annotated take %v: %w", tr.Name, err)
		}
		written = append(written, p)

		if tr.Deviations == nil {
			continue
		}
		for _, m := range tr.Deviations.Metrics() {
			if !m.Available {
				continue
			}
			p := filepath.Join(dir, fileName(tr.Name, string(m.Metric)))
			if err := writeCSV(p, metricRecords(*m)); err != nil {
				return written, fmt.Errorf("writing %v for %v: %w", m.Metric, tr.Name, err)
			}
			written = append(written, p)
		}
	}
	return written, nil
}
