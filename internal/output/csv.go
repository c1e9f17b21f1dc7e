package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/torosent/pulsehammer/internal/metrics"
)

// WriteCSV writes the report as metric,value rows.
func WriteCSV(w io.Writer, report metrics.Report) error {
	cw := csv.NewWriter(w)

	rows := [][]string{
		{"metric", "value"},
		{"run_id", report.RunID},
		{"workers", strconv.Itoa(report.Workers)},
		{"total_requests", strconv.FormatInt(report.Total, 10)},
		{"successful", strconv.FormatInt(report.Succeeded, 10)},
		{"failed", strconv.FormatInt(report.Failed, 10)},
		{"success_rate", formatFloat(report.SuccessRate)},
		{"duration_ms", formatFloat(report.DurationMs)},
		{"requests_per_sec", formatFloat(report.Throughput)},
		{"total_bytes", strconv.FormatInt(report.TotalBytes, 10)},
		{"bytes_per_sec", formatFloat(report.TransferRate)},
		{"min_latency_ms", formatFloat(report.MinLatencyMs)},
		{"max_latency_ms", formatFloat(report.MaxLatencyMs)},
		{"mean_latency_ms", formatFloat(report.MeanLatencyMs)},
		{"median_latency_ms", formatFloat(report.MedianLatencyMs)},
		{"stdev_latency_ms", formatFloat(report.StdevLatencyMs)},
		{"p50_latency_ms", formatFloat(report.P50LatencyMs)},
		{"p90_latency_ms", formatFloat(report.P90LatencyMs)},
		{"p95_latency_ms", formatFloat(report.P95LatencyMs)},
		{"p99_latency_ms", formatFloat(report.P99LatencyMs)},
	}
	for _, code := range sortedKeys(report.StatusCounts) {
		rows = append(rows, []string{"status_" + code, strconv.FormatInt(report.StatusCounts[code], 10)})
	}
	for _, kind := range sortedKeys(report.ErrorKindCounts) {
		rows = append(rows, []string{"error_" + kind, strconv.FormatInt(report.ErrorKindCounts[kind], 10)})
	}

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// SaveCSV writes the report to a file, creating or truncating it.
func SaveCSV(path string, report metrics.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, report); err != nil {
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
