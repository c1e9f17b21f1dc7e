// Package output renders a finished run: terminal report, JSON, CSV and
// HTML exports, plus the live progress line shown while workers run.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/torosent/pulsehammer/internal/metrics"
)

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, report metrics.Report) {
	fmt.Fprintln(w, "\n--- Load Test Results ---")
	if report.RunID != "" {
		fmt.Fprintf(w, "Run ID:            %s\n", report.RunID)
	}
	fmt.Fprintf(w, "Workers:           %d\n", report.Workers)
	fmt.Fprintf(w, "Total Requests:    %d\n", report.Total)
	fmt.Fprintf(w, "Successful:        %d (%.2f%%)\n", report.Succeeded, report.SuccessRate*100)
	fmt.Fprintf(w, "Failed:            %d\n", report.Failed)
	fmt.Fprintf(w, "Duration:          %s\n", report.Duration)
	fmt.Fprintf(w, "Requests/sec:      %.2f\n", report.Throughput)
	fmt.Fprintf(w, "Data Transferred:  %s\n", FormatBytes(report.TotalBytes))
	fmt.Fprintf(w, "Transfer Rate:     %s/s\n", FormatBytes(int64(report.TransferRate)))
	fmt.Fprintln(w, "\nLatency:")
	fmt.Fprintf(w, "  Min:             %s\n", report.MinLatency)
	fmt.Fprintf(w, "  Max:             %s\n", report.MaxLatency)
	fmt.Fprintf(w, "  Mean:            %s\n", report.MeanLatency)
	fmt.Fprintf(w, "  Median:          %s\n", report.MedianLatency)
	fmt.Fprintf(w, "  Stdev:           %s\n", report.StdevLatency)
	fmt.Fprintf(w, "  P50:             %s\n", report.P50Latency)
	fmt.Fprintf(w, "  P90:             %s\n", report.P90Latency)
	fmt.Fprintf(w, "  P95:             %s\n", report.P95Latency)
	fmt.Fprintf(w, "  P99:             %s\n", report.P99Latency)

	if len(report.StatusCounts) > 0 {
		fmt.Fprintln(w, "\nStatus Codes:")
		for _, code := range sortedKeys(report.StatusCounts) {
			fmt.Fprintf(w, "  %s: %d\n", code, report.StatusCounts[code])
		}
	}
	if len(report.ErrorKindCounts) > 0 {
		fmt.Fprintln(w, "\nError Types:")
		for _, kind := range sortedKeys(report.ErrorKindCounts) {
			fmt.Fprintf(w, "  %s: %d\n", kind, report.ErrorKindCounts[kind])
		}
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, report metrics.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// FormatBytes renders a byte count with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
