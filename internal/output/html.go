package output

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/torosent/pulsehammer/internal/metrics"
	"github.com/torosent/pulsehammer/internal/threshold"
)

// HTMLReportData contains all data needed for the HTML report template.
type HTMLReportData struct {
	GeneratedAt      string
	Report           metrics.Report
	Distribution     []DistributionRow
	ThresholdSummary *ThresholdSummary
	Metadata         ReportMetadata
}

// ReportMetadata describes the run configuration shown in the report header.
type ReportMetadata struct {
	TargetURL string
	Method    string
}

// ThresholdSummary aggregates threshold results for the report.
type ThresholdSummary struct {
	Total   int
	Passed  int
	Failed  int
	Results []threshold.Result
}

// DistributionRow is one quantile of the recorded latency distribution.
type DistributionRow struct {
	Quantile  float64
	LatencyMs float64
}

// GenerateHTMLReport writes a standalone HTML report.
func GenerateHTMLReport(w io.Writer, report metrics.Report, thresholdResults []threshold.Result, metadata ReportMetadata) error {
	var summary *ThresholdSummary
	if len(thresholdResults) > 0 {
		summary = &ThresholdSummary{
			Total:   len(thresholdResults),
			Results: thresholdResults,
		}
		for _, r := range thresholdResults {
			if r.Pass {
				summary.Passed++
			} else {
				summary.Failed++
			}
		}
	}

	data := HTMLReportData{
		GeneratedAt:      time.Now().Format(time.RFC3339),
		Report:           report,
		Distribution:     latencyDistribution(report.Latencies),
		ThresholdSummary: summary,
		Metadata:         metadata,
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatDuration": func(d time.Duration) string {
			return d.String()
		},
		"formatFloat": func(f float64) string {
			return fmt.Sprintf("%.2f", f)
		},
		"formatBytes": FormatBytes,
		"formatRate": func(v float64) string {
			return FormatBytes(int64(v)) + "/s"
		},
		"formatPercent": func(part, total int64) string {
			if total == 0 {
				return "0.0"
			}
			return fmt.Sprintf("%.1f", (float64(part)/float64(total))*100)
		},
		"sortedKeys": sortedKeys,
		"index64": func(m map[string]int64, k string) int64 {
			return m[k]
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("execute template: %w", err)
	}
	return nil
}

// SaveHTML writes the HTML report to a file.
func SaveHTML(path string, report metrics.Report, thresholdResults []threshold.Result, metadata ReportMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create html file: %w", err)
	}
	defer f.Close()

	if err := GenerateHTMLReport(f, report, thresholdResults, metadata); err != nil {
		return err
	}
	return f.Close()
}

// histogram bounds: 1µs floor, ten-minute ceiling, three significant figures.
const (
	histMinMicros = 1
	histMaxMicros = int64(10 * time.Minute / time.Microsecond)
)

// latencyDistribution condenses the latency sample into quantile rows for
// the report table. The histogram is display-only: headline percentiles stay
// exact because they come from the raw sorted sample.
func latencyDistribution(latencies []time.Duration) []DistributionRow {
	if len(latencies) == 0 {
		return nil
	}
	hist := hdrhistogram.New(histMinMicros, histMaxMicros, 3)
	for _, l := range latencies {
		v := int64(l / time.Microsecond)
		if v < histMinMicros {
			v = histMinMicros
		}
		if v > histMaxMicros {
			v = histMaxMicros
		}
		_ = hist.RecordValue(v)
	}

	quantiles := []float64{10, 25, 50, 75, 90, 95, 99, 99.9, 100}
	rows := make([]DistributionRow, 0, len(quantiles))
	for _, q := range quantiles {
		rows = append(rows, DistributionRow{
			Quantile:  q,
			LatencyMs: float64(hist.ValueAtQuantile(q)) / 1000,
		})
	}
	return rows
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Pulsehammer Load Test Report</title>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: #f5f7fa;
            color: #2c3e50;
            line-height: 1.6;
            padding: 20px;
        }
        .container {
            max-width: 1200px;
            margin: 0 auto;
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 8px rgba(0,0,0,0.1);
            overflow: hidden;
        }
        header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 30px 40px;
        }
        header h1 {
            font-size: 2rem;
            margin-bottom: 10px;
        }
        header .meta {
            opacity: 0.9;
            font-size: 0.9rem;
        }
        .content {
            padding: 40px;
        }
        .grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(220px, 1fr));
            gap: 20px;
            margin-bottom: 40px;
        }
        .card {
            background: #f8f9fa;
            border-radius: 8px;
            padding: 20px;
            border-left: 4px solid #667eea;
        }
        .card h3 {
            font-size: 0.9rem;
            color: #6c757d;
            text-transform: uppercase;
            letter-spacing: 0.5px;
            margin-bottom: 10px;
        }
        .card .value {
            font-size: 2rem;
            font-weight: bold;
            color: #2c3e50;
        }
        .card .subvalue {
            font-size: 0.85rem;
            color: #6c757d;
            margin-top: 5px;
        }
        .card.success {
            border-left-color: #10b981;
        }
        .card.error {
            border-left-color: #ef4444;
        }
        .section {
            margin-bottom: 40px;
        }
        .section h2 {
            font-size: 1.5rem;
            margin-bottom: 20px;
            padding-bottom: 10px;
            border-bottom: 2px solid #e5e7eb;
        }
        table {
            width: 100%;
            border-collapse: collapse;
            background: white;
        }
        th, td {
            text-align: left;
            padding: 12px;
            border-bottom: 1px solid #e5e7eb;
        }
        th {
            background: #f8f9fa;
            font-weight: 600;
            color: #4b5563;
            font-size: 0.9rem;
            text-transform: uppercase;
            letter-spacing: 0.5px;
        }
        tr:hover {
            background: #f8f9fa;
        }
        .badge {
            display: inline-block;
            padding: 4px 12px;
            border-radius: 12px;
            font-size: 0.85rem;
            font-weight: 600;
        }
        .badge-success {
            background: #d1fae5;
            color: #065f46;
        }
        .badge-error {
            background: #fee2e2;
            color: #991b1b;
        }
        .latency-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(140px, 1fr));
            gap: 15px;
            margin-top: 20px;
        }
        .latency-item {
            background: #f8f9fa;
            padding: 15px;
            border-radius: 6px;
            text-align: center;
        }
        .latency-item .label {
            font-size: 0.85rem;
            color: #6c757d;
            margin-bottom: 5px;
        }
        .latency-item .value {
            font-size: 1.3rem;
            font-weight: bold;
            color: #2c3e50;
        }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>⚡ Pulsehammer Load Test Report</h1>
            {{if .Metadata.TargetURL}}
            <div class="meta" style="margin-top: 5px;">Target: {{.Metadata.Method}} <a href="{{.Metadata.TargetURL}}" style="color: white; text-decoration: underline;">{{.Metadata.TargetURL}}</a></div>
            {{end}}
            <div class="meta">Generated: {{.GeneratedAt}} | Run ID: {{.Report.RunID}} | Workers: {{.Report.Workers}} | Duration: {{formatDuration .Report.Duration}}</div>
        </header>

        <div class="content">
            <div class="grid">
                <div class="card">
                    <h3>Total Requests</h3>
                    <div class="value">{{.Report.Total}}</div>
                </div>
                <div class="card success">
                    <h3>Successful</h3>
                    <div class="value">{{.Report.Succeeded}}</div>
                    <div class="subvalue">{{formatPercent .Report.Succeeded .Report.Total}}%</div>
                </div>
                <div class="card error">
                    <h3>Failed</h3>
                    <div class="value">{{.Report.Failed}}</div>
                    <div class="subvalue">{{formatPercent .Report.Failed .Report.Total}}%</div>
                </div>
                <div class="card">
                    <h3>Requests/sec</h3>
                    <div class="value">{{formatFloat .Report.Throughput}}</div>
                </div>
                <div class="card">
                    <h3>Data Transferred</h3>
                    <div class="value">{{formatBytes .Report.TotalBytes}}</div>
                    <div class="subvalue">{{formatRate .Report.TransferRate}}</div>
                </div>
            </div>

            <div class="section">
                <h2>Latency Statistics</h2>
                <div class="latency-grid">
                    <div class="latency-item">
                        <div class="label">Min</div>
                        <div class="value">{{formatDuration .Report.MinLatency}}</div>
                    </div>
                    <div class="latency-item">
                        <div class="label">Max</div>
                        <div class="value">{{formatDuration .Report.MaxLatency}}</div>
                    </div>
                    <div class="latency-item">
                        <div class="label">Mean</div>
                        <div class="value">{{formatDuration .Report.MeanLatency}}</div>
                    </div>
                    <div class="latency-item">
                        <div class="label">Median</div>
                        <div class="value">{{formatDuration .Report.MedianLatency}}</div>
                    </div>
                    <div class="latency-item">
                        <div class="label">Stdev</div>
                        <div class="value">{{formatDuration .Report.StdevLatency}}</div>
                    </div>
                    <div class="latency-item">
                        <div class="label">P50</div>
                        <div class="value">{{formatDuration .Report.P50Latency}}</div>
                    </div>
                    <div class="latency-item">
                        <div class="label">P90</div>
                        <div class="value">{{formatDuration .Report.P90Latency}}</div>
                    </div>
                    <div class="latency-item">
                        <div class="label">P95</div>
                        <div class="value">{{formatDuration .Report.P95Latency}}</div>
                    </div>
                    <div class="latency-item">
                        <div class="label">P99</div>
                        <div class="value">{{formatDuration .Report.P99Latency}}</div>
                    </div>
                </div>
            </div>

            {{if .Distribution}}
            <div class="section">
                <h2>Latency Distribution</h2>
                <table>
                    <thead>
                        <tr>
                            <th>Quantile</th>
                            <th>Latency (ms)</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .Distribution}}
                        <tr>
                            <td>{{.Quantile}}%</td>
                            <td>{{formatFloat .LatencyMs}}</td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}

            {{if .ThresholdSummary}}
            <div class="section">
                <h2>Thresholds ({{.ThresholdSummary.Passed}}/{{.ThresholdSummary.Total}} Passed)</h2>
                <table>
                    <thead>
                        <tr>
                            <th>Threshold</th>
                            <th>Actual</th>
                            <th>Status</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .ThresholdSummary.Results}}
                        <tr>
                            <td>{{.Threshold.Raw}}</td>
                            <td>{{formatFloat .Actual}}</td>
                            <td>
                                {{if .Pass}}
                                <span class="badge badge-success">✓ PASS</span>
                                {{else}}
                                <span class="badge badge-error">✗ FAIL</span>
                                {{end}}
                            </td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}

            {{if .Report.StatusCounts}}
            <div class="section">
                <h2>Status Codes</h2>
                <table>
                    <thead>
                        <tr>
                            <th>Status</th>
                            <th>Count</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range $code := sortedKeys .Report.StatusCounts}}
                        <tr>
                            <td>{{$code}}</td>
                            <td>{{index64 $.Report.StatusCounts $code}}</td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}

            {{if .Report.ErrorKindCounts}}
            <div class="section">
                <h2>Error Types</h2>
                <table>
                    <thead>
                        <tr>
                            <th>Error</th>
                            <th>Count</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range $kind := sortedKeys .Report.ErrorKindCounts}}
                        <tr>
                            <td>{{$kind}}</td>
                            <td>{{index64 $.Report.ErrorKindCounts $kind}}</td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}
        </div>
    </div>
</body>
</html>
`
