package analytics

import "fmt"

const (
	// MaxAnomalies caps the anomaly list kept in a view.
	MaxAnomalies = 100
	// DisplayAnomalies caps the rows shown in tables and reports.
	DisplayAnomalies = 50
	// ReportChannels caps the channel rows shown in a report.
	ReportChannels = 10
)

// AnomalyPage returns the rows to display and the total received.
func AnomalyPage(list []Anomaly) (shown []Anomaly, total int) {
	total = len(list)
	shown = list
	if total > DisplayAnomalies {
		shown = list[:DisplayAnomalies]
	}
	return shown, total
}

// ShowingCaption describes a truncated table, e.g. "showing 50 of 100".
// It is empty when nothing was left out.
func ShowingCaption(shown, total int) string {
	if shown >= total {
		return ""
	}
	return fmt.Sprintf("showing %d of %d", shown, total)
}

// TopChannels returns at most n channels in backend order.
func TopChannels(list []ChannelStat, n int) []ChannelStat {
	if len(list) > n {
		return list[:n]
	}
	return list
}
