package reports

import (
	"encoding/csv"
	"io"
	"strconv"
)

// WriteDashboardCSV serialises the dashboard payload to CSV for the
// export endpoint.
func WriteDashboardCSV(w io.Writer, dash Dashboard) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Section", "Label", "Value"}); err != nil {
		return err
	}
	records := [][]string{
		{"summary", "Total Cases", strconv.Itoa(dash.TotalCases)},
		{"summary", "Open Cases", strconv.Itoa(dash.OpenCases)},
	}
	for _, e := range dash.ByStatus {
		records = append(records, []string{"status", e.Label, strconv.Itoa(e.Count)})
	}
	for _, e := range dash.ByType {
		records = append(records, []string{"type", e.Label, strconv.Itoa(e.Count)})
	}
	for _, e := range dash.ByPriority {
		records = append(records, []string{"priority", e.Label, strconv.Itoa(e.Count)})
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteTrendCSV emits the monthly case volume as CSV.
func WriteTrendCSV(w io.Writer, points []TrendPoint) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Period", "Opened", "Closed"}); err != nil {
		return err
	}
	for _, point := range points {
		if err := writer.Write([]string{
			point.Period,
			strconv.Itoa(point.Opened),
			strconv.Itoa(point.Closed),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
