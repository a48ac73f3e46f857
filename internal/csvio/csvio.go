// Package csvio parses the batch task file. One row describes one account:
// its UUID, the keyword pool, how many articles to produce, and the tracker
// task ids to close once those articles are published.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"escriba/internal/core"
	"escriba/internal/logger"
)

const defaultTaskCount = 1

var requiredColumns = []string{"account_uuid", "kw", "task_count"}

// ParseFile reads and parses the batch CSV at path.
func ParseFile(path string) ([]core.CsvRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open batch file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

// Parse reads the batch CSV. The header must contain account_uuid, kw and
// task_count; tracker_task_ids and secondary_task_ids are optional. Rows
// without an account UUID or keywords are dropped with a warning, and a
// malformed task_count falls back to 1 instead of failing the batch.
func Parse(r io.Reader) ([]core.CsvRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("CSV is missing required columns: %s", strings.Join(missing, ", "))
	}

	var rows []core.CsvRow
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}

		row := core.CsvRow{
			AccountUUID:      cell(record, columns, "account_uuid"),
			Keywords:         cell(record, columns, "kw"),
			TaskCount:        parseTaskCount(cell(record, columns, "task_count")),
			TrackerTaskIDs:   splitIDs(cell(record, columns, "tracker_task_ids")),
			SecondaryTaskIDs: splitIDs(cell(record, columns, "secondary_task_ids")),
		}

		if row.AccountUUID == "" || row.Keywords == "" {
			logger.Warn("dropping CSV row without account or keywords", map[string]any{"line": line})
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func cell(record []string, columns map[string]int, name string) string {
	i, ok := columns[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseTaskCount(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return defaultTaskCount
	}
	return n
}

func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
