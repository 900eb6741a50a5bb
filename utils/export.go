package utils

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"coursepilot/services"
)

// PreviewCSV renders preview rows as CSV with a stable column set
func PreviewCSV(rows []services.PreviewRow) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"id", "name", "email", "role", "department", "team", "matched_via"}); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := []string{
			strconv.FormatUint(uint64(row.MemberID), 10),
			row.Name,
			row.Email,
			row.Role,
			row.Department,
			row.Team,
			row.MatchedVia,
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
