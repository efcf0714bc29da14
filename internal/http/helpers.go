package http

import (
	"bytes"
	"encoding/json"

	"finboard/internal/core"
)

func encodeDashboard(report core.Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(toDashboardView(report)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
