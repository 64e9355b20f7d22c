package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNewJSON_TagsServiceAndFiltersLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := NewJSON(&buf, slog.LevelInfo, "shopledger-api")
	logger.Debug("hidden")
	logger.Info("wallet opened", "owner_id", "abc")

	var rec map[string]any

	err := json.Unmarshal(buf.Bytes(), &rec)
	if err != nil {
		t.Fatalf("expected exactly one JSON record, got %q: %v", buf.String(), err)
	}

	if rec["service"] != "shopledger-api" {
		t.Fatalf("service attr: got %v", rec["service"])
	}

	if rec["msg"] != "wallet opened" || rec["owner_id"] != "abc" {
		t.Fatalf("unexpected record: %v", rec)
	}
}
