// Copyright 2026 The Reelstore Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewCommandLogger_AutoPicksJSONWhenPiped(t *testing.T) {
	var buffer bytes.Buffer
	logger, err := NewCommandLogger(&buffer, "info", "auto")
	if err != nil {
		t.Fatalf("NewCommandLogger: %v", err)
	}
	logger.Info("uploaded", "content_id", "cid_x")

	var line map[string]any
	if err := json.Unmarshal(buffer.Bytes(), &line); err != nil {
		t.Fatalf("expected a JSON line, got %q: %v", buffer.String(), err)
	}
	if line["content_id"] != "cid_x" {
		t.Errorf("content_id = %v", line["content_id"])
	}
}

func TestNewCommandLogger_TextAndLevel(t *testing.T) {
	var buffer bytes.Buffer
	logger, err := NewCommandLogger(&buffer, "warn", "text")
	if err != nil {
		t.Fatalf("NewCommandLogger: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	output := buffer.String()
	if strings.Contains(output, "hidden") {
		t.Errorf("info line written at warn level: %q", output)
	}
	if !strings.Contains(output, "key=value") {
		t.Errorf("expected text handler output, got %q", output)
	}
}

func TestNewCommandLogger_Rejects(t *testing.T) {
	var buffer bytes.Buffer
	if _, err := NewCommandLogger(&buffer, "loud", "text"); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := NewCommandLogger(&buffer, "info", "xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestWriteJSON_NilSlice(t *testing.T) {
	var buffer bytes.Buffer
	var records []string
	if err := WriteJSON(&buffer, records); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if got := strings.TrimSpace(buffer.String()); got != "[]" {
		t.Errorf("WriteJSON(nil slice) = %q, want []", got)
	}
}
