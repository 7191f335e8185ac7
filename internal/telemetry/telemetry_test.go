// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestNewLogger(t *testing.T) {
	tt := []struct {
		name    string
		level   string
		wantErr bool
		debug   bool
	}{
		{name: "info", level: "INFO"},
		{name: "lowercase debug", level: "debug", debug: true},
		{name: "offset", level: "WARN+2"},
		{name: "garbage", level: "loud", wantErr: true},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := NewLogger(&buf, tc.level)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			logger.Debug("probe")
			if got := buf.Len() > 0; got != tc.debug {
				t.Errorf("debug written = %v, want %v", got, tc.debug)
			}
		})
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "INFO")
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hello", "guest", "John Doe")
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("not json: %v", err)
	}
	if entry["msg"] != "hello" || entry["guest"] != "John Doe" {
		t.Errorf("unexpected entry %v", entry)
	}
}

func TestSetupOTLP_Disabled(t *testing.T) {
	shutdown, err := SetupOTLP(context.Background(), "", "checkin")
	if err != nil {
		t.Fatal(err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Error(err)
	}
}
