package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log, closer, err := New(Options{Level: "warn", Format: "json"}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	defer closer.Close()

	log.Info("hidden")
	log.Warn("balance overridden", "user", "user-2")
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log is not one json record: %q", buf.String())
	}
	if rec["msg"] != "balance overridden" || rec["user"] != "user-2" {
		t.Errorf("record = %v", rec)
	}
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bkr.log")
	var buf bytes.Buffer
	log, closer, err := New(Options{File: path, MaxSizeMB: 1}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	log.Info("user logged in", "user", "user-1")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("fallback received %q", buf.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "user logged in") {
		t.Errorf("log file = %q", data)
	}
}

func TestNew_Errors(t *testing.T) {
	for _, opts := range []Options{{Level: "loud"}, {Format: "xml"}} {
		if _, _, err := New(opts, &bytes.Buffer{}); err == nil {
			t.Errorf("New(%+v) succeeded", opts)
		}
	}
}
