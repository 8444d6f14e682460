/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func lastJSONLine(t *testing.T, b []byte) map[string]any {
	t.Helper()
	scanner := bufio.NewScanner(bytes.NewReader(b))
	var last string
	for scanner.Scan() {
		if s := strings.TrimSpace(scanner.Text()); s != "" {
			last = s
		}
	}
	if last == "" {
		t.Fatalf("no log lines found")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("unmarshal json log: %v", err)
	}
	return m
}

func TestInitJSONCarriesStaticAndComponentAttrs(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() { Init(Options{Level: "error", Output: &bytes.Buffer{}}) })

	l := WithOperation(WithComponent("canvas"), "drag")
	l.Info("moved", slog.String("id", "c1"))

	m := lastJSONLine(t, buf.Bytes())
	if m["app"] != "wireframer" {
		t.Fatalf("missing app attr: %v", m["app"])
	}
	if _, ok := m["ver"].(string); !ok {
		t.Fatalf("missing ver attr")
	}
	if m["component"] != "canvas" || m["op"] != "drag" || m["msg"] != "moved" || m["id"] != "c1" {
		t.Fatalf("attrs mismatch: %v", m)
	}
}

func TestContextAttrsAreAppended(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "info", Format: "json", Output: &buf})
	t.Cleanup(func() { Init(Options{Level: "error", Output: &bytes.Buffer{}}) })

	ctx := WithWorkspace(context.Background(), "/tmp/ws")
	ctx = ContextWith(ctx, slog.String("screen", "IA-001"))
	L().InfoContext(ctx, "saved")

	m := lastJSONLine(t, buf.Bytes())
	if m["workspace"] != "/tmp/ws" || m["screen"] != "IA-001" {
		t.Fatalf("context attrs missing: %v", m)
	}
}

func TestFileLoggingWritesJSON(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "wf.log")
	Init(Options{Level: "info", Format: "console", File: fpath, Output: &bytes.Buffer{}})
	t.Cleanup(func() { Init(Options{Level: "error", Output: &bytes.Buffer{}}) })

	WithComponent("storage").Warn("fallback")
	time.Sleep(20 * time.Millisecond)

	b, err := os.ReadFile(fpath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	m := lastJSONLine(t, b)
	if m["component"] != "storage" || m["level"] != "WARN" {
		t.Fatalf("file log mismatch: %v", m)
	}
}

func TestFromEnvAndGetenv(t *testing.T) {
	t.Setenv("WF_LOG_LEVEL", "warn")
	t.Setenv("WF_LOG_FORMAT", "json")
	t.Setenv("WF_LOG_SOURCE", "true")
	t.Setenv("WF_LOG_FILE", "")

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}
	if v := getenv("WF_SOME_UNSET_VAR", "fallback"); v != "fallback" {
		t.Fatalf("getenv fallback failed: %q", v)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug, "WARN": slog.LevelWarn, "warning": slog.LevelWarn,
		"error": slog.LevelError, "": slog.LevelInfo, "nonsense": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in).Level(); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestConsoleHandler(t *testing.T) {
	var buf bytes.Buffer
	h := newConsoleHandler(&buf, slog.LevelWarn, false)

	ctx := context.Background()
	if h.Enabled(ctx, slog.LevelInfo) {
		t.Fatalf("info should not be enabled at warn level")
	}
	if !h.Enabled(ctx, slog.LevelError) {
		t.Fatalf("error should be enabled at warn level")
	}

	h2 := h.WithAttrs([]slog.Attr{slog.String("k", "v")}).WithGroup("grp")
	ts := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	r := slog.NewRecord(ts, slog.LevelError, "boom", 0)
	r.AddAttrs(slog.Int("n", 42), slog.Float64("zoom", 100), slog.Bool("ok", true), slog.String("name", "Home page"))
	if err := h2.Handle(ctx, r); err != nil {
		t.Fatalf("handle error: %v", err)
	}

	want := "2025-03-04T05:06:07Z ERR boom k=v grp.n=42 grp.zoom=100 grp.ok=true grp.name=\"Home page\"\n"
	if got := buf.String(); got != want {
		t.Fatalf("line mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestConsoleHandlerFlattensGroups(t *testing.T) {
	var buf bytes.Buffer
	slog.New(newConsoleHandler(&buf, slog.LevelInfo, false)).Info("drag",
		slog.Group("rect", slog.Float64("x", 1.5), slog.Float64("y", 2)))
	if out := buf.String(); !strings.Contains(out, " rect.x=1.5 rect.y=2") {
		t.Fatalf("group not flattened: %q", out)
	}
}

func TestMultiHandlerFanOut(t *testing.T) {
	var a, b bytes.Buffer
	h := multiHandler(
		slog.NewJSONHandler(&a, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	ctx := context.Background()
	if !h.Enabled(ctx, slog.LevelInfo) {
		t.Fatalf("multi should be enabled when any handler is")
	}
	slog.New(h).With("x", 1).WithGroup("g").Error("e")
	if a.Len() == 0 || b.Len() == 0 {
		t.Fatalf("expected both handlers to receive the record")
	}
}
