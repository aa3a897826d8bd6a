package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openclaw/qrstudio/qr"
)

func TestRunGenerateWritesFile(t *testing.T) {
	opts := qr.DefaultOptions()
	opts.Text = "https://example.com"
	opts.Format = qr.FormatPNG

	out := filepath.Join(t.TempDir(), "codes", "example.png")
	var buf bytes.Buffer
	if err := runGenerate(context.Background(), &buf, opts, out, false); err != nil {
		t.Fatalf("runGenerate: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("expected a PNG file")
	}
	if !strings.Contains(buf.String(), "240x240") {
		t.Errorf("unexpected summary %q", buf.String())
	}
}

func TestRunGenerateTerminal(t *testing.T) {
	opts := qr.DefaultOptions()
	opts.Text = "hello"

	var buf bytes.Buffer
	if err := runGenerate(context.Background(), &buf, opts, "", true); err != nil {
		t.Fatalf("runGenerate: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("expected terminal output")
	}
}

func TestRunGenerateEmptyText(t *testing.T) {
	err := runGenerate(context.Background(), &bytes.Buffer{}, qr.DefaultOptions(), "", false)
	if qr.CodeOf(err) != qr.CodeEmptyText {
		t.Errorf("expected EMPTY_TEXT, got %v", err)
	}
}
