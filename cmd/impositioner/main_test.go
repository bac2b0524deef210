package main

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wudi/pdfimpose/coords"
	"github.com/wudi/pdfimpose/pdfdoc"
)

func samplePDF(t *testing.T, pages int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.pdf")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	opts := pdfdoc.SampleOptions{Pages: pages, Size: coords.Size{Width: 420, Height: 595}, Label: "a5"}
	if err := pdfdoc.Sample(context.Background(), f, opts); err != nil {
		t.Fatalf("sample: %v", err)
	}
	return path
}

func runArgs(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunImposes(t *testing.T) {
	in := samplePDF(t, 8)
	code, stdout, stderr := runArgs(t, "-v", in)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	out := filepath.Join(filepath.Dir(in), "booklet.in.pdf")
	if !strings.Contains(stdout, "Imposed PDF file saved to "+out) {
		t.Fatalf("stdout:\n%s", stdout)
	}
	for _, want := range []string{
		"Total input page:    8",
		"Total output page:   4",
		"Input size:        420x595",
		"Output size:       595x840",
		"Signature length:    8",
		"Signature count:     1",
		"Divider pages:       0",
	} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("summary missing %q:\n%s", want, stdout)
		}
	}
	doc, err := pdfdoc.OpenFile(context.Background(), out, pdfdoc.OpenOptions{})
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	if n := len(doc.Pages()); n != 4 {
		t.Fatalf("output pages = %d", n)
	}
}

func TestRunWritesPreviewAndReport(t *testing.T) {
	in := samplePDF(t, 5)
	dir := filepath.Dir(in)
	out := filepath.Join(dir, "out.pdf")
	pngPath := filepath.Join(dir, "sheets.png")
	mdPath := filepath.Join(dir, "report.md")
	htmlPath := filepath.Join(dir, "report.html")

	if code, _, stderr := runArgs(t, "-o", out, "-preview", pngPath, "-report", mdPath, "-f", "a4", in); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if code, _, stderr := runArgs(t, "-o", out, "-report", htmlPath, in); code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}

	f, err := os.Open(pngPath)
	if err != nil {
		t.Fatalf("open preview: %v", err)
	}
	defer f.Close()
	if _, err := png.Decode(f); err != nil {
		t.Fatalf("decode preview: %v", err)
	}
	md, err := os.ReadFile(mdPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !bytes.Contains(md, []byte("| 1 | front | blank, 1 |")) || !bytes.Contains(md, []byte("(A4)")) {
		t.Fatalf("report:\n%s", md)
	}
	html, err := os.ReadFile(htmlPath)
	if err != nil {
		t.Fatalf("read html report: %v", err)
	}
	if !bytes.Contains(html, []byte("<table>")) {
		t.Fatalf("html report:\n%s", html)
	}
}

func TestRunExitCodes(t *testing.T) {
	in := samplePDF(t, 4)
	cases := []struct {
		name string
		args []string
		want int
	}{
		{"no input", nil, 2},
		{"unknown flag", []string{"-x", in}, 2},
		{"bad signature", []string{"-s", "6", in}, 2},
		{"bad pages per sheet", []string{"-n", "3", in}, 2},
		{"bad format", []string{"-f", "a11", in}, 2},
		{"bad edge", []string{"-b", "middle", in}, 2},
		{"missing file", []string{filepath.Join(t.TempDir(), "missing.pdf")}, 1},
		{"help", []string{"-h"}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if code, _, stderr := runArgs(t, tc.args...); code != tc.want {
				t.Fatalf("exit %d, want %d: %s", code, tc.want, stderr)
			}
		})
	}
}

func TestRunListsFormats(t *testing.T) {
	code, stdout, _ := runArgs(t, "-formats")
	if code != 0 || !strings.Contains(stdout, "Letter") || !strings.Contains(stdout, "A4") {
		t.Fatalf("exit %d:\n%s", code, stdout)
	}
	if code, stdout, _ := runArgs(t, "-version"); code != 0 || !strings.HasPrefix(stdout, "impositioner ") {
		t.Fatalf("exit %d: %q", code, stdout)
	}
}

func TestSignatureLengthFlag(t *testing.T) {
	for in, want := range map[int]int{-1: 0, -8: 0, 0: -1, 8: 8} {
		if got := signatureLength(in); got != want {
			t.Fatalf("signatureLength(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestWrap(t *testing.T) {
	lines := wrap("aaa bbb ccc dddd", 8)
	if strings.Join(lines, "|") != "aaa bbb|ccc dddd" {
		t.Fatalf("wrap = %q", lines)
	}
}
