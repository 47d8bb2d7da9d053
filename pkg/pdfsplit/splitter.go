// Package pdfsplit rasterizes multi-page PDFs into per-page images using
// the poppler utilities (pdfinfo, pdftoppm). The tools are consumed as
// external commands; if either is missing or exits non-zero the whole call
// fails with a ToolError. Per-page failure isolation begins at the vision
// layer, not here.
package pdfsplit

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	pageCountTool = "pdfinfo"
	renderTool    = "pdftoppm"
)

// ToolError reports a missing or failed external PDF utility. It is the
// pipeline's only fatal error class: there is nothing to recover per-page
// when the renderer itself is broken.
type ToolError struct {
	Tool string
	Err  error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// Options controls rasterization.
type Options struct {
	DPI    int
	Format string // "png" or "jpeg"

	// FirstPage/LastPage bound the rendered range, 1-indexed inclusive.
	// Zero means unbounded on that side.
	FirstPage int
	LastPage  int
}

// Splitter converts PDFs to page images.
type Splitter struct {
	logger *zap.Logger
}

// New creates a Splitter.
func New(logger *zap.Logger) *Splitter {
	return &Splitter{logger: logger.Named("pdfsplit")}
}

// PageCount returns the number of pages in the PDF via pdfinfo.
func (s *Splitter) PageCount(ctx context.Context, pdfPath string) (int, error) {
	if _, err := exec.LookPath(pageCountTool); err != nil {
		return 0, &ToolError{Tool: pageCountTool, Err: fmt.Errorf("not found in PATH: %w", err)}
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, pageCountTool, pdfPath)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, &ToolError{Tool: pageCountTool, Err: fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))}
	}

	for _, line := range strings.Split(stdout.String(), "\n") {
		if !strings.HasPrefix(line, "Pages:") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:")))
		if err != nil {
			return 0, &ToolError{Tool: pageCountTool, Err: fmt.Errorf("unparseable page count in %q", line)}
		}
		return n, nil
	}

	return 0, &ToolError{Tool: pageCountTool, Err: fmt.Errorf("no Pages line in output for %s", pdfPath)}
}

// Split rasterizes the PDF into one image per page in the requested range
// and returns the ordered list of image paths. There is no partial-success
// mode: a renderer failure fails the whole call.
func (s *Splitter) Split(ctx context.Context, pdfPath, outputDir string, opts Options) ([]string, error) {
	if _, err := exec.LookPath(renderTool); err != nil {
		return nil, &ToolError{Tool: renderTool, Err: fmt.Errorf("not found in PATH: %w", err)}
	}

	format := opts.Format
	if format == "" {
		format = "png"
	}
	dpi := opts.DPI
	if dpi <= 0 {
		dpi = 200
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	args := renderArgs(pdfPath, filepath.Join(outputDir, "page"), dpi, format, opts.FirstPage, opts.LastPage)

	s.logger.Debug("rendering PDF pages",
		zap.String("pdf", pdfPath),
		zap.Int("dpi", dpi),
		zap.String("format", format))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, renderTool, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &ToolError{Tool: renderTool, Err: fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))}
	}

	ext := format
	if format == "jpeg" {
		ext = "jpg"
	}
	paths, err := filepath.Glob(filepath.Join(outputDir, "page-*."+ext))
	if err != nil {
		return nil, fmt.Errorf("glob page images: %w", err)
	}
	if len(paths) == 0 {
		return nil, &ToolError{Tool: renderTool, Err: fmt.Errorf("no page images produced for %s", pdfPath)}
	}

	// pdftoppm zero-pads page numbers, so lexical order is page order.
	sort.Strings(paths)

	s.logger.Info("PDF split complete",
		zap.String("pdf", pdfPath),
		zap.Int("pages", len(paths)))

	return paths, nil
}

// renderArgs builds the pdftoppm invocation for the requested range.
func renderArgs(pdfPath, prefix string, dpi int, format string, firstPage, lastPage int) []string {
	args := []string{"-r", strconv.Itoa(dpi)}
	switch format {
	case "jpeg":
		args = append(args, "-jpeg")
	default:
		args = append(args, "-png")
	}
	if firstPage > 0 {
		args = append(args, "-f", strconv.Itoa(firstPage))
	}
	if lastPage > 0 {
		args = append(args, "-l", strconv.Itoa(lastPage))
	}
	return append(args, pdfPath, prefix)
}
