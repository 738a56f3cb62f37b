// Package report renders the licensing aggregate as HTML, CSV and JSON files.
package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/yuxishi/zvm-license-report/internal/model"
)

type Format string

const (
	FormatHTML Format = "html"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Output file names inside the output directory.
const (
	HTMLFile = "report.html"
	CSVFile  = "licensing_utilization.csv"
	JSONFile = "licensing_utilization.json"
)

var AllFormats = []Format{FormatHTML, FormatCSV, FormatJSON}

// ParseFormats accepts names separated by commas and/or spaces. Duplicates
// are dropped; an empty input selects every format.
func ParseFormats(values []string) ([]Format, error) {
	var out []Format
	seen := make(map[Format]bool)
	for _, v := range values {
		for _, name := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' }) {
			f := Format(strings.ToLower(strings.TrimSpace(name)))
			switch f {
			case FormatHTML, FormatCSV, FormatJSON:
			default:
				return nil, fmt.Errorf("unknown report format %q (want html, csv or json)", name)
			}
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	if len(out) == 0 {
		return AllFormats, nil
	}
	return out, nil
}

type Renderer struct {
	outDir string
	log    logrus.FieldLogger
}

func New(outDir string, log logrus.FieldLogger) *Renderer {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Renderer{outDir: outDir, log: log}
}

func (r *Renderer) HTML(data *model.ZertoData) (string, error) {
	return r.write(HTMLFile, func(w io.Writer) error { return WriteHTML(w, data) })
}

func (r *Renderer) CSV(data *model.ZertoData) (string, error) {
	return r.write(CSVFile, func(w io.Writer) error { return WriteCSV(w, data) })
}

func (r *Renderer) JSON(data *model.ZertoData) (string, error) {
	return r.write(JSONFile, func(w io.Writer) error { return WriteJSON(w, data) })
}

// Render writes the selected formats concurrently and returns their paths
// in the order requested.
func (r *Renderer) Render(ctx context.Context, data *model.ZertoData, formats []Format) ([]string, error) {
	paths := make([]string, len(formats))
	g, ctx := errgroup.WithContext(ctx)
	for i, f := range formats {
		i, f := i, f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var (
				path string
				err  error
			)
			switch f {
			case FormatHTML:
				path, err = r.HTML(data)
			case FormatCSV:
				path, err = r.CSV(data)
			case FormatJSON:
				path, err = r.JSON(data)
			default:
				err = fmt.Errorf("unknown report format %q", f)
			}
			if err != nil {
				return fmt.Errorf("render %s: %w", f, err)
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func (r *Renderer) write(name string, fn func(io.Writer) error) (string, error) {
	if err := os.MkdirAll(r.outDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(r.outDir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := fn(f); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	r.log.WithField("path", path).Debug("report written")
	return path, nil
}

// displayTime renders the aggregate's generation time for humans.
func displayTime(data *model.ZertoData) string {
	t, err := time.Parse(time.RFC3339, data.Meta.GeneratedAt)
	if err != nil {
		return data.Meta.GeneratedAt
	}
	return t.Format("2006-01-02 15:04:05")
}
