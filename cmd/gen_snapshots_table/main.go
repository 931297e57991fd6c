// Command gen_snapshots_table renders the PNG snapshots of a headless run as
// an HTML table inside a markdown file, between two marker comments.
package main

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/urfave/cli"
)

const (
	startMarker = "<!-- SNAPSHOTS:START -->"
	endMarker   = "<!-- SNAPSHOTS:END -->"
)

var (
	errMarkers        = errors.New("snapshot markers not found")
	errReadmeRequired = errors.New("--readme is required")
)

// framePattern extracts the frame number from headless snapshot names,
// <program>_frame_<n>_<timestamp>.png.
var framePattern = regexp.MustCompile(`_frame_(\d+)`)

type item struct {
	Name    string
	Frame   int
	Encoded string
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		slog.Error("Failed to update snapshot table", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "gen_snapshots_table"
	app.Usage = "Update a markdown file with a table of headless snapshots"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "readme", Usage: "Markdown file holding the snapshot markers, updated in place (required)"},
		cli.StringFlag{Name: "snapshots", Usage: "Snapshots directory", Value: filepath.Join("testdata", "snapshots")},
		cli.IntFlag{Name: "cols", Usage: "Number of columns per row", Value: 4},
		cli.IntFlag{Name: "width", Usage: "Image width in pixels", Value: 196},
	}
	app.Action = func(c *cli.Context) error {
		readme := c.String("readme")
		if readme == "" {
			return errReadmeRequired
		}
		return run(readme, c.String("snapshots"), c.Int("cols"), c.Int("width"))
	}
	return app
}

func run(readme, snapshots string, cols, width int) error {
	items, err := collect(snapshots)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(readme)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", readme, err)
	}

	out, err := splice(string(content), renderTable(items, snapshots, cols, width))
	if err != nil {
		return fmt.Errorf("%s: %w", readme, err)
	}

	if err := os.WriteFile(readme, []byte(out), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", readme, err)
	}
	slog.Info("Snapshot table updated", "readme", readme, "snapshots", len(items))
	return nil
}

// collect lists the PNG files of dir ordered by frame number, then name.
func collect(dir string) ([]item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var items []item
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(name), ".png") {
			continue
		}

		it := item{
			Name:    strings.TrimSuffix(name, filepath.Ext(name)),
			Encoded: url.PathEscape(name),
		}
		if m := framePattern.FindStringSubmatch(name); m != nil {
			it.Frame, _ = strconv.Atoi(m[1])
		}
		items = append(items, it)
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Frame != items[j].Frame {
			return items[i].Frame < items[j].Frame
		}
		return items[i].Name < items[j].Name
	})
	return items, nil
}

func renderTable(items []item, dir string, cols, width int) string {
	if cols <= 0 {
		cols = 3
	}

	var buf bytes.Buffer
	buf.WriteString("<table>\n")
	for i := 0; i < len(items); i += cols {
		buf.WriteString("  <tr>\n")
		for c := 0; c < cols; c++ {
			if i+c >= len(items) {
				buf.WriteString("    <td></td>\n")
				continue
			}
			it := items[i+c]
			src := filepath.ToSlash(filepath.Join(dir, it.Encoded))
			caption := it.Name
			if it.Frame > 0 {
				caption = fmt.Sprintf("frame %d", it.Frame)
			}
			fmt.Fprintf(&buf, "    <td align=\"center\"><img src=\"%s\" width=\"%d\" style=\"image-rendering:pixelated;\" /><br><sub>%s</sub></td>\n",
				src, width, caption)
		}
		buf.WriteString("  </tr>\n")
	}
	buf.WriteString("</table>\n")
	return buf.String()
}

// splice replaces whatever sits between the markers with table.
func splice(content, table string) (string, error) {
	start := strings.Index(content, startMarker)
	end := strings.Index(content, endMarker)
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("%w: ensure %s and %s exist", errMarkers, startMarker, endMarker)
	}

	after := content[end:]
	var out strings.Builder
	out.WriteString(content[:start+len(startMarker)])
	out.WriteString("\n")
	out.WriteString(table)
	if !strings.HasPrefix(after, "\n") && !strings.HasSuffix(table, "\n") {
		out.WriteString("\n")
	}
	out.WriteString(after)
	return out.String(), nil
}
