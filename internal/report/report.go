// Package report prints the human-readable input summary and results banner.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gookit/color"
	"github.com/mattn/go-isatty"
)

// Width of every banner line.
const Width = 80

// Version is the benchmark version reported in the banner.
const Version = 13

// Inputs summarizes a configured run before any allocation.
type Inputs struct {
	Verification   bool
	Strategy       string
	Materials      int
	Size           string
	Isotopes       int
	GridPoints     int
	UnionPoints    int
	Lookups        int
	Threads        int
	Replicas       int
	EstimatedBytes uint64
}

// Results summarizes a finished run.
type Results struct {
	Threads      int
	Replicas     int
	Elapsed      time.Duration
	Lookups      int
	Rate         float64
	Verification bool
	Checksum     uint64
}

// Printer writes banners to an output stream. Headings are colored only
// when the stream is a terminal.
type Printer struct {
	w       io.Writer
	colored bool
	heading color.Style
}

// NewPrinter returns a printer for w.
func NewPrinter(w io.Writer) *Printer {
	colored := false
	if f, ok := w.(*os.File); ok {
		colored = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Printer{w: w, colored: colored, heading: color.New(color.FgCyan, color.OpBold)}
}

func (p *Printer) border() {
	fmt.Fprintln(p.w, strings.Repeat("=", Width))
}

func (p *Printer) center(s string) {
	pad := max(0, (Width-len(s))/2)
	line := strings.Repeat(" ", pad) + s
	if p.colored {
		line = p.heading.Sprint(line)
	}
	fmt.Fprintln(p.w, line)
}

func (p *Printer) field(label string, value any) {
	fmt.Fprintf(p.w, "%-30s%v\n", label+":", value)
}

// Section prints a centered heading between borders.
func (p *Printer) Section(title string) {
	p.border()
	p.center(title)
	p.border()
}

// Inputs prints the banner and the input summary.
func (p *Printer) Inputs(in Inputs) {
	p.border()
	p.center("XSBench")
	p.center("Unionized energy grid cross-section lookup benchmark")
	p.center(fmt.Sprintf("Version: %d", Version))
	p.Section("INPUT SUMMARY")

	if in.Verification {
		p.field("Verification Mode", "on ("+in.Strategy+" draws)")
	} else {
		p.field("Verification Mode", "off")
	}
	p.field("Materials", in.Materials)
	p.field("H-M Benchmark Size", in.Size)
	p.field("Total Nuclides", humanize.Comma(int64(in.Isotopes)))
	p.field("Gridpoints (per Nuclide)", humanize.Comma(int64(in.GridPoints)))
	p.field("Unionized Energy Gridpoints", humanize.Comma(int64(in.UnionPoints)))
	p.field("XS Lookups", humanize.Comma(int64(in.Lookups)))
	p.field("Threads", in.Threads)
	if in.Replicas > 1 {
		p.field("Replicas", in.Replicas)
	}
	p.field("Est. Memory Usage (MB)", fmt.Sprintf("%s (%s)",
		humanize.Comma(int64(in.EstimatedBytes/(1024*1024))), humanize.IBytes(in.EstimatedBytes)))
	p.Section("INITIALIZATION")
}

// Results prints the results banner.
func (p *Printer) Results(r Results) {
	p.Section("RESULTS")
	p.field("Threads", r.Threads)
	if r.Replicas > 1 {
		p.field("Replicas", r.Replicas)
	}
	p.field("Runtime", fmt.Sprintf("%.3f seconds", r.Elapsed.Seconds()))
	p.field("Lookups", humanize.Comma(int64(r.Lookups)))
	p.field("Lookups/s", humanize.Comma(int64(r.Rate)))
	if r.Verification {
		p.field("Verification checksum", r.Checksum)
	}
	p.border()
}

// Run is one row of the run history listing.
type Run struct {
	RunID     string
	StartedAt time.Time
	Mode      string
	Size      string
	Threads   int
	Lookups   int
	Rate      float64
	Checksum  uint64
}

// Snapshot is one row of the snapshot listing.
type Snapshot struct {
	Key        string
	Bytes      int64
	Isotopes   string
	GridPoints string
	Modified   time.Time
}

// Runs prints recent runs, newest first.
func (p *Printer) Runs(runs []Run) error {
	p.Section("RUN HISTORY")
	if len(runs) == 0 {
		fmt.Fprintln(p.w, "No recorded runs.")
		return nil
	}
	tw := tabwriter.NewWriter(p.w, 4, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tSTARTED\tMODE\tSIZE\tTHREADS\tLOOKUPS\tLOOKUPS/S\tCHECKSUM")
	for _, r := range runs {
		checksum := "-"
		if r.Mode == "verification" {
			checksum = fmt.Sprint(r.Checksum)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			r.RunID, r.StartedAt.UTC().Format(time.RFC3339), r.Mode, r.Size, r.Threads,
			humanize.Comma(int64(r.Lookups)), humanize.Comma(int64(r.Rate)), checksum)
	}
	return tw.Flush()
}

// Snapshots prints stored grid snapshots ordered by key.
func (p *Printer) Snapshots(snaps []Snapshot) error {
	p.Section("SNAPSHOTS")
	if len(snaps) == 0 {
		fmt.Fprintln(p.w, "No stored snapshots.")
		return nil
	}
	tw := tabwriter.NewWriter(p.w, 4, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tSIZE\tNUCLIDES\tGRIDPOINTS\tMODIFIED")
	for _, s := range snaps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			s.Key, humanize.IBytes(uint64(max(s.Bytes, 0))), orDash(s.Isotopes), orDash(s.GridPoints),
			s.Modified.UTC().Format(time.RFC3339))
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
