// bio-dotplot renders a dot-plot comparison of one or more FASTA files
// against one or more other FASTA files, grounded on the flag-wiring and
// grail.Init() startup sequence of grailbio/bio's cmd/bio-fusion/main.go.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"

	"github.com/grailbio/dotplot/alphabet"
	"github.com/grailbio/dotplot/encoding/fasta"
	"github.com/grailbio/dotplot/extend"
	"github.com/grailbio/dotplot/grid"
	"github.com/grailbio/dotplot/plotfile"
	"github.com/grailbio/dotplot/session"
)

const (
	exitOK         = 0
	exitArgError   = 1
	exitParseError = 2
	exitSizeError  = 3
)

type fileList []string

func (f *fileList) String() string { return strings.Join(*f, ",") }
func (f *fileList) Set(v string) error {
	*f = append(*f, v)
	return nil
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: bio-dotplot -x file.fasta [-x file2.fasta ...] -y file.fasta [-y ...] -o out.pgm [flags]

`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage

	var xFiles, yFiles fileList
	flag.Var(&xFiles, "x", "FASTA file on the table axis (repeatable).")
	flag.Var(&yFiles, "y", "FASTA file on the comparison axis (repeatable).")
	output := flag.String("o", "", "Output PGM path.")
	longestSide := flag.Int("s", 1024, "Longest side of the output image, in pixels.")
	k := flag.Int("k", 11, "Tuple length.")
	window := flag.Int("w", 11, "Mismatch window length.")
	minMatch := flag.Int("m", 11, "Minimum reported match length.")
	mismatch := flag.Int("d", 0, "Mismatches tolerated per window.")
	savePath := flag.String("S", "", "Save the computed plot to this path.")
	loadPath := flag.String("L", "", "Load a previously saved plot instead of recomputing.")
	_ = flag.Int("M", 0, "Major tick override (decorative; unused by the raw PGM writer).")
	_ = flag.Int("T", 0, "Minor tick override (decorative; unused by the raw PGM writer).")

	cleanup := grail.Init()
	defer cleanup()

	if *loadPath == "" {
		if len(xFiles) == 0 || len(yFiles) == 0 {
			log.Error.Printf("bio-dotplot: at least one -x and one -y FASTA file are required")
			os.Exit(exitArgError)
		}
	}
	if *output == "" && *savePath == "" {
		log.Error.Printf("bio-dotplot: -o or -S is required")
		os.Exit(exitArgError)
	}

	ctx := context.Background()
	if err := run(ctx, xFiles, yFiles, *output, *savePath, *loadPath, *longestSide, *k, *window, *minMatch, *mismatch); err != nil {
		log.Error.Printf("bio-dotplot: %v", err)
		os.Exit(exitCodeFor(err))
	}
}

func exitCodeFor(err error) int {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "FormatError"):
		return exitParseError
	case strings.Contains(msg, "ParameterError"), strings.Contains(msg, "BoundsError"):
		return exitSizeError
	default:
		return exitArgError
	}
}

func loadCatalog(axis string, paths []string, c *session.Catalog) error {
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		parsed, err := fasta.New(f)
		closeErr := f.Close()
		if err != nil {
			return err
		}
		if closeErr != nil {
			return closeErr
		}
		if err := c.AddFile(axis, path, parsed); err != nil {
			return err
		}
	}
	return nil
}

func run(ctx context.Context, xFiles, yFiles []string, output, savePath, loadPath string, longestSide, k, window, minMatch, mismatch int) error {
	var plot *plotfile.Plot

	if loadPath != "" {
		f, err := os.Open(loadPath)
		if err != nil {
			return err
		}
		defer f.Close()
		plot, err = plotfile.Read(f)
		if err != nil {
			return err
		}
	} else {
		catalog := session.NewCatalog()
		if err := loadCatalog(session.AxisX, xFiles, catalog); err != nil {
			return err
		}
		if err := loadCatalog(session.AxisY, yFiles, catalog); err != nil {
			return err
		}

		params := extend.Params{K: k, Window: int32(window), Mismatch: int32(mismatch), MinMatch: int32(minMatch)}
		var jobs []session.PairJob
		for _, xf := range catalog.Files(session.AxisX) {
			for _, xs := range xf.Seqs {
				for _, yf := range catalog.Files(session.AxisY) {
					for _, ys := range yf.Seqs {
						jobs = append(jobs, session.PairJob{
							TablePath: xf.Path, TableSeq: xs.ID, TableStart: 0, TableEnd: xs.Length,
							TableOffset: xs.Offset,
							CompPath:    yf.Path, CompSeq: ys.ID, CompStart: 0, CompEnd: ys.Length,
							CompOffset: ys.Offset,
							Params:     params,
						})
					}
				}
			}
		}

		results, err := catalog.CompareAll(ctx, jobs, alphabet.DNA, 0)
		if err != nil {
			return err
		}

		plot = &plotfile.Plot{}
		for _, xf := range catalog.Files(session.AxisX) {
			var seqs []plotfile.SeqMeta
			for _, s := range xf.Seqs {
				seqs = append(seqs, plotfile.SeqMeta{ID: s.ID, Length: int32(s.Length)})
			}
			plot.XFiles = append(plot.XFiles, plotfile.FileMeta{Path: xf.Path, Seqs: seqs})
		}
		for _, yf := range catalog.Files(session.AxisY) {
			var seqs []plotfile.SeqMeta
			for _, s := range yf.Seqs {
				seqs = append(seqs, plotfile.SeqMeta{ID: s.ID, Length: int32(s.Length)})
			}
			plot.YFiles = append(plot.YFiles, plotfile.FileMeta{Path: yf.Path, Seqs: seqs})
		}
		for _, r := range results {
			plot.Regions = append(plot.Regions, plotfile.Region{
				Forward:     r.Fast.Stores[extend.Forward],
				Reverse:     r.Fast.Stores[extend.ReverseComplement],
				TableOffset: int32(r.Job.TableOffset),
				CompOffset:  int32(r.Job.CompOffset),
			})
		}

		if savePath != "" {
			out, err := os.Create(savePath)
			if err != nil {
				return err
			}
			defer out.Close()
			if err := plotfile.Write(out, plot); err != nil {
				return err
			}
		}
	}

	if output == "" {
		return nil
	}
	return writePGM(output, plot, longestSide)
}

func writePGM(path string, plot *plotfile.Plot, longestSide int) error {
	var totalX, totalY int32
	for _, f := range plot.XFiles {
		for _, s := range f.Seqs {
			totalX += s.Length
		}
	}
	for _, f := range plot.YFiles {
		for _, s := range f.Seqs {
			totalY += s.Length
		}
	}
	if totalX == 0 || totalY == 0 {
		return fmt.Errorf("ParameterError: empty comparison axes")
	}

	scale := totalX / int32(longestSide)
	if totalY/int32(longestSide) > scale {
		scale = totalY / int32(longestSide)
	}
	if scale < 1 {
		scale = 1
	}

	combined, err := grid.New(int(ceilDiv(totalX, scale)), int(ceilDiv(totalY, scale)))
	if err != nil {
		return err
	}
	const smoothing = int32(1) // the store itself doesn't carry the extension window it was built with.
	for _, r := range plot.Regions {
		// Each region's matches are in local, 0-based coordinates over the
		// sub-sequences it was computed from; shift them onto the combined
		// canvas by the region's global axis offsets before rasterizing,
		// otherwise every region lands stacked at the origin.
		if r.Forward != nil {
			shifted := r.Forward.Shift(r.TableOffset, r.CompOffset)
			g, err := grid.Calculate(shifted, 0, 0, totalX, totalY, scale, smoothing)
			if err != nil {
				return err
			}
			if err := combined.AddInplace(g); err != nil {
				return err
			}
		}
		if r.Reverse != nil {
			// Reverse matches are in the reverse-complemented comparison
			// sequence's own coordinate frame; fold them back into the
			// forward frame before shifting onto the shared canvas.
			flipped := r.Reverse.Clone()
			flipped.FlipY(flipped.GetMaxY())
			shifted := flipped.Shift(r.TableOffset, r.CompOffset)
			g, err := grid.Calculate(shifted, 0, 0, totalX, totalY, scale, smoothing)
			if err != nil {
				return err
			}
			if err := combined.AddInplace(g); err != nil {
				return err
			}
		}
	}

	luminance := combined.ToLuminance()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "P5\n%d %d\n255\n", combined.Width, combined.Height); err != nil {
		return err
	}
	_, err = f.Write(luminance)
	return err
}

func ceilDiv(a, b int32) int32 {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
