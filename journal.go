// Package usnjournal lists the change journal of one or more
// volumes. It ties the parser pipeline to volume sources, stored
// cursors and logging.
package usnjournal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Velocidex/ordereddict"
	"github.com/google/uuid"
	"www.velocidex.com/golang/go-usnjournal/cursor"
	"www.velocidex.com/golang/go-usnjournal/logging"
	"www.velocidex.com/golang/go-usnjournal/parser"
)

// CursorStore keeps where the last scan of each volume ended.
type CursorStore interface {
	Load(ctx context.Context, volume string) (*cursor.Cursor, error)
	Save(ctx context.Context, c cursor.Cursor) error
}

type Opener func(volume string) (parser.Volume, error)

// Lister scans volumes one after the other. A failure on one volume
// is reported and the remaining volumes are still scanned.
type Lister struct {
	Options parser.Options

	// Rules applied to every volume.
	Filters []parser.Matcher

	// The report goes to Out, progress lines to Diag.
	Out  io.Writer
	Diag io.Writer

	Cursors CursorStore

	// Start from the stored cursor instead of Options.StartUsn.
	UseCursor bool

	// Store the final cursor after each volume.
	SaveCursor bool

	// Arguments are extracted $J files rather than drives.
	Images bool

	// Overrides how volumes are opened.
	Open Opener

	// Keep tailing the journal until the context is done.
	Watch  bool
	Period time.Duration
}

// VolumeReport summarizes the scan of one volume.
type VolumeReport struct {
	Volume   string
	Pattern  string
	ScanID   string
	Journal  *parser.JournalData
	StartUsn uint64
	NextUsn  uint64
	Rows     int
	Elapsed  time.Duration
	Resolver *ordereddict.Dict
	Err      error
}

func NewLister(options parser.Options, out io.Writer) *Lister {
	return &Lister{
		Options: options,
		Out:     out,
		Diag:    os.Stderr,
	}
}

func (self *Lister) open(volume string) (parser.Volume, error) {
	if self.Open != nil {
		return self.Open(volume)
	}
	if self.Images {
		return parser.OpenFileJournal(volume)
	}
	return parser.OpenVolume(volume)
}

func (self *Lister) diag(format string, args ...interface{}) {
	if self.Diag != nil {
		fmt.Fprintf(self.Diag, format, args...)
	}
}

// Query returns the journal metadata of a volume.
func (self *Lister) Query(volume string) (*parser.JournalData, error) {
	source, err := self.open(volume)
	if err != nil {
		return nil, fmt.Errorf("Failed to open drive %v: %w", volume, err)
	}
	defer source.Close()

	journal, err := source.QueryJournal()
	if err != nil {
		return nil, fmt.Errorf("%w on drive %v: %v", parser.ErrNoJournal, volume, err)
	}
	return journal, nil
}

// ListJournals scans every argument in order. The returned error
// joins the failures of all volumes.
func (self *Lister) ListJournals(ctx context.Context, args []string) ([]*VolumeReport, error) {
	result := []*VolumeReport{}
	var errs []error

	for _, arg := range args {
		if ctx.Err() != nil {
			break
		}

		report := self.ListJournal(ctx, arg)
		result = append(result, report)
		if report.Err != nil {
			errs = append(errs, report.Err)
		}
	}

	return result, errors.Join(errs...)
}

// ListJournal scans a single volume. An argument like "c:*.txt"
// limits the report to names matching the pattern.
func (self *Lister) ListJournal(ctx context.Context, arg string) *VolumeReport {
	volume, pattern := arg, ""
	if !self.Images {
		volume, pattern = parser.SplitVolumeArg(arg)
	}

	report := &VolumeReport{
		Volume:  volume,
		Pattern: pattern,
		ScanID:  uuid.NewString(),
	}

	ctx = logging.WithScan(ctx, report.ScanID, volume)
	logger := logging.C(ctx)

	self.diag("--- Journal for %v\n", arg)
	start := time.Now()

	report.Err = self.scan(ctx, report)
	report.Elapsed = time.Since(start)

	self.diag("--- %.3f seconds\n", report.Elapsed.Seconds())

	if report.Err != nil {
		logger.Error().Err(report.Err).Msg("Scan failed")
	} else {
		logger.Debug().
			Uint64("start_usn", report.StartUsn).
			Uint64("next_usn", report.NextUsn).
			Int("rows", report.Rows).
			Dur("elapsed", report.Elapsed).
			Msg("Scan complete")
	}

	return report
}

func (self *Lister) scan(ctx context.Context, report *VolumeReport) error {
	logger := logging.C(ctx)

	source, err := self.open(report.Volume)
	if err != nil {
		return fmt.Errorf("Failed to open drive %v: %w", report.Volume, err)
	}
	defer source.Close()

	journal, err := source.QueryJournal()
	if err != nil {
		return fmt.Errorf("%w on drive %v: %v", parser.ErrNoJournal, report.Volume, err)
	}
	report.Journal = journal

	options := self.Options
	options.Volume = source.Drive()

	if self.UseCursor && self.Cursors != nil {
		stored, err := self.Cursors.Load(ctx, source.Drive())
		switch {
		case err != nil:
			logger.Info().Err(err).Msg("Starting at the first record")

		case stored.JournalID != journal.UsnJournalID:
			logger.Warn().
				Uint64("stored_journal_id", stored.JournalID).
				Uint64("journal_id", journal.UsnJournalID).
				Msg("Journal was recreated, ignoring stored cursor")

		default:
			options.StartUsn = stored.NextUsn
		}
	}

	report.StartUsn = options.StartUsn
	if report.StartUsn == 0 {
		report.StartUsn = journal.FirstUsn
	}

	chain := parser.NewFilterChain(self.Filters...)
	if report.Pattern != "" {
		chain.Add(parser.NewMatchName(report.Pattern, false))
	}

	// Size rules compare against the allocated size which is only
	// known when it is resolved.
	if chain.NeedsSize() {
		options.ResolveSize = true
		if !parser.HasObjectStore(source) {
			logger.Warn().Str("volume", source.Drive()).
				Msg("No object store: size filters only see zero sizes")
		}
	}

	resolver := parser.NewPathResolver(source)
	scanner := parser.NewScanner(source, resolver, options)
	session := parser.NewScanSession(options, chain, self.Out)

	if self.Watch {
		err = session.Watch(ctx, scanner, self.Period)
	} else {
		err = session.Run(ctx, scanner)
	}

	report.NextUsn = scanner.NextUsn()
	report.Rows = session.Emitted()
	report.Resolver = resolver.Stats()
	if err != nil {
		return err
	}

	if self.SaveCursor && self.Cursors != nil && report.NextUsn != 0 {
		err = self.Cursors.Save(ctx, cursor.Cursor{
			Volume:    source.Drive(),
			JournalID: journal.UsnJournalID,
			NextUsn:   report.NextUsn,
		})
		if err != nil {
			return err
		}
	}

	return nil
}
