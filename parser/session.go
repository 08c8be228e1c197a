package parser

import (
	"context"
	"io"
	"time"
)

// ScanSession holds the per volume reporting state: the filter
// chain, the deduplicator and the set of deleted names already
// reported. A new session is created for every volume so state never
// leaks between volumes.
type ScanSession struct {
	options   Options
	chain     *FilterChain
	dedup     *Deduplicator
	deleted   map[string]bool
	formatter *Formatter
	out       io.Writer

	emitted int
}

func NewScanSession(options Options, chain *FilterChain, out io.Writer) *ScanSession {
	if chain == nil {
		chain = NewFilterChain()
	}

	return &ScanSession{
		options:   options,
		chain:     chain,
		dedup:     NewDeduplicator(options.ReasonMergeAll),
		deleted:   make(map[string]bool),
		formatter: NewFormatter(options),
		out:       out,
	}
}

// Emitted is the number of rows written so far.
func (self *ScanSession) Emitted() int {
	return self.emitted
}

// Accept applies the filter chain followed by the show filter.
func (self *ScanSession) Accept(record *JournalRecord) bool {
	if record.FullPath == "" {
		return false
	}

	if !self.chain.IsMatch(record) {
		return false
	}

	return self.options.Show.IsMatch(record)
}

// HandleRecord is the scanner callback. In detail mode accepted
// records are written immediately, otherwise they are buffered until
// Flush.
func (self *ScanSession) HandleRecord(record *JournalRecord) error {
	if !self.Accept(record) {
		return nil
	}

	if self.options.ShowDetail {
		return self.emit(record)
	}

	self.dedup.Add(record)
	return nil
}

// Flush writes the buffered summary rows in order of first sighting.
// Deleted files get a new file id each time they are recreated, so
// a delete row is only written once for each path.
func (self *ScanSession) Flush() error {
	if self.options.ShowDetail {
		return nil
	}

	records := self.dedup.Records()
	self.dedup = NewDeduplicator(self.options.ReasonMergeAll)

	for _, record := range records {
		if record.Reason.IsDelete() {
			if self.deleted[record.FullPath] {
				continue
			}
			self.deleted[record.FullPath] = true
		}

		err := self.emit(record)
		if err != nil {
			return err
		}
	}
	return nil
}

func (self *ScanSession) emit(record *JournalRecord) error {
	STATS.Inc_Rows()
	self.emitted++
	return self.formatter.Write(self.out, record)
}

// Run scans the journal to the end and writes the report. Rows
// buffered before a page read failure are still written.
func (self *ScanSession) Run(ctx context.Context, scanner *Scanner) error {
	err := scanner.Scan(ctx, self.HandleRecord)
	flush_err := self.Flush()
	if err != nil {
		return err
	}
	return flush_err
}

// Watch keeps reporting new records until the context is done. The
// summary is flushed every time the scanner catches up.
func (self *ScanSession) Watch(ctx context.Context, scanner *Scanner,
	period time.Duration) error {
	if period == 0 {
		period = 30 * time.Second
	}

	for {
		err := self.Run(ctx, scanner)
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil

		case <-time.After(period):
		}
	}
}
