package parser

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

var (
	ErrNoJournal = errors.New("Journal not available")
)

// JournalData describes the journal instance of a volume (as
// returned by FSCTL_QUERY_USN_JOURNAL).
type JournalData struct {
	UsnJournalID    uint64
	FirstUsn        uint64
	NextUsn         uint64
	LowestValidUsn  uint64
	MaxUsn          uint64
	MaximumSize     uint64
	AllocationDelta uint64
}

func (self *JournalData) DebugString() string {
	result := "struct JournalData:\n"
	result += fmt.Sprintf("  UsnJournalID: %#x\n", self.UsnJournalID)
	result += fmt.Sprintf("  FirstUsn: %#x\n", self.FirstUsn)
	result += fmt.Sprintf("  NextUsn: %#x\n", self.NextUsn)
	result += fmt.Sprintf("  LowestValidUsn: %#x\n", self.LowestValidUsn)
	result += fmt.Sprintf("  MaxUsn: %#x\n", self.MaxUsn)
	result += fmt.Sprintf("  MaximumSize: %#x\n", self.MaximumSize)
	result += fmt.Sprintf("  AllocationDelta: %#x\n", self.AllocationDelta)
	return result
}

// ReadRequest mirrors READ_USN_JOURNAL_DATA.
type ReadRequest struct {
	StartUsn     uint64
	ReasonMask   ReasonFlags
	UsnJournalID uint64
}

// JournalSource is a volume with a change journal. ReadJournal fills
// buf with the next USN to resume from (8 bytes) followed by zero or
// more records and returns the number of valid bytes.
type JournalSource interface {
	QueryJournal() (*JournalData, error)
	ReadJournal(req *ReadRequest, buf []byte) (int, error)
}

// Scanner reads the journal page by page and enriches each record.
// It is single threaded: pages must be read in order since each
// read depends on the cursor produced by the previous one.
type Scanner struct {
	source   JournalSource
	resolver *PathResolver
	options  Options

	journal  *JournalData
	started  bool
	next_usn uint64
	buf      []byte
}

func NewScanner(source JournalSource, resolver *PathResolver, options Options) *Scanner {
	page_size := options.PageSize
	if page_size < 1024 {
		page_size = DefaultPageSize
	}

	if options.Slash == "" {
		options.Slash = "\\"
	}

	return &Scanner{
		source:   source,
		resolver: resolver,
		options:  options,
		buf:      make([]byte, page_size),
	}
}

// Query fetches the journal metadata. Returns ErrNoJournal when the
// volume has no active journal.
func (self *Scanner) Query() (*JournalData, error) {
	if self.journal != nil {
		return self.journal, nil
	}

	journal, err := self.source.QueryJournal()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoJournal, err)
	}
	self.journal = journal
	return journal, nil
}

// NextUsn is the cursor to resume scanning from. It is valid after
// Scan returns.
func (self *Scanner) NextUsn() uint64 {
	return self.next_usn
}

func (self *Scanner) reasonMask() ReasonFlags {
	if self.options.ReasonFilter == 0 {
		return DefaultReasonFilter
	}
	return self.options.ReasonFilter
}

// Scan is the single producer loop. Every record is passed to yield
// in journal order. The loop ends without error when a page returns
// no records, when the context is done (checked between pages) or
// with the first error from a page read or from yield.
func (self *Scanner) Scan(ctx context.Context, yield func(record *JournalRecord) error) error {
	journal, err := self.Query()
	if err != nil {
		return err
	}

	if !self.started {
		self.started = true
		self.next_usn = self.options.StartUsn
		if self.next_usn == 0 {
			self.next_usn = journal.FirstUsn
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		more, err := self.readPage(journal, yield)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

func (self *Scanner) readPage(journal *JournalData,
	yield func(record *JournalRecord) error) (bool, error) {
	req := &ReadRequest{
		StartUsn:     self.next_usn,
		ReasonMask:   self.reasonMask(),
		UsnJournalID: journal.UsnJournalID,
	}

	n, err := self.source.ReadJournal(req, self.buf)
	if err != nil {
		return false, fmt.Errorf("ReadJournal at usn %#x: %w", req.StartUsn, err)
	}

	// Only the resume cursor and no records: we reached the end of
	// the available history.
	if n <= USN_PREFIX_SIZE {
		return false, nil
	}

	STATS.Inc_Pages()
	self.next_usn = binary.LittleEndian.Uint64(self.buf[:USN_PREFIX_SIZE])

	err = WalkPage(self.buf[USN_PREFIX_SIZE:], n-USN_PREFIX_SIZE,
		func(raw *USN_RECORD) error {
			STATS.Inc_Records()
			record := raw.Record()
			self.enrich(record)
			return yield(record)
		})
	return true, err
}

// enrich resolves the full path and size of the record. Failures
// leave the bare name in place.
func (self *Scanner) enrich(record *JournalRecord) {
	if self.resolver == nil ||
		(!self.options.ResolvePath && !self.options.ResolveSize) {
		return
	}

	// The record may describe a deleted directory so we resolve the
	// parent, which is more likely to still exist, and add the name.
	if record.IsDir() {
		parent, err := self.resolver.ResolveDir(record.ParentID)
		if err != nil {
			DebugPrint("Resolve parent %#x: %v\n", record.ParentID, err)
			return
		}
		record.FullPath = joinPath(parent, record.Name, self.options.Slash)
		return
	}

	flags := ResolvePathOnly
	if self.options.ResolveSize {
		flags |= ResolveSize
	}
	if self.options.CacheFileLookups {
		flags |= ResolveCache
	}

	path, size, err := self.resolver.Resolve(record.FileID, flags)
	if err != nil {
		DebugPrint("Resolve %#x: %v\n", record.FileID, err)
		return
	}
	record.FullPath = path
	record.Size = size
}

func joinPath(parent, name, sep string) string {
	for len(parent) >= len(sep) && parent[len(parent)-len(sep):] == sep {
		parent = parent[:len(parent)-len(sep)]
	}
	return parent + sep + name
}

// Walk delivers each record to cb.
func (self *Scanner) Walk(ctx context.Context, cb func(record *JournalRecord)) error {
	return self.Scan(ctx, func(record *JournalRecord) error {
		cb(record)
		return nil
	})
}

// Collect materializes all records.
func (self *Scanner) Collect(ctx context.Context) ([]*JournalRecord, error) {
	result := []*JournalRecord{}
	err := self.Scan(ctx, func(record *JournalRecord) error {
		result = append(result, record)
		return nil
	})
	return result, err
}

// Watch tails the journal: once the available history is exhausted
// it waits for period and continues from the cursor. Only returns
// when the context is done or on error.
func (self *Scanner) Watch(ctx context.Context, period time.Duration,
	cb func(record *JournalRecord)) error {

	// Default 30 second watch frequency.
	if period == 0 {
		period = 30 * time.Second
	}

	for {
		err := self.Walk(ctx, cb)
		if err != nil {
			return err
		}

		DebugPrint("Caught up at usn %#x\n", self.next_usn)

		select {
		case <-ctx.Done():
			return nil

		case <-time.After(period):
		}
	}
}
