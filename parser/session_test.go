package parser

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type SessionTestSuite struct {
	suite.Suite

	out     *bytes.Buffer
	options Options
	records []*JournalRecord
}

func (self *SessionTestSuite) SetupTest() {
	self.out = &bytes.Buffer{}
	self.options = GetDefaultOptions()
	self.options.ShowReason = true

	self.records = []*JournalRecord{
		{Usn: 0x100, FileID: 1, Name: "a.txt", Timestamp: testTime,
			Reason: USN_REASON_FILE_CREATE},
		{Usn: 0x200, FileID: 1, Name: "a.txt", Timestamp: testTime,
			Reason: USN_REASON_DATA_EXTEND},
		{Usn: 0x300, FileID: 2, Name: "b.log", Timestamp: testTime,
			Reason: USN_REASON_FILE_CREATE},
		{Usn: 0x400, FileID: 3, Name: "dir", Timestamp: testTime,
			Reason: USN_REASON_FILE_CREATE, Attributes: FILE_ATTRIBUTE_DIRECTORY},
		{Usn: 0x500, FileID: 4, Name: "old.txt", Timestamp: testTime,
			Reason: USN_REASON_FILE_DELETE | USN_REASON_CLOSE},
		{Usn: 0x600, FileID: 5, Name: "old.txt", Timestamp: testTime,
			Reason: USN_REASON_FILE_DELETE | USN_REASON_CLOSE},
	}
}

func (self *SessionTestSuite) run(source *fakeSource, chain *FilterChain) (*ScanSession, error) {
	self.out.Reset()
	session := NewScanSession(self.options, chain, self.out)
	scanner := NewScanner(source, nil, self.options)
	return session, session.Run(context.Background(), scanner)
}

func (self *SessionTestSuite) TestSummary() {
	rows := STATS.Rows
	session, err := self.run(newFakeSource(self.records, 2), nil)
	self.NoError(err)

	// One row per file id in order of first sighting and a single
	// row for the repeatedly deleted name.
	self.Equal("a.txt DataExtend\n"+
		"b.log FileCreate\n"+
		"dir FileCreate\n"+
		"old.txt FileDelete+Close\n", self.out.String())
	self.Equal(4, session.Emitted())
	self.Equal(rows+4, STATS.Rows)
}

func (self *SessionTestSuite) TestSummaryMerge() {
	self.options.ReasonMergeAll = true
	_, err := self.run(newFakeSource(self.records[:3], 10), nil)
	self.NoError(err)

	self.Equal("a.txt DataExtend+FileCreate\n"+
		"b.log FileCreate\n", self.out.String())
}

func (self *SessionTestSuite) TestDetail() {
	self.options.ShowDetail = true
	session, err := self.run(newFakeSource(self.records, 10), nil)
	self.NoError(err)

	self.Equal("a.txt FileCreate\n"+
		"a.txt DataExtend\n"+
		"b.log FileCreate\n"+
		"dir FileCreate\n"+
		"old.txt FileDelete+Close\n"+
		"old.txt FileDelete+Close\n", self.out.String())
	self.Equal(6, session.Emitted())
}

func (self *SessionTestSuite) TestFilters() {
	_, err := self.run(newFakeSource(self.records, 10),
		NewFilterChain(NewMatchName("*.txt", false)))
	self.NoError(err)
	self.Equal("a.txt DataExtend\n"+
		"old.txt FileDelete+Close\n", self.out.String())

	self.options.Show = ShowDirs
	_, err = self.run(newFakeSource(self.records, 10), nil)
	self.NoError(err)
	self.Equal("dir FileCreate\n", self.out.String())
}

// A deleted name is only reported once even across flushes.
func (self *SessionTestSuite) TestDeletedAcrossFlushes() {
	source := newFakeSource(self.records, 10)
	session := NewScanSession(self.options, nil, self.out)
	scanner := NewScanner(source, nil, self.options)

	self.NoError(session.Run(context.Background(), scanner))
	self.Equal(4, session.Emitted())

	source.records = append(source.records,
		&JournalRecord{Usn: 0x700, FileID: 6, Name: "old.txt",
			Reason: USN_REASON_FILE_DELETE},
		&JournalRecord{Usn: 0x800, FileID: 7, Name: "new.txt",
			Reason: USN_REASON_FILE_CREATE})

	self.out.Reset()
	self.NoError(session.Run(context.Background(), scanner))
	self.Equal("new.txt FileCreate\n", self.out.String())
	self.Equal(5, session.Emitted())
}

// Rows seen before a failed page read are still reported.
func (self *SessionTestSuite) TestFlushOnError() {
	device_err := errors.New("device gone")
	source := newFakeSource(self.records, 1)
	source.read_err = device_err
	source.fail_after = 1

	_, err := self.run(source, nil)
	self.True(errors.Is(err, device_err))
	self.Equal("a.txt FileCreate\n", self.out.String())
}

func (self *SessionTestSuite) TestWatch() {
	source := newFakeSource(self.records[:3], 10)
	session := NewScanSession(self.options, nil, self.out)
	scanner := NewScanner(source, nil, self.options)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	self.NoError(session.Watch(ctx, scanner, time.Millisecond))
	self.Equal("a.txt DataExtend\n"+
		"b.log FileCreate\n", self.out.String())
}

func TestScanSession(t *testing.T) {
	suite.Run(t, &SessionTestSuite{})
}
