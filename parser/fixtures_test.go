package parser

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/davecgh/go-spew/spew"
)

var (
	testTime = TimeToFiletime(time.Date(2024, 3, 5, 14, 7, 0, 0, time.UTC))
)

// fakeSource serves records from memory in the page format of the
// device. Each page holds at most per_page records matching the
// reason mask.
type fakeSource struct {
	journal  JournalData
	records  []*JournalRecord
	per_page int

	query_err error
	read_err  error

	// Number of reads that succeed before read_err is returned.
	fail_after int

	requests []ReadRequest
}

func newFakeSource(records []*JournalRecord, per_page int) *fakeSource {
	result := &fakeSource{
		records:  records,
		per_page: per_page,
		journal: JournalData{
			UsnJournalID: 0x77,
			MaxUsn:       0x7fffffffffff0000,
		},
	}
	if len(records) > 0 {
		result.journal.FirstUsn = records[0].Usn
		result.journal.LowestValidUsn = records[0].Usn
		result.journal.NextUsn = records[len(records)-1].Usn + 1
	}
	return result
}

func (self *fakeSource) QueryJournal() (*JournalData, error) {
	if self.query_err != nil {
		return nil, self.query_err
	}
	journal := self.journal
	return &journal, nil
}

func (self *fakeSource) ReadJournal(req *ReadRequest, buf []byte) (int, error) {
	self.requests = append(self.requests, *req)
	if self.read_err != nil && len(self.requests) > self.fail_after {
		return 0, self.read_err
	}

	page := []*JournalRecord{}
	next := req.StartUsn
	for _, record := range self.records {
		if record.Usn < req.StartUsn {
			continue
		}
		if len(page) >= self.per_page {
			break
		}
		next = record.Usn + 1
		if req.ReasonMask&record.Reason == 0 {
			continue
		}
		page = append(page, record)
	}

	data := EncodePage(next, page...)
	if len(data) > len(buf) {
		return 0, ErrPageTooSmall
	}
	return copy(buf, data), nil
}

type fakeObject struct {
	name     string
	size     int64
	size_err error
}

func (self *fakeObject) Name() (string, error) {
	return self.name, nil
}

func (self *fakeObject) AllocationSize() (int64, error) {
	return self.size, self.size_err
}

func (self *fakeObject) Close() error {
	return nil
}

type fakeStore struct {
	objects map[uint64]*fakeObject
	lookups int
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[uint64]*fakeObject)}
}

func (self *fakeStore) OpenByID(id uint64) (Object, error) {
	self.lookups++
	obj, pres := self.objects[id]
	if !pres {
		return nil, os.ErrNotExist
	}
	return obj, nil
}

type fakeVolume struct {
	*fakeSource
	*fakeStore
	closed bool
}

func (self *fakeVolume) Drive() string {
	return "F:"
}

func (self *fakeVolume) Close() error {
	self.closed = true
	return nil
}

var errStop = errors.New("stop")

// makeRecords creates count created files with usns 0x100 apart.
func makeRecords(count int) []*JournalRecord {
	result := []*JournalRecord{}
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("file%d.txt", i)
		result = append(result, &JournalRecord{
			Usn:        uint64(0x100 * (i + 1)),
			FileID:     uint64(0x20 + i),
			ParentID:   5,
			Timestamp:  testTime,
			Reason:     USN_REASON_FILE_CREATE,
			Attributes: FILE_ATTRIBUTE_ARCHIVE,
			Name:       name,
			FullPath:   name,
		})
	}
	return result
}

func usns(records []*JournalRecord) []uint64 {
	result := []uint64{}
	for _, record := range records {
		result = append(result, record.Usn)
	}
	return result
}

func paths(records []*JournalRecord) []string {
	result := []string{}
	for _, record := range records {
		result = append(result, record.FullPath)
	}
	return result
}

func init() {
	time.Local = time.UTC
	spew.Config.DisablePointerAddresses = true
	spew.Config.SortKeys = true
}
