package parser

import "sort"

// Deduplicator keeps at most one record per file id. Later records
// replace earlier ones; with merge_all the reasons of all records
// seen for the id are OR'ed together.
//
// File ids are reused by the filesystem after a delete, so this is
// only meaningful within one scan.
type Deduplicator struct {
	merge_all bool
	records   map[uint64]*JournalRecord

	// File ids in order of first sighting.
	order []uint64
}

func NewDeduplicator(merge_all bool) *Deduplicator {
	return &Deduplicator{
		merge_all: merge_all,
		records:   make(map[uint64]*JournalRecord),
	}
}

func (self *Deduplicator) Add(record *JournalRecord) {
	if record.FullPath == "" {
		return
	}

	// Take a copy so callers can not mutate the stored record.
	item := *record

	previous, pres := self.records[item.FileID]
	if !pres {
		self.order = append(self.order, item.FileID)
	} else if self.merge_all {
		item.Reason |= previous.Reason
	}

	self.records[item.FileID] = &item
}

func (self *Deduplicator) Len() int {
	return len(self.order)
}

func (self *Deduplicator) Get(id uint64) (*JournalRecord, bool) {
	record, pres := self.records[id]
	return record, pres
}

// Records returns the retained records in order of first sighting.
func (self *Deduplicator) Records() []*JournalRecord {
	result := make([]*JournalRecord, 0, len(self.order))
	for _, id := range self.order {
		result = append(result, self.records[id])
	}
	return result
}

// SortedByUsn returns the retained records ordered by the sequence
// number of the last record seen for each id.
func (self *Deduplicator) SortedByUsn() []*JournalRecord {
	result := self.Records()
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Usn < result[j].Usn
	})
	return result
}
