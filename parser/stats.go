package parser

import (
	"encoding/json"
	"sync"

	"github.com/Velocidex/ordereddict"
)

var (
	STATS = Stats{}
)

// Stats counts work done by all scans in the process.
type Stats struct {
	mu sync.Mutex

	Pages          int
	Records        int
	SkippedRecords int
	ResolverLookup int
	ResolverError  int
	Rows           int
}

func (self *Stats) DebugString() string {
	self.mu.Lock()
	defer self.mu.Unlock()

	serialized, _ := json.MarshalIndent(self, " ", " ")
	return string(serialized)
}

// Snapshot copies the counters so they can be logged.
func (self *Stats) Snapshot() *ordereddict.Dict {
	self.mu.Lock()
	defer self.mu.Unlock()

	return ordereddict.NewDict().
		Set("Pages", self.Pages).
		Set("Records", self.Records).
		Set("SkippedRecords", self.SkippedRecords).
		Set("ResolverLookup", self.ResolverLookup).
		Set("ResolverError", self.ResolverError).
		Set("Rows", self.Rows)
}

func (self *Stats) Reset() {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.Pages = 0
	self.Records = 0
	self.SkippedRecords = 0
	self.ResolverLookup = 0
	self.ResolverError = 0
	self.Rows = 0
}

func (self *Stats) Inc_Pages() {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.Pages++
}

func (self *Stats) Inc_Records() {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.Records++
}

func (self *Stats) Inc_SkippedRecords() {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.SkippedRecords++
}

func (self *Stats) Inc_ResolverLookup() {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.ResolverLookup++
}

func (self *Stats) Inc_ResolverError() {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.ResolverError++
}

func (self *Stats) Inc_Rows() {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.Rows++
}
