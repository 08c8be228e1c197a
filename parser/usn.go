package parser

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"
)

// Parse USN records
// https://docs.microsoft.com/en-us/windows/win32/api/winioctl/ns-winioctl-usn_record_v2
// https://docs.microsoft.com/en-us/windows/win32/api/winioctl/ns-winioctl-usn_record_v3

const (
	// Size of the USN that prefixes every page returned by
	// FSCTL_READ_USN_JOURNAL.
	USN_PREFIX_SIZE = 8

	USN_RECORD_V2_HEADER_SIZE = 60
	USN_RECORD_V3_HEADER_SIZE = 76

	MAX_USN_RECORD_LENGTH = 0x10000
)

// JournalRecord is a decoded and enriched change journal entry.
type JournalRecord struct {
	Usn        uint64
	Reason     ReasonFlags
	FileID     uint64
	ParentID   uint64
	Timestamp  int64
	Size       int64
	Attributes FileAttributes
	SourceInfo uint32

	// The bare name as recorded in the journal.
	Name string

	// The resolved path. Same as Name when no resolution took place.
	FullPath string
}

// Time converts the FILETIME timestamp.
func (self *JournalRecord) Time() time.Time {
	return FiletimeToTime(self.Timestamp)
}

func (self *JournalRecord) IsDir() bool {
	return self.Attributes.IsDirectory()
}

// Directory returns the directory part of the path without the
// trailing separator.
func (self *JournalRecord) Directory(sep string) string {
	idx := strings.LastIndex(self.FullPath, sep)
	if idx < 0 {
		return ""
	}
	return self.FullPath[:idx]
}

// FileName returns name and extension.
func (self *JournalRecord) FileName(sep string) string {
	idx := strings.LastIndex(self.FullPath, sep)
	if idx < 0 {
		return self.FullPath
	}
	return self.FullPath[idx+len(sep):]
}

// Stem returns the name without its extension.
func (self *JournalRecord) Stem(sep string) string {
	name := self.FileName(sep)
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return name
	}
	return name[:idx]
}

// Extension returns the extension without the leading dot.
func (self *JournalRecord) Extension(sep string) string {
	name := self.FileName(sep)
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}
	return name[idx+1:]
}

func (self *JournalRecord) DebugString() string {
	result := fmt.Sprintf("struct JournalRecord @ %#x:\n", self.Usn)
	result += fmt.Sprintf("  FileID: %#x\n", self.FileID)
	result += fmt.Sprintf("  ParentID: %#x\n", self.ParentID)
	result += fmt.Sprintf("  Timestamp: %v\n", self.Time())
	result += fmt.Sprintf("  Reason: %v\n", self.Reason)
	result += fmt.Sprintf("  Attributes: %v\n", self.Attributes.DebugString())
	result += fmt.Sprintf("  Size: %v\n", self.Size)
	result += fmt.Sprintf("  Name: %v\n", self.Name)
	result += fmt.Sprintf("  FullPath: %v\n", self.FullPath)
	return result
}

// USN_RECORD is a view over a raw record inside a page buffer.
type USN_RECORD struct {
	b []byte
}

func NewUSN_RECORD(buf []byte) *USN_RECORD {
	return &USN_RECORD{b: buf}
}

func (self *USN_RECORD) RecordLength() uint32 {
	return binary.LittleEndian.Uint32(self.b[0:4])
}

func (self *USN_RECORD) MajorVersion() uint16 {
	return binary.LittleEndian.Uint16(self.b[4:6])
}

func (self *USN_RECORD) MinorVersion() uint16 {
	return binary.LittleEndian.Uint16(self.b[6:8])
}

func (self *USN_RECORD) headerSize() int {
	if self.MajorVersion() == 3 {
		return USN_RECORD_V3_HEADER_SIZE
	}
	return USN_RECORD_V2_HEADER_SIZE
}

// V3 records carry 128 bit file ids. We only keep the low 64 bits
// which is all NTFS uses.
func (self *USN_RECORD) FileReferenceNumber() uint64 {
	return binary.LittleEndian.Uint64(self.b[8:16])
}

func (self *USN_RECORD) ParentFileReferenceNumber() uint64 {
	if self.MajorVersion() == 3 {
		return binary.LittleEndian.Uint64(self.b[24:32])
	}
	return binary.LittleEndian.Uint64(self.b[16:24])
}

// The offset of the fields following the reference numbers.
func (self *USN_RECORD) base() int {
	if self.MajorVersion() == 3 {
		return 40
	}
	return 24
}

func (self *USN_RECORD) Usn() uint64 {
	base := self.base()
	return binary.LittleEndian.Uint64(self.b[base : base+8])
}

func (self *USN_RECORD) TimeStamp() int64 {
	base := self.base() + 8
	return int64(binary.LittleEndian.Uint64(self.b[base : base+8]))
}

func (self *USN_RECORD) Reason() ReasonFlags {
	base := self.base() + 16
	return ReasonFlags(binary.LittleEndian.Uint32(self.b[base : base+4]))
}

func (self *USN_RECORD) SourceInfo() uint32 {
	base := self.base() + 20
	return binary.LittleEndian.Uint32(self.b[base : base+4])
}

func (self *USN_RECORD) FileAttributes() FileAttributes {
	base := self.base() + 28
	return FileAttributes(binary.LittleEndian.Uint32(self.b[base : base+4]))
}

func (self *USN_RECORD) FileNameLength() uint16 {
	base := self.base() + 32
	return binary.LittleEndian.Uint16(self.b[base : base+2])
}

func (self *USN_RECORD) FileNameOffset() uint16 {
	base := self.base() + 34
	return binary.LittleEndian.Uint16(self.b[base : base+2])
}

func (self *USN_RECORD) Filename() string {
	start := int(self.FileNameOffset())
	end := start + int(self.FileNameLength())
	if start < self.headerSize() || end > len(self.b) {
		return ""
	}
	return UTF16ToString(self.b[start:end])
}

// Validate checks the record is a version we can decode and that
// its declared name lies within the record.
func (self *USN_RECORD) Validate() bool {
	if len(self.b) < USN_RECORD_V2_HEADER_SIZE {
		return false
	}

	switch self.MajorVersion() {
	case 2:
	case 3:
		if len(self.b) < USN_RECORD_V3_HEADER_SIZE {
			return false
		}
	default:
		return false
	}

	end := int(self.FileNameOffset()) + int(self.FileNameLength())
	return end <= len(self.b)
}

// Record converts the raw view to a JournalRecord holding the bare
// name.
func (self *USN_RECORD) Record() *JournalRecord {
	name := self.Filename()
	return &JournalRecord{
		Usn:        self.Usn(),
		Reason:     self.Reason(),
		FileID:     self.FileReferenceNumber(),
		ParentID:   self.ParentFileReferenceNumber(),
		Timestamp:  self.TimeStamp(),
		Attributes: self.FileAttributes(),
		SourceInfo: self.SourceInfo(),
		Name:       name,
		FullPath:   name,
	}
}

func (self *USN_RECORD) DebugString() string {
	result := fmt.Sprintf("struct USN_RECORD_V%d:\n", self.MajorVersion())
	result += fmt.Sprintf("  RecordLength: %#x\n", self.RecordLength())
	result += fmt.Sprintf("  FileReferenceNumber: %#x\n", self.FileReferenceNumber())
	result += fmt.Sprintf("  ParentFileReferenceNumber: %#x\n",
		self.ParentFileReferenceNumber())
	result += fmt.Sprintf("  Usn: %#x\n", self.Usn())
	result += fmt.Sprintf("  Reason: %v\n", self.Reason())
	result += fmt.Sprintf("  Filename: %v\n", self.Filename())
	return result
}

// WalkPage walks the records in buf[:length] using each record's
// declared length. Walking stops at the first record whose length
// is zero or would run past the valid data. Records of unknown
// versions are skipped.
func WalkPage(buf []byte, length int, cb func(record *USN_RECORD) error) error {
	if length > len(buf) {
		length = len(buf)
	}

	for offset := 0; offset+4 <= length; {
		record_length := int(binary.LittleEndian.Uint32(buf[offset : offset+4]))
		if record_length == 0 || offset+record_length > length {
			DebugPrint("WalkPage: bad record length %#x at %#x\n",
				record_length, offset)
			return nil
		}

		record := NewUSN_RECORD(buf[offset : offset+record_length])
		if record.Validate() {
			err := cb(record)
			if err != nil {
				return err
			}
		} else {
			STATS.Inc_SkippedRecords()
		}

		offset += record_length
	}

	return nil
}

// EncodeRecord serializes a record as a USN_RECORD_V2 with the given
// sequence number. The length is padded to 8 bytes.
func EncodeRecord(record *JournalRecord) []byte {
	name := StringToUTF16(record.Name)
	length := int(alignUp8(int64(USN_RECORD_V2_HEADER_SIZE + len(name))))

	b := make([]byte, length)
	order := binary.LittleEndian
	order.PutUint32(b[0:], uint32(length))
	order.PutUint16(b[4:], 2)
	order.PutUint64(b[8:], record.FileID)
	order.PutUint64(b[16:], record.ParentID)
	order.PutUint64(b[24:], record.Usn)
	order.PutUint64(b[32:], uint64(record.Timestamp))
	order.PutUint32(b[40:], uint32(record.Reason))
	order.PutUint32(b[44:], record.SourceInfo)
	order.PutUint32(b[52:], uint32(record.Attributes))
	order.PutUint16(b[56:], uint16(len(name)))
	order.PutUint16(b[58:], USN_RECORD_V2_HEADER_SIZE)
	copy(b[USN_RECORD_V2_HEADER_SIZE:], name)

	return b
}

// EncodePage builds a page in the FSCTL_READ_USN_JOURNAL wire
// format: the next usn followed by the records.
func EncodePage(next_usn uint64, records ...*JournalRecord) []byte {
	result := make([]byte, USN_PREFIX_SIZE)
	binary.LittleEndian.PutUint64(result, next_usn)
	for _, record := range records {
		result = append(result, EncodeRecord(record)...)
	}
	return result
}
