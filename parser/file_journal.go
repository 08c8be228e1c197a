package parser

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	// How much to read at once while looking for the next record.
	MAX_USN_RECORD_SCAN_SIZE = 0x10000

	fileJournalMaxUsn = 0x7fffffffffff0000
)

var (
	ErrPageTooSmall = errors.New("Page buffer too small for record")
)

// FileJournal serves an extracted $UsnJrnl:$J stream as a journal
// source. In the $J stream a record's USN is its byte offset, so a
// record is only accepted when the two agree. The stream is sparse:
// the purged start of the journal reads as zeros and records may be
// followed by zero padding, which is skipped.
//
// There is no object store behind a file so paths are never
// resolved.
type FileJournal struct {
	name   string
	reader io.ReaderAt
	size   int64
	closer io.Closer

	first_usn int64
	scanned   bool
}

func NewFileJournal(reader io.ReaderAt, size int64) *FileJournal {
	return &FileJournal{name: "$J", reader: reader, size: size}
}

func OpenFileJournal(filename string) (*FileJournal, error) {
	fd, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	stat, err := fd.Stat()
	if err != nil {
		fd.Close()
		return nil, err
	}

	reader, err := NewPagedReader(fd, DefaultReaderPageSize, DefaultReaderCacheSize)
	if err != nil {
		fd.Close()
		return nil, err
	}

	result := NewFileJournal(reader, stat.Size())
	result.name = filename
	result.closer = fd
	return result, nil
}

// Drive is the name cursors of this journal are stored under.
func (self *FileJournal) Drive() string {
	return self.name
}

func (self *FileJournal) OpenByID(id uint64) (Object, error) {
	return nil, ErrNoObjectStore
}

func (self *FileJournal) Close() error {
	if self.closer != nil {
		return self.closer.Close()
	}
	return nil
}

func (self *FileJournal) QueryJournal() (*JournalData, error) {
	if !self.scanned {
		self.scanned = true
		self.first_usn = self.size

		offset, _ := self.nextRecord(0)
		if offset >= 0 {
			self.first_usn = offset
		}
		DebugPrint("FileJournal: first record at %#x of %#x\n",
			self.first_usn, self.size)
	}

	return &JournalData{
		FirstUsn:       uint64(self.first_usn),
		NextUsn:        uint64(self.size),
		LowestValidUsn: uint64(self.first_usn),
		MaxUsn:         fileJournalMaxUsn,
		MaximumSize:    uint64(self.size),
	}, nil
}

func (self *FileJournal) ReadJournal(req *ReadRequest, buf []byte) (int, error) {
	if len(buf) < USN_PREFIX_SIZE {
		return 0, ErrPageTooSmall
	}

	offset := int64(req.StartUsn)
	pos := USN_PREFIX_SIZE

	for {
		record_offset, record := self.nextRecord(offset)
		if record == nil {
			offset = self.size
			break
		}

		length := len(record.b)
		if pos+length > len(buf) {
			if pos == USN_PREFIX_SIZE {
				return 0, fmt.Errorf("%w: %#x bytes at %#x",
					ErrPageTooSmall, length, record_offset)
			}
			offset = record_offset
			break
		}

		offset = record_offset + int64(length)
		if req.ReasonMask != 0 && record.Reason()&req.ReasonMask == 0 {
			continue
		}

		copy(buf[pos:], record.b)
		pos += length
	}

	binary.LittleEndian.PutUint64(buf, uint64(offset))
	return pos, nil
}

// nextRecord finds the first valid record at or after offset. If the
// next record is not immediately at offset we scan ahead through
// each buffer read for a non zero 8 byte word that starts a
// plausible record.
func (self *FileJournal) nextRecord(offset int64) (int64, *USN_RECORD) {
	offset = alignUp8(offset)
	if offset+USN_RECORD_V2_HEADER_SIZE > self.size {
		return -1, nil
	}

	// Usually the next record follows immediately.
	record := self.readRecord(offset)
	if record != nil {
		return offset, record
	}

	data := make([]byte, MAX_USN_RECORD_SCAN_SIZE)

	for offset+USN_RECORD_V2_HEADER_SIZE <= self.size {
		to_read := CapInt64(self.size-offset, MAX_USN_RECORD_SCAN_SIZE)
		n, err := self.reader.ReadAt(data[:to_read], offset)
		if n == 0 {
			if err != nil {
				DebugPrint("FileJournal: ReadAt %#x: %v\n", offset, err)
			}
			return -1, nil
		}

		for i := 0; i+4 <= n; i += 8 {
			if isZero(data[i:CapInt(i+8, n)]) {
				continue
			}

			candidate := offset + int64(i)
			length := int64(binary.LittleEndian.Uint32(data[i : i+4]))
			if !self.validLength(candidate, length) {
				continue
			}

			record = self.readRecord(candidate)
			if record != nil {
				return candidate, record
			}
		}

		offset += int64(n)
	}

	return -1, nil
}

func (self *FileJournal) validLength(offset, length int64) bool {
	return length >= USN_RECORD_V2_HEADER_SIZE &&
		length <= MAX_USN_RECORD_LENGTH &&
		length%8 == 0 && offset+length <= self.size
}

func (self *FileJournal) readRecord(offset int64) *USN_RECORD {
	header := make([]byte, 4)
	_, err := self.reader.ReadAt(header, offset)
	if err != nil {
		return nil
	}

	length := int64(binary.LittleEndian.Uint32(header))
	if !self.validLength(offset, length) {
		return nil
	}

	data := make([]byte, length)
	n, _ := self.reader.ReadAt(data, offset)
	if int64(n) != length {
		return nil
	}

	record := NewUSN_RECORD(data)
	if !record.Validate() || record.Usn() != uint64(offset) {
		return nil
	}
	return record
}
