package parser

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeV3 lays out a USN_RECORD_V3 with 128 bit file ids.
func encodeV3(record *JournalRecord) []byte {
	name := StringToUTF16(record.Name)
	length := int(alignUp8(int64(USN_RECORD_V3_HEADER_SIZE + len(name))))

	b := make([]byte, length)
	order := binary.LittleEndian
	order.PutUint32(b[0:], uint32(length))
	order.PutUint16(b[4:], 3)
	order.PutUint64(b[8:], record.FileID)
	order.PutUint64(b[24:], record.ParentID)
	order.PutUint64(b[40:], record.Usn)
	order.PutUint64(b[48:], uint64(record.Timestamp))
	order.PutUint32(b[56:], uint32(record.Reason))
	order.PutUint32(b[68:], uint32(record.Attributes))
	order.PutUint16(b[72:], uint16(len(name)))
	order.PutUint16(b[74:], USN_RECORD_V3_HEADER_SIZE)
	copy(b[USN_RECORD_V3_HEADER_SIZE:], name)
	return b
}

func walkNames(t *testing.T, page []byte, length int) []string {
	result := []string{}
	err := WalkPage(page, length, func(record *USN_RECORD) error {
		result = append(result, record.Filename())
		return nil
	})
	require.NoError(t, err)
	return result
}

func TestRecordV2(t *testing.T) {
	record := &JournalRecord{
		Usn:        0x1234,
		FileID:     0x1000000000042,
		ParentID:   5,
		Timestamp:  testTime,
		Reason:     USN_REASON_FILE_CREATE | USN_REASON_CLOSE,
		Attributes: FILE_ATTRIBUTE_ARCHIVE,
		Name:       "héllo.txt",
	}

	data := EncodeRecord(record)
	assert.Equal(t, 80, len(data))

	raw := NewUSN_RECORD(data)
	require.True(t, raw.Validate())
	assert.Equal(t, uint16(2), raw.MajorVersion())
	assert.Equal(t, uint32(80), raw.RecordLength())

	expected := *record
	expected.FullPath = record.Name
	assert.Equal(t, &expected, raw.Record())
	assert.Equal(t, time.Date(2024, 3, 5, 14, 7, 0, 0, time.UTC), raw.Record().Time())
}

func TestRecordV3(t *testing.T) {
	record := &JournalRecord{
		Usn:        0x5678,
		FileID:     0x42,
		ParentID:   0x43,
		Timestamp:  testTime,
		Reason:     USN_REASON_FILE_DELETE,
		Attributes: FILE_ATTRIBUTE_DIRECTORY,
		Name:       "dir",
	}

	raw := NewUSN_RECORD(encodeV3(record))
	require.True(t, raw.Validate())
	assert.Equal(t, uint16(3), raw.MajorVersion())

	decoded := raw.Record()
	assert.Equal(t, uint64(0x42), decoded.FileID)
	assert.Equal(t, uint64(0x43), decoded.ParentID)
	assert.Equal(t, uint64(0x5678), decoded.Usn)
	assert.Equal(t, USN_REASON_FILE_DELETE, decoded.Reason)
	assert.True(t, decoded.IsDir())
	assert.Equal(t, "dir", decoded.Name)
}

func TestValidateNameBounds(t *testing.T) {
	data := EncodeRecord(&JournalRecord{Name: "a.txt"})
	binary.LittleEndian.PutUint16(data[56:], 0x200)
	assert.False(t, NewUSN_RECORD(data).Validate())

	assert.False(t, NewUSN_RECORD(make([]byte, 16)).Validate())
}

func TestWalkPage(t *testing.T) {
	records := makeRecords(3)
	page := EncodePage(0x400, records...)[USN_PREFIX_SIZE:]

	assert.Equal(t, []string{"file0.txt", "file1.txt", "file2.txt"},
		walkNames(t, page, len(page)))

	// A record running past the valid data ends the page.
	assert.Equal(t, []string{"file0.txt", "file1.txt"},
		walkNames(t, page, len(page)-4))

	// Versions are mixed freely.
	mixed := append(EncodeRecord(records[0]), encodeV3(records[1])...)
	assert.Equal(t, []string{"file0.txt", "file1.txt"},
		walkNames(t, mixed, len(mixed)))
}

func TestWalkPageZeroLength(t *testing.T) {
	records := makeRecords(3)
	page := append(EncodeRecord(records[0]), make([]byte, 16)...)
	page = append(page, EncodeRecord(records[1])...)

	assert.Equal(t, []string{"file0.txt"}, walkNames(t, page, len(page)))
}

func TestWalkPageSkipsUnknownVersion(t *testing.T) {
	records := makeRecords(3)
	bad := EncodeRecord(records[1])
	binary.LittleEndian.PutUint16(bad[4:], 4)

	page := append(EncodeRecord(records[0]), bad...)
	page = append(page, EncodeRecord(records[2])...)

	skipped := STATS.SkippedRecords
	assert.Equal(t, []string{"file0.txt", "file2.txt"}, walkNames(t, page, len(page)))
	assert.Equal(t, skipped+1, STATS.SkippedRecords)
}

func TestWalkPageCallbackError(t *testing.T) {
	page := EncodePage(0, makeRecords(2)...)[USN_PREFIX_SIZE:]

	count := 0
	err := WalkPage(page, len(page), func(record *USN_RECORD) error {
		count++
		return errStop
	})
	assert.True(t, errors.Is(err, errStop))
	assert.Equal(t, 1, count)
}

func TestEncodePagePrefix(t *testing.T) {
	page := EncodePage(0xdeadbeef)
	assert.Equal(t, USN_PREFIX_SIZE, len(page))
	assert.Equal(t, uint64(0xdeadbeef), binary.LittleEndian.Uint64(page))
}

func TestRecordPathParts(t *testing.T) {
	record := &JournalRecord{FullPath: `\dir\sub\report.tar.gz`}
	assert.Equal(t, `\dir\sub`, record.Directory(`\`))
	assert.Equal(t, "report.tar.gz", record.FileName(`\`))
	assert.Equal(t, "report.tar", record.Stem(`\`))
	assert.Equal(t, "gz", record.Extension(`\`))

	record = &JournalRecord{FullPath: "noext"}
	assert.Equal(t, "", record.Directory(`\`))
	assert.Equal(t, "noext", record.FileName(`\`))
	assert.Equal(t, "noext", record.Stem(`\`))
	assert.Equal(t, "", record.Extension(`\`))
}

func TestFiletime(t *testing.T) {
	epoch := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, int64(116444736000000000), TimeToFiletime(epoch))
	assert.Equal(t, epoch, FiletimeToTime(116444736000000000))
}
