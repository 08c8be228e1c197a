package parser

import (
	"encoding/binary"
	"time"
	"unicode/utf16"
)

// 100ns intervals between 1601-01-01 and 1970-01-01.
const filetime_epoch_delta = 116444736000000000

func filetimeToUnixtime(ft int64) int64 {
	return (ft - filetime_epoch_delta) * 100
}

// FiletimeToTime converts a windows FILETIME (100ns ticks since
// 1601) to a time.Time in UTC.
func FiletimeToTime(ft int64) time.Time {
	return time.Unix(0, filetimeToUnixtime(ft)).UTC()
}

func TimeToFiletime(t time.Time) int64 {
	return t.UnixNano()/100 + filetime_epoch_delta
}

func UTF16ToString(buf []byte) string {
	order := binary.LittleEndian
	u16s := make([]uint16, 0, len(buf)/2)

	for i := 0; i+2 <= len(buf); i += 2 {
		u16s = append(u16s, order.Uint16(buf[i:]))
	}

	return string(utf16.Decode(u16s))
}

func StringToUTF16(s string) []byte {
	u16s := utf16.Encode([]rune(s))
	result := make([]byte, len(u16s)*2)
	for i, c := range u16s {
		binary.LittleEndian.PutUint16(result[i*2:], c)
	}
	return result
}
