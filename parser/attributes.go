package parser

import (
	"fmt"
	"strings"
)

const (
	FILE_ATTRIBUTE_READONLY   FileAttributes = 0x00000001
	FILE_ATTRIBUTE_HIDDEN     FileAttributes = 0x00000002
	FILE_ATTRIBUTE_SYSTEM     FileAttributes = 0x00000004
	FILE_ATTRIBUTE_DIRECTORY  FileAttributes = 0x00000010
	FILE_ATTRIBUTE_ARCHIVE    FileAttributes = 0x00000020
	FILE_ATTRIBUTE_COMPRESSED FileAttributes = 0x00000800
)

// FileAttributes is the attribute bitmask carried by a journal
// record. It is kept distinct from ReasonFlags so the two can not be
// mixed up.
type FileAttributes uint32

func (self FileAttributes) IsSet(flag FileAttributes) bool {
	return self&flag != 0
}

func (self FileAttributes) IsDirectory() bool {
	return self.IsSet(FILE_ATTRIBUTE_DIRECTORY)
}

func (self FileAttributes) IsSystem() bool {
	return self.IsSet(FILE_ATTRIBUTE_SYSTEM)
}

func (self FileAttributes) IsHidden() bool {
	return self.IsSet(FILE_ATTRIBUTE_HIDDEN)
}

func (self FileAttributes) IsReadOnly() bool {
	return self.IsSet(FILE_ATTRIBUTE_READONLY)
}

func (self FileAttributes) IsArchive() bool {
	return self.IsSet(FILE_ATTRIBUTE_ARCHIVE)
}

func (self FileAttributes) IsCompressed() bool {
	return self.IsSet(FILE_ATTRIBUTE_COMPRESSED)
}

// Letters renders the attribute column: the directory label followed
// by S, H and R for system, hidden and read only.
func (self FileAttributes) Letters(dir_label string) string {
	result := ""
	if self.IsDirectory() {
		result += dir_label
	}
	if self.IsSystem() {
		result += "S"
	}
	if self.IsHidden() {
		result += "H"
	}
	if self.IsReadOnly() {
		result += "R"
	}
	return result
}

func (self FileAttributes) DebugString() string {
	names := []string{}
	if self.IsReadOnly() {
		names = append(names, "READONLY")
	}
	if self.IsHidden() {
		names = append(names, "HIDDEN")
	}
	if self.IsSystem() {
		names = append(names, "SYSTEM")
	}
	if self.IsDirectory() {
		names = append(names, "DIRECTORY")
	}
	if self.IsArchive() {
		names = append(names, "ARCHIVE")
	}
	if self.IsCompressed() {
		names = append(names, "COMPRESSED")
	}

	return fmt.Sprintf("%d (%v)", uint32(self), strings.Join(names, ","))
}
