package parser

import (
	"errors"
	"fmt"
	"strings"
)

// Reason codes for USN records.
// https://docs.microsoft.com/en-us/windows/win32/api/winioctl/ns-winioctl-usn_record_v2
const (
	USN_REASON_DATA_OVERWRITE        ReasonFlags = 0x00000001
	USN_REASON_DATA_EXTEND           ReasonFlags = 0x00000002
	USN_REASON_DATA_TRUNCATION       ReasonFlags = 0x00000004
	USN_REASON_NAMED_DATA_OVERWRITE  ReasonFlags = 0x00000010
	USN_REASON_NAMED_DATA_EXTEND     ReasonFlags = 0x00000020
	USN_REASON_NAMED_DATA_TRUNCATION ReasonFlags = 0x00000040
	USN_REASON_FILE_CREATE           ReasonFlags = 0x00000100
	USN_REASON_FILE_DELETE           ReasonFlags = 0x00000200
	USN_REASON_EA_CHANGE             ReasonFlags = 0x00000400
	USN_REASON_SECURITY_CHANGE       ReasonFlags = 0x00000800
	USN_REASON_RENAME_OLD_NAME       ReasonFlags = 0x00001000
	USN_REASON_RENAME_NEW_NAME       ReasonFlags = 0x00002000
	USN_REASON_INDEXABLE_CHANGE      ReasonFlags = 0x00004000
	USN_REASON_BASIC_INFO_CHANGE     ReasonFlags = 0x00008000
	USN_REASON_HARD_LINK_CHANGE      ReasonFlags = 0x00010000
	USN_REASON_COMPRESSION_CHANGE    ReasonFlags = 0x00020000
	USN_REASON_ENCRYPTION_CHANGE     ReasonFlags = 0x00040000
	USN_REASON_OBJECT_ID_CHANGE      ReasonFlags = 0x00080000
	USN_REASON_REPARSE_POINT_CHANGE  ReasonFlags = 0x00100000
	USN_REASON_STREAM_CHANGE         ReasonFlags = 0x00200000
	USN_REASON_CLOSE                 ReasonFlags = 0x80000000

	// Reasons that describe a change to the file itself rather than
	// to its content. When any of these are present the content
	// bits are noise for display purposes.
	PROPERTY_CHANGE_MASK ReasonFlags = 0x00000f00
	CONTENT_CHANGE_MASK  ReasonFlags = 0x000000ff

	ALL_REASONS ReasonFlags = 0xffffffff
)

var (
	ErrNoReasonKeywords = errors.New("No reason keywords found")

	// Used when the caller does not request a specific reason mask.
	DefaultReasonFilter = USN_REASON_DATA_OVERWRITE |
		USN_REASON_DATA_EXTEND |
		USN_REASON_DATA_TRUNCATION |
		USN_REASON_EA_CHANGE |
		USN_REASON_ENCRYPTION_CHANGE |
		USN_REASON_FILE_CREATE |
		USN_REASON_FILE_DELETE |
		USN_REASON_HARD_LINK_CHANGE |
		USN_REASON_RENAME_OLD_NAME | USN_REASON_RENAME_NEW_NAME |
		USN_REASON_SECURITY_CHANGE

	// Indexed by bit number. Empty entries are reserved bits and
	// are rendered as their hex literal.
	reason_names = [32]string{
		"DataOverwrite",
		"DataExtend",
		"DataTruncation",
		"",
		"NamedDataOverwrite",
		"NamedDataExtend",
		"NamedDataTruncation",
		"",
		"FileCreate",
		"FileDelete",
		"PropertyChange",
		"SecurityChange",
		"RenameOldName",
		"RenameNewName",
		"IndexableChange",
		"BasicInfoChange",
		"HardLinkChange",
		"CompressionChange",
		"EncryptionChange",
		"ObjectIdChange",
		"ReparsePointChange",
		"StreamChange",
		"", "", "", "", "", "", "", "", "",
		"Close",
	}

	reason_keywords = []struct {
		keyword string
		flags   ReasonFlags
	}{
		{"overwrite", USN_REASON_DATA_OVERWRITE},
		{"extend", USN_REASON_DATA_EXTEND},
		{"truncate", USN_REASON_DATA_TRUNCATION},
		{"create", USN_REASON_FILE_CREATE},
		{"delete", USN_REASON_FILE_DELETE},
		{"rename", USN_REASON_RENAME_OLD_NAME | USN_REASON_RENAME_NEW_NAME},
		{"security", USN_REASON_SECURITY_CHANGE},
		{"basic", USN_REASON_BASIC_INFO_CHANGE},
		{"link", USN_REASON_HARD_LINK_CHANGE | USN_REASON_REPARSE_POINT_CHANGE},
		{"all", ALL_REASONS},
	}
)

// ReasonFlags is the change reason bitmask of a journal record.
type ReasonFlags uint32

func (self ReasonFlags) IsSet(flag ReasonFlags) bool {
	return self&flag != 0
}

func (self ReasonFlags) IsDelete() bool {
	return self.IsSet(USN_REASON_FILE_DELETE)
}

func (self ReasonFlags) IsRename() bool {
	return self.IsSet(USN_REASON_RENAME_OLD_NAME | USN_REASON_RENAME_NEW_NAME)
}

func (self ReasonFlags) HasPropertyChange() bool {
	return self.IsSet(PROPERTY_CHANGE_MASK)
}

// Narrow drops the content change bits when a property change is
// also present, so a created file does not show up as
// FileCreate+DataExtend+DataOverwrite.
func (self ReasonFlags) Narrow() ReasonFlags {
	if self.HasPropertyChange() {
		return self &^ CONTENT_CHANGE_MASK
	}
	return self
}

// Values returns the names of all set bits, least significant bit
// first.
func (self ReasonFlags) Values() []string {
	result := []string{}
	for i := 0; i < 32; i++ {
		bit := ReasonFlags(1) << uint(i)
		if self&bit == 0 {
			continue
		}

		name := reason_names[i]
		if name == "" {
			name = fmt.Sprintf("0x%08x", uint32(bit))
		}
		result = append(result, name)
	}
	return result
}

func (self ReasonFlags) String() string {
	return strings.Join(self.Values(), "+")
}

// ParseReasonNames is the inverse of String().
func ParseReasonNames(text string) (ReasonFlags, error) {
	var result ReasonFlags
	if text == "" {
		return 0, nil
	}

outer:
	for _, name := range strings.Split(text, "+") {
		for i, known := range reason_names {
			if known != "" && known == name {
				result |= ReasonFlags(1) << uint(i)
				continue outer
			}
		}

		var value uint32
		_, err := fmt.Sscanf(name, "0x%x", &value)
		if err != nil {
			return 0, fmt.Errorf("Unknown reason %q: %w", name, err)
		}
		result |= ReasonFlags(value)
	}
	return result, nil
}

// ParseReasonKeywords builds a reason mask from a free form keyword
// list such as "create+delete+rename". Keywords are found by
// substring search so any separator works.
func ParseReasonKeywords(text string) (ReasonFlags, error) {
	var result ReasonFlags

	lower := strings.ToLower(text)
	for _, item := range reason_keywords {
		if strings.Contains(lower, item.keyword) {
			result |= item.flags
		}
	}

	if result == 0 {
		return 0, fmt.Errorf("%w: %q", ErrNoReasonKeywords, text)
	}
	return result, nil
}
