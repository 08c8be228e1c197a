package parser

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

func TestReasonNames(t *testing.T) {
	lines := []string{}
	for i := 0; i < 32; i++ {
		flag := ReasonFlags(1) << uint(i)
		lines = append(lines, fmt.Sprintf("%08x %v", uint32(flag), flag))
	}

	g := goldie.New(t, goldie.WithFixtureDir("fixtures"))
	g.Assert(t, "TestReasonNames", []byte(strings.Join(lines, "\n")+"\n"))
}

func TestReasonString(t *testing.T) {
	assert.Equal(t, "", ReasonFlags(0).String())
	assert.Equal(t, "FileCreate+Close",
		(USN_REASON_FILE_CREATE | USN_REASON_CLOSE).String())
	assert.Equal(t, "DataExtend+0x00400000",
		(USN_REASON_DATA_EXTEND | 0x00400000).String())
}

func TestReasonRoundTrip(t *testing.T) {
	for _, mask := range []ReasonFlags{
		0, 1, 0x80000103, 0x00400008, ALL_REASONS, DefaultReasonFilter,
	} {
		parsed, err := ParseReasonNames(mask.String())
		assert.NoError(t, err)
		assert.Equal(t, mask, parsed, mask.String())
	}

	_, err := ParseReasonNames("FileCreate+Bogus")
	assert.Error(t, err)
}

func TestReasonNarrow(t *testing.T) {
	created := USN_REASON_FILE_CREATE | USN_REASON_DATA_EXTEND |
		USN_REASON_DATA_OVERWRITE | USN_REASON_CLOSE
	assert.Equal(t, USN_REASON_FILE_CREATE|USN_REASON_CLOSE, created.Narrow())

	// Content only changes are left alone.
	extended := USN_REASON_DATA_EXTEND | USN_REASON_CLOSE
	assert.Equal(t, extended, extended.Narrow())

	assert.True(t, USN_REASON_SECURITY_CHANGE.HasPropertyChange())
	assert.False(t, USN_REASON_RENAME_NEW_NAME.HasPropertyChange())
	assert.True(t, USN_REASON_RENAME_NEW_NAME.IsRename())
}

func TestReasonKeywords(t *testing.T) {
	mask, err := ParseReasonKeywords("create+delete+rename")
	assert.NoError(t, err)
	assert.Equal(t, USN_REASON_FILE_CREATE|USN_REASON_FILE_DELETE|
		USN_REASON_RENAME_OLD_NAME|USN_REASON_RENAME_NEW_NAME, mask)

	// Any separator and any case.
	mask, err = ParseReasonKeywords("CREATE,Extend")
	assert.NoError(t, err)
	assert.Equal(t, USN_REASON_FILE_CREATE|USN_REASON_DATA_EXTEND, mask)

	mask, err = ParseReasonKeywords("all")
	assert.NoError(t, err)
	assert.Equal(t, ALL_REASONS, mask)

	_, err = ParseReasonKeywords("xyz")
	assert.True(t, errors.Is(err, ErrNoReasonKeywords))
}

func TestAttributeLetters(t *testing.T) {
	attrs := FILE_ATTRIBUTE_DIRECTORY | FILE_ATTRIBUTE_SYSTEM |
		FILE_ATTRIBUTE_HIDDEN | FILE_ATTRIBUTE_READONLY
	assert.Equal(t, "DSHR", attrs.Letters("D"))
	assert.Equal(t, "<DIR>", FILE_ATTRIBUTE_DIRECTORY.Letters("<DIR>"))
	assert.Equal(t, "", FILE_ATTRIBUTE_ARCHIVE.Letters("D"))
	assert.Equal(t, "34 (HIDDEN,ARCHIVE)",
		(FILE_ATTRIBUTE_HIDDEN | FILE_ATTRIBUTE_ARCHIVE).DebugString())
}
