package parser

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotSupported = errors.New("Live volumes are only supported on Windows")
)

// Volume is an open drive which is both a journal source and an
// object store for path resolution.
type Volume interface {
	JournalSource
	ObjectStore

	Drive() string
	Close() error
}

// HasObjectStore reports whether ids on the volume can be opened.
// Extracted $J files and replayed recordings only carry the journal.
func HasObjectStore(volume Volume) bool {
	switch volume.(type) {
	case *FileJournal, *ReplayVolume:
		return false
	}
	return true
}

// DriveLetter normalizes volume names like "c", "c:" or "C:\" to an
// upper case drive letter.
func DriveLetter(volume string) (string, error) {
	volume = strings.TrimRight(volume, `\/`)
	volume = strings.TrimSuffix(volume, ":")
	if len(volume) != 1 {
		return "", fmt.Errorf("Invalid volume %q: expected a drive letter", volume)
	}

	letter := strings.ToUpper(volume)
	if letter[0] < 'A' || letter[0] > 'Z' {
		return "", fmt.Errorf("Invalid volume %q: expected a drive letter", volume)
	}
	return letter, nil
}

// SplitVolumeArg splits an argument like "c:*.txt" into the volume
// and a name pattern which applies to that volume only. Plain drive
// arguments have no pattern.
func SplitVolumeArg(arg string) (volume, pattern string) {
	if len(arg) <= 2 {
		return arg, ""
	}

	if arg[1] == ':' {
		rest := arg[2:]
		if rest == `\` || rest == "/" {
			return arg[:2], ""
		}
		return arg[:2], rest
	}

	return arg[:1], arg
}
