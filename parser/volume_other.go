//go:build !windows

package parser

// OpenVolume is unsupported on non-Windows platforms: reading the
// live journal needs FSCTL_READ_USN_JOURNAL. Use a FileJournal over
// an extracted $J stream instead.
func OpenVolume(volume string) (Volume, error) {
	_, err := DriveLetter(volume)
	if err != nil {
		return nil, err
	}
	return nil, ErrNotSupported
}
