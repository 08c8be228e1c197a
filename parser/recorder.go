package parser

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	ErrNotRecorded = errors.New("Page not recorded")
)

// Recorder wraps a journal source and saves every page it returns
// in a directory. Pages already present in the directory are served
// from there, so a scan of a live volume can be replayed later on
// any platform. With no delegate the recorder only replays.
type Recorder struct {
	path string

	// Delegate source
	source JournalSource
}

func NewRecorder(path string, source JournalSource) *Recorder {
	return &Recorder{path: path, source: source}
}

func (self *Recorder) pagePath(req *ReadRequest) string {
	return filepath.Join(self.path, fmt.Sprintf("%#016x-%08x.bin",
		req.StartUsn, uint32(req.ReasonMask)))
}

func (self *Recorder) QueryJournal() (*JournalData, error) {
	full_path := filepath.Join(self.path, "journal.json")
	serialized, err := os.ReadFile(full_path)
	if err == nil {
		result := &JournalData{}
		err = json.Unmarshal(serialized, result)
		if err != nil {
			return nil, fmt.Errorf("Recorder: %v: %w", full_path, err)
		}
		return result, nil
	}

	if self.source == nil {
		return nil, fmt.Errorf("%w: %v", ErrNotRecorded, full_path)
	}

	result, err := self.source.QueryJournal()
	if err != nil {
		return nil, err
	}

	serialized, err = json.MarshalIndent(result, "", " ")
	if err == nil {
		err = self.save(full_path, serialized)
	}
	if err != nil {
		DebugPrint("Recorder: %v\n", err)
	}
	return result, nil
}

func (self *Recorder) ReadJournal(req *ReadRequest, buf []byte) (int, error) {
	full_path := self.pagePath(req)
	fd, err := os.Open(full_path)
	if err == nil {
		defer fd.Close()

		stat, err := fd.Stat()
		if err != nil {
			return 0, err
		}
		if stat.Size() > int64(len(buf)) {
			return 0, fmt.Errorf("%w: %v", ErrPageTooSmall, full_path)
		}
		return fd.ReadAt(buf[:stat.Size()], 0)
	}

	// Replaying past the last recorded page is the end of the
	// journal.
	if self.source == nil {
		binary.LittleEndian.PutUint64(buf, req.StartUsn)
		return USN_PREFIX_SIZE, nil
	}

	// Pass the read to the delegate and keep it for next time. Empty
	// pages are not kept so tailing sees new records.
	n, err := self.source.ReadJournal(req, buf)
	if err != nil || n <= USN_PREFIX_SIZE {
		return n, err
	}

	err = self.save(full_path, buf[:n])
	if err != nil {
		DebugPrint("Recorder: %v\n", err)
	}
	return n, nil
}

func (self *Recorder) save(full_path string, data []byte) error {
	err := os.MkdirAll(self.path, 0770)
	if err != nil {
		return err
	}
	return os.WriteFile(full_path, data, 0660)
}

type recordedVolume struct {
	Volume
	recorder *Recorder
}

func (self *recordedVolume) QueryJournal() (*JournalData, error) {
	return self.recorder.QueryJournal()
}

func (self *recordedVolume) ReadJournal(req *ReadRequest, buf []byte) (int, error) {
	return self.recorder.ReadJournal(req, buf)
}

// RecordVolume saves all journal pages read from volume in path.
// Path resolution still goes to the volume.
func RecordVolume(path string, volume Volume) Volume {
	return &recordedVolume{
		Volume:   volume,
		recorder: NewRecorder(path, volume),
	}
}

// ReplayVolume serves the journal pages previously recorded in path.
type ReplayVolume struct {
	*Recorder
}

func NewReplayVolume(path string) *ReplayVolume {
	return &ReplayVolume{Recorder: NewRecorder(path, nil)}
}

func (self *ReplayVolume) Drive() string {
	return self.path
}

func (self *ReplayVolume) OpenByID(id uint64) (Object, error) {
	return nil, ErrNoObjectStore
}

func (self *ReplayVolume) Close() error {
	return nil
}
