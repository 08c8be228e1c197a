//go:build windows

package parser

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	FSCTL_QUERY_USN_JOURNAL = 0x000900f4
	FSCTL_READ_USN_JOURNAL  = 0x000900bb

	fileReadAttributes = 0x80
	fileOpen           = 0x1
	fileOpenByFileID   = 0x2000
	objCaseInsensitive = 0x40

	// FILE_INFO_BY_HANDLE_CLASS
	fileStandardInfoClass = 1
	fileNameInfoClass     = 2
)

// USN_JOURNAL_DATA_V0
type usnJournalData struct {
	UsnJournalID    uint64
	FirstUsn        int64
	NextUsn         int64
	LowestValidUsn  int64
	MaxUsn          int64
	MaximumSize     uint64
	AllocationDelta uint64
}

// READ_USN_JOURNAL_DATA_V0
type readUsnJournalData struct {
	StartUsn          int64
	ReasonMask        uint32
	ReturnOnlyOnClose uint32
	Timeout           uint64
	BytesToWaitFor    uint64
	UsnJournalID      uint64
}

// FILE_STANDARD_INFO
type fileStandardInfo struct {
	AllocationSize int64
	EndOfFile      int64
	NumberOfLinks  uint32
	DeletePending  bool
	Directory      bool
}

type WindowsVolume struct {
	drive  string
	handle windows.Handle
}

// OpenVolume opens the raw volume \\.\X: for reading.
func OpenVolume(volume string) (Volume, error) {
	letter, err := DriveLetter(volume)
	if err != nil {
		return nil, err
	}

	device := `\\.\` + letter + ":"
	name, err := windows.UTF16PtrFromString(device)
	if err != nil {
		return nil, err
	}

	handle, err := windows.CreateFile(name, windows.GENERIC_READ,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE, nil,
		windows.OPEN_EXISTING, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("Failed to open drive %v: %w", device, err)
	}

	return &WindowsVolume{drive: letter + ":", handle: handle}, nil
}

func (self *WindowsVolume) Drive() string {
	return self.drive
}

func (self *WindowsVolume) Close() error {
	return windows.CloseHandle(self.handle)
}

func (self *WindowsVolume) QueryJournal() (*JournalData, error) {
	var data usnJournalData
	var returned uint32

	err := windows.DeviceIoControl(self.handle, FSCTL_QUERY_USN_JOURNAL,
		nil, 0,
		(*byte)(unsafe.Pointer(&data)), uint32(unsafe.Sizeof(data)),
		&returned, nil)
	if err != nil {
		return nil, fmt.Errorf("FSCTL_QUERY_USN_JOURNAL on %v: %w", self.drive, err)
	}

	return &JournalData{
		UsnJournalID:    data.UsnJournalID,
		FirstUsn:        uint64(data.FirstUsn),
		NextUsn:         uint64(data.NextUsn),
		LowestValidUsn:  uint64(data.LowestValidUsn),
		MaxUsn:          uint64(data.MaxUsn),
		MaximumSize:     data.MaximumSize,
		AllocationDelta: data.AllocationDelta,
	}, nil
}

func (self *WindowsVolume) ReadJournal(req *ReadRequest, buf []byte) (int, error) {
	if len(buf) < USN_PREFIX_SIZE {
		return 0, ErrPageTooSmall
	}

	in := readUsnJournalData{
		StartUsn:     int64(req.StartUsn),
		ReasonMask:   uint32(req.ReasonMask),
		UsnJournalID: req.UsnJournalID,
	}
	var returned uint32

	err := windows.DeviceIoControl(self.handle, FSCTL_READ_USN_JOURNAL,
		(*byte)(unsafe.Pointer(&in)), uint32(unsafe.Sizeof(in)),
		&buf[0], uint32(len(buf)),
		&returned, nil)
	if err != nil {
		return 0, fmt.Errorf("FSCTL_READ_USN_JOURNAL on %v: %w", self.drive, err)
	}

	return int(returned), nil
}

// OpenByID opens a file or directory by its file reference number
// relative to the volume handle.
func (self *WindowsVolume) OpenByID(id uint64) (Object, error) {
	file_id := id
	object_name := &windows.NTUnicodeString{
		Length:        8,
		MaximumLength: 8,
		Buffer:        (*uint16)(unsafe.Pointer(&file_id)),
	}

	attr := &windows.OBJECT_ATTRIBUTES{
		RootDirectory: self.handle,
		ObjectName:    object_name,
		Attributes:    objCaseInsensitive,
	}
	attr.Length = uint32(unsafe.Sizeof(*attr))

	var handle windows.Handle
	var iosb windows.IO_STATUS_BLOCK

	err := windows.NtCreateFile(&handle, fileReadAttributes, attr, &iosb,
		nil, windows.FILE_ATTRIBUTE_NORMAL,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		fileOpen, fileOpenByFileID, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("Open file id %#x: %w", id, err)
	}

	return &windowsObject{handle: handle}, nil
}

type windowsObject struct {
	handle windows.Handle
}

// Name returns the path relative to the volume root, e.g. \Windows\notepad.exe
func (self *windowsObject) Name() (string, error) {
	size := 4 + 2*1024
	for {
		buf := make([]byte, size)
		err := windows.GetFileInformationByHandleEx(self.handle,
			fileNameInfoClass, &buf[0], uint32(len(buf)))
		if errors.Is(err, windows.ERROR_MORE_DATA) {
			required := 4 + int(binary.LittleEndian.Uint32(buf[:4]))
			if required > size && required < 0x20000 {
				size = required
				continue
			}
		}
		if err != nil {
			return "", err
		}

		length := int(binary.LittleEndian.Uint32(buf[:4]))
		if 4+length > len(buf) {
			return "", windows.ERROR_MORE_DATA
		}
		return UTF16ToString(buf[4 : 4+length]), nil
	}
}

func (self *windowsObject) AllocationSize() (int64, error) {
	var info fileStandardInfo
	err := windows.GetFileInformationByHandleEx(self.handle,
		fileStandardInfoClass,
		(*byte)(unsafe.Pointer(&info)), uint32(unsafe.Sizeof(info)))
	if err != nil {
		return 0, err
	}
	return info.AllocationSize, nil
}

func (self *windowsObject) Close() error {
	return windows.CloseHandle(self.handle)
}
