// This package implements an LVM2 (Logical Volume Manager, version 2)
// discovery and topology resolver: given raw access to a block device, it
// locates the PV label, reads the PV header, parses the textual VG metadata,
// and links logical-volume segments to the physical volumes or logical
// volumes they reference.

package lvm2

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/dsoprea/go-logging"
)

// SectorSize is the fixed sector size this module assumes throughout (the
// same assumption GRUB's LVM2 reader makes).
const SectorSize = 512

// defaultEncoding is the byte-order every on-disk LVM2 structure is packed
// with.
var defaultEncoding = binary.LittleEndian

// Disk is the block-device collaborator this module reads through. It is
// intentionally the only I/O boundary in the package; everything else is
// pure in-memory parsing over the bytes a Disk hands back.
type Disk interface {
	// ReadAt reads `length` bytes starting `byteOffset` bytes into sector
	// `sector`. Implementations report any underlying I/O failure as `err`;
	// callers never distinguish short-read from other failures.
	ReadAt(sector uint64, byteOffset uint32, length uint32) (data []byte, err error)
}

// FileDisk adapts an *os.File (or anything with a ReadAt) to the Disk
// interface.
type FileDisk struct {
	ra io.ReaderAt
}

// NewFileDisk returns a new FileDisk reading through `ra`.
func NewFileDisk(ra io.ReaderAt) *FileDisk {
	return &FileDisk{
		ra: ra,
	}
}

// ReadAt implements Disk.
func (fd *FileDisk) ReadAt(sector uint64, byteOffset uint32, length uint32) (data []byte, err error) {
	defer func() {
		if errRaw := recover(); errRaw != nil {
			err = log.Wrap(errRaw.(error))
		}
	}()

	absoluteOffset := int64(sector)*int64(SectorSize) + int64(byteOffset)

	data = make([]byte, length)

	_, err = fd.ra.ReadAt(data, absoluteOffset)
	if err != nil {
		panic(errIO(err))
	}

	return data, nil
}

// OpenFileDisk opens `path` and returns a Disk over it along with the
// underlying *os.File (the caller is responsible for closing it).
func OpenFileDisk(path string) (disk *FileDisk, f *os.File, err error) {
	defer func() {
		if errRaw := recover(); errRaw != nil {
			err = log.Wrap(errRaw.(error))
		}
	}()

	f, err = os.Open(path)
	log.PanicIf(err)

	disk = NewFileDisk(f)

	return disk, f, nil
}

// MemDisk is an in-memory Disk, used by tests (and anything that already has
// a full disk image buffered).
type MemDisk []byte

// ReadAt implements Disk.
func (md MemDisk) ReadAt(sector uint64, byteOffset uint32, length uint32) (data []byte, err error) {
	defer func() {
		if errRaw := recover(); errRaw != nil {
			err = log.Wrap(errRaw.(error))
		}
	}()

	absoluteOffset := sector*SectorSize + uint64(byteOffset)

	if absoluteOffset+uint64(length) > uint64(len(md)) {
		panic(errIO(io.ErrUnexpectedEOF))
	}

	data = make([]byte, length)
	copy(data, md[absoluteOffset:absoluteOffset+uint64(length)])

	return data, nil
}
