package lvm2

import (
	"bytes"
	"reflect"

	"github.com/dsoprea/go-logging"
	"github.com/go-restruct/restruct"
)

const (
	// LabelSize is the size, in bytes, of the label sector region this
	// module reads looking for a PV label.
	LabelSize = 512

	// LabelScanSectors is the number of leading sectors scanned for a
	// label (LVM tolerates the label living anywhere in sectors 0-3 so it
	// can coexist with partition tables and boot sectors).
	LabelScanSectors = 4
)

var (
	labelID   = [8]byte{'L', 'A', 'B', 'E', 'L', 'O', 'N', 'E'}
	labelType = [8]byte{'L', 'V', 'M', '2', ' ', '0', '0', '1'}
)

// LabelHeader is the fixed-size header found at the start of any of the
// first LabelScanSectors sectors of an LVM2 physical volume.
type LabelHeader struct {
	// Id is mandatory and must equal "LABELONE".
	Id [8]byte

	// SectorXl is the sector number of this label, redundant with the
	// sector it was actually read from; this reader ignores it.
	SectorXl uint64

	// CrcXl covers everything from the next field to the end of the
	// sector; this reader does not validate it.
	CrcXl uint32

	// OffsetXl is the byte offset, within this sector, of the PV header.
	OffsetXl uint32

	// Type is mandatory and must equal "LVM2 001".
	Type [8]byte
}

// labelHeaderSize is the packed size of LabelHeader.
const labelHeaderSize = 8 + 8 + 4 + 4 + 8

// ScanForLabel scans the first LabelScanSectors sectors of `disk` for a
// valid LVM2 label. On a match, it returns the full LabelSize-byte sector
// buffer the label was found in, the byte offset of the PV header within
// that buffer, and whether the match was in sector 0 (which the installer
// helper treats as "boot sector occupied"). A scan that exhausts every
// candidate sector without a match is NOT an error: found is false and err
// is nil (spec §7's NO_SIGNATURE is a non-error result).
func ScanForLabel(disk Disk) (sectorBuf []byte, pvHeaderOffset uint32, inFirstSector bool, found bool, err error) {
	defer func() {
		if errRaw := recover(); errRaw != nil {
			var ok bool
			if err, ok = errRaw.(error); ok == true {
				err = log.Wrap(err)
			} else {
				err = log.Errorf("error not an error: [%s] [%v]", reflect.TypeOf(errRaw).Name(), errRaw)
			}
		}
	}()

	for i := uint64(0); i < LabelScanSectors; i++ {
		buf, err := disk.ReadAt(i, 0, LabelSize)
		log.PanicIf(err)

		var lh LabelHeader

		err = restruct.Unpack(buf[:labelHeaderSize], defaultEncoding, &lh)
		log.PanicIf(err)

		if bytes.Equal(lh.Id[:], labelID[:]) != true {
			continue
		}

		if bytes.Equal(lh.Type[:], labelType[:]) != true {
			continue
		}

		return buf, lh.OffsetXl, i == 0, true, nil
	}

	return nil, 0, false, false, nil
}
