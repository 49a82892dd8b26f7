package lvm2

import (
	"reflect"

	"github.com/dsoprea/go-logging"
	"github.com/go-restruct/restruct"
)

// diskLocn is a {offset, size} descriptor found inside a PV header's
// data-area, metadata-area, or bootloader-area lists. A descriptor with
// Offset == 0 terminates its list.
type diskLocn struct {
	Offset uint64
	Size   uint64
}

const diskLocnSize = 8 + 8

// pvHeaderFixed is the fixed-size prefix of the PV header, immediately
// followed by the data-area list and then the metadata-area list (each
// null-terminated by a zero-offset descriptor).
type pvHeaderFixed struct {
	PvUuid   [IDLength]byte
	PvSizeXl uint64
}

const pvHeaderFixedSize = IDLength + 8

// extPVHeaderFixed is the fixed-size prefix of the extended PV header,
// present only when a non-zero VersionXl follows the metadata-area list.
// It is immediately followed by the bootloader-area list.
type extPVHeaderFixed struct {
	VersionXl uint32
	FlagsXl   uint32
}

const extPVHeaderFixedSize = 4 + 4

// PVHeader is the parsed representation of an LVM2 PV header: the raw PV
// UUID, the PV's total size, and the offsets of the three descriptor lists
// the header carries.
type PVHeader struct {
	// RawUUID is the 32-character raw PV UUID.
	RawUUID string

	// SizeSectors is the total size of the PV, in sectors.
	SizeSectors uint64

	dataAreas     []diskLocn
	metadataAreas []diskLocn

	// hasExtendedHeader is whether an extended PV header (and therefore a
	// possible bootloader-area list) follows the metadata-area list.
	hasExtendedHeader bool
	bootloaderAreas   []diskLocn
}

// readDiskLocnList walks a null-terminated run of diskLocn descriptors
// starting at `buf[pos]`, returning the parsed list and the position just
// past the terminating zero-offset descriptor.
func readDiskLocnList(buf []byte, pos int) (locns []diskLocn, newPos int, err error) {
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

	locns = make([]diskLocn, 0)

	for {
		if pos+diskLocnSize > len(buf) {
			log.Panicf("disk-locn list runs past end of PV header buffer")
		}

		var dl diskLocn

		err = restruct.Unpack(buf[pos:pos+diskLocnSize], defaultEncoding, &dl)
		log.PanicIf(err)

		pos += diskLocnSize

		if dl.Offset == 0 {
			break
		}

		locns = append(locns, dl)
	}

	return locns, pos, nil
}

// ParsePVHeader interprets the PV header found at `buf` (the slice returned
// by ScanForLabel, sliced from its PV-header offset onward).
func ParsePVHeader(buf []byte) (pvh *PVHeader, err error) {
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

	if len(buf) < pvHeaderFixedSize {
		log.Panicf("buffer too small for PV header")
	}

	var fixed pvHeaderFixed

	err = restruct.Unpack(buf[:pvHeaderFixedSize], defaultEncoding, &fixed)
	log.PanicIf(err)

	pos := pvHeaderFixedSize

	dataAreas, pos, err := readDiskLocnList(buf, pos)
	log.PanicIf(err)

	metadataAreas, pos, err := readDiskLocnList(buf, pos)
	log.PanicIf(err)

	pvh = &PVHeader{
		RawUUID:       string(fixed.PvUuid[:]),
		SizeSectors:   fixed.PvSizeXl,
		dataAreas:     dataAreas,
		metadataAreas: metadataAreas,
	}

	// The extended header is optional; a short remaining buffer just means
	// it isn't present.
	if pos+extPVHeaderFixedSize > len(buf) {
		return pvh, nil
	}

	var ext extPVHeaderFixed

	err = restruct.Unpack(buf[pos:pos+extPVHeaderFixedSize], defaultEncoding, &ext)
	log.PanicIf(err)

	if ext.VersionXl == 0 {
		return pvh, nil
	}

	pos += extPVHeaderFixedSize

	bootloaderAreas, _, err := readDiskLocnList(buf, pos)
	log.PanicIf(err)

	pvh.hasExtendedHeader = true
	pvh.bootloaderAreas = bootloaderAreas

	return pvh, nil
}

// LocateMetadata returns the offset and size of the PV's (sole supported)
// metadata area, per spec §4.B. It fails with KindNotImplemented if a
// second data area is present — this module only ever supports one.
func (pvh *PVHeader) LocateMetadata() (mdaOffset, mdaSize uint64, err error) {
	if len(pvh.dataAreas) > 1 {
		return 0, 0, errNotImplemented("multiple LVM data areas are not supported")
	}

	if len(pvh.metadataAreas) == 0 {
		return 0, 0, errBadMetadata("no metadata area present in PV header")
	}

	mda := pvh.metadataAreas[0]

	return mda.Offset, mda.Size, nil
}

// LocateBootloaderArea returns the offset and size of the PV's bootloader
// area, per spec §4.B/§4.E. It fails with KindBadDevice if no extended
// header, a zero version, or no bootloader-area descriptor is present.
func (pvh *PVHeader) LocateBootloaderArea() (offset, size uint64, err error) {
	if pvh.hasExtendedHeader == false {
		return 0, 0, errBadDevice("PV has no extended header, so no bootloader area")
	}

	if len(pvh.bootloaderAreas) == 0 {
		return 0, 0, errBadDevice("PV has no bootloader area")
	}

	ba := pvh.bootloaderAreas[0]

	if ba.Offset == 0 || ba.Size == 0 {
		return 0, 0, errBadDevice("PV bootloader-area descriptor is empty")
	}

	return ba.Offset, ba.Size, nil
}
