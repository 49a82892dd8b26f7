package lvm2

import (
	"reflect"

	"github.com/dsoprea/go-logging"
)

// EmbedType names the bootloader embedding strategy the caller intends to
// use. PC-BIOS is the only one this module knows how to locate space for
// (spec §4.E); any other value is refused outright.
type EmbedType int

const (
	EmbedTypePCBIOS EmbedType = iota
	EmbedTypeOther
)

// Embed implements the installer helper (component E, spec §4.E):
// given a disk, it returns the sector numbers of a bootloader area an
// installer may write boot code into, capped at maxSectors.
//
// "The GRUB author who wrote the original of this routine noted that a
// PV's bootloader-area descriptor can survive a subsequent pvcreate that
// shrank or relocated it, so a disk could in principle carry a stale
// pointer into space that has since been reused; the original chose not to
// defend against this, and this routine preserves that choice rather than
// adding validation the original never had."
func Embed(disk Disk, registry Registry, maxSectors uint32, embedType EmbedType) (sectors []uint64, err error) {
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

	if embedType != EmbedTypePCBIOS {
		panic(errNotImplemented("embed type %d is not supported", embedType))
	}

	sectorBuf, pvHeaderOffset, inFirstSector, found, err := ScanForLabel(disk)
	log.PanicIf(err)

	if found == false {
		panic(errBadDevice("no LVM2 label found"))
	}

	if inFirstSector == true {
		panic(errBadDevice("boot sector not free"))
	}

	if int(pvHeaderOffset) >= len(sectorBuf) {
		panic(errBadMetadata("PV header offset runs past label sector"))
	}

	pvh, err := ParsePVHeader(sectorBuf[pvHeaderOffset:])
	log.PanicIf(err)

	// Ensure the VG for this disk has already been discovered; the return
	// value is unused on purpose (spec §4.E step 3) — the side effect is
	// what matters.
	if registry != nil {
		_, _, _ = registry.GetPVFromDisk(disk)
	}

	baOffset, baSize, err := pvh.LocateBootloaderArea()
	log.PanicIf(err)

	if baOffset%SectorSize != 0 {
		panic(errBadDevice("bootloader area is not sector-aligned"))
	}

	startSector := baOffset / SectorSize
	available := baSize / SectorSize

	count := available
	if uint64(maxSectors) < count {
		count = uint64(maxSectors)
	}

	sectors = make([]uint64, count)
	for i := uint64(0); i < count; i++ {
		sectors[i] = startSector + i
	}

	return sectors, nil
}
