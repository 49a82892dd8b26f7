package lvm2

import (
	"reflect"

	"github.com/dsoprea/go-logging"
)

// HasPV reports whether disk carries a valid LVM2 label, without parsing
// anything beyond it (spec §4's "cheapest possible check" entry point). A
// disk with no label is NOT an error: found is false and err is nil.
func HasPV(disk Disk) (found bool, err error) {
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

	_, _, _, found, err = ScanForLabel(disk)
	log.PanicIf(err)

	return found, nil
}

// Detect runs the full discovery pipeline on disk: locate the label (A),
// parse the PV header (B), parse the VG metadata text (C), and link
// segment nodes into a topology (D). It returns (nil, nil) when disk
// carries no LVM2 label at all (spec §7's NO_SIGNATURE is a non-error).
//
// If registry already holds a VG with the same UUID as the one just read,
// Detect discards the freshly-parsed VG and returns the registered one
// instead, rather than registering a second copy (spec §5's dedup policy).
func Detect(disk Disk, registry Registry) (vg *VG, err error) {
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

	sectorBuf, pvHeaderOffset, _, found, err := ScanForLabel(disk)
	log.PanicIf(err)

	if found == false {
		return nil, nil
	}

	if int(pvHeaderOffset) >= len(sectorBuf) {
		panic(errBadMetadata("PV header offset runs past label sector"))
	}

	pvh, err := ParsePVHeader(sectorBuf[pvHeaderOffset:])
	log.PanicIf(err)

	freshVG, err := ReadVG(disk, pvh)
	log.PanicIf(err)

	if registry != nil {
		if existing, alreadyKnown := registry.GetVGByUUID(freshVG.RawUUID); alreadyKnown == true {
			return existing, nil
		}
	}

	err = Link(freshVG)
	log.PanicIf(err)

	if registry != nil {
		registry.RegisterVG(freshVG)
	}

	return freshVG, nil
}
