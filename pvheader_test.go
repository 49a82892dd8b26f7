package lvm2

import (
	"testing"
)

func TestParsePVHeader_Basic(t *testing.T) {
	spec := syntheticPVSpec{
		rawUUID:     "PVUUID00000000000000000000000001",
		sizeSectors: 2048,
		dataAreas: []diskLocn{
			{Offset: 512, Size: 1000},
		},
		metadataAreas: []diskLocn{
			{Offset: 2048, Size: 4096},
		},
	}

	buf := buildPVHeader(spec)

	pvh, err := ParsePVHeader(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if pvh.RawUUID != spec.rawUUID {
		t.Fatalf("unexpected raw uuid: (%s)", pvh.RawUUID)
	}

	if pvh.SizeSectors != spec.sizeSectors {
		t.Fatalf("unexpected size: (%d)", pvh.SizeSectors)
	}

	mdaOffset, mdaSize, err := pvh.LocateMetadata()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if mdaOffset != 2048 || mdaSize != 4096 {
		t.Fatalf("unexpected metadata location: (%d) (%d)", mdaOffset, mdaSize)
	}

	_, _, err = pvh.LocateBootloaderArea()
	if err == nil {
		t.Fatalf("expected an error locating a bootloader area on a non-extended header")
	}

	kind, ok := KindOf(err)
	if ok != true || kind != KindBadDevice {
		t.Fatalf("expected KindBadDevice, got (%v) (%v)", kind, ok)
	}
}

func TestParsePVHeader_MultipleDataAreasNotImplemented(t *testing.T) {
	spec := syntheticPVSpec{
		rawUUID:     "PVUUID00000000000000000000000002",
		sizeSectors: 2048,
		dataAreas: []diskLocn{
			{Offset: 512, Size: 1000},
			{Offset: 1512, Size: 500},
		},
		metadataAreas: []diskLocn{
			{Offset: 2048, Size: 4096},
		},
	}

	buf := buildPVHeader(spec)

	pvh, err := ParsePVHeader(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, _, err = pvh.LocateMetadata()
	if err == nil {
		t.Fatalf("expected an error for multiple data areas")
	}

	kind, ok := KindOf(err)
	if ok != true || kind != KindNotImplemented {
		t.Fatalf("expected KindNotImplemented, got (%v) (%v)", kind, ok)
	}
}

func TestParsePVHeader_ExtendedWithBootloaderArea(t *testing.T) {
	spec := syntheticPVSpec{
		rawUUID:     "PVUUID00000000000000000000000003",
		sizeSectors: 2048,
		dataAreas: []diskLocn{
			{Offset: 512, Size: 1000},
		},
		metadataAreas: []diskLocn{
			{Offset: 2048, Size: 4096},
		},
		bootloaderAreas: []diskLocn{
			{Offset: 1024, Size: 512},
		},
		hasExtended: true,
	}

	buf := buildPVHeader(spec)

	pvh, err := ParsePVHeader(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	offset, size, err := pvh.LocateBootloaderArea()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if offset != 1024 || size != 512 {
		t.Fatalf("unexpected bootloader area: (%d) (%d)", offset, size)
	}
}
