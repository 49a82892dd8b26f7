package lvm2

// syntheticPVSpec describes the PV-header side of a synthetic disk image.
type syntheticPVSpec struct {
	rawUUID         string
	sizeSectors     uint64
	dataAreas       []diskLocn
	metadataAreas   []diskLocn
	bootloaderAreas []diskLocn
	hasExtended     bool
}

// buildLabelSector renders a 512-byte label sector carrying a valid LVM2
// label whose PV header begins at pvHeaderOffset.
func buildLabelSector(pvHeaderOffset uint32) []byte {
	buf := make([]byte, LabelSize)

	copy(buf[0:8], labelID[:])
	defaultEncoding.PutUint64(buf[8:16], 0)
	defaultEncoding.PutUint32(buf[16:20], 0)
	defaultEncoding.PutUint32(buf[20:24], pvHeaderOffset)
	copy(buf[24:32], labelType[:])

	return buf
}

// appendDiskLocnList appends a null-terminated run of diskLocn descriptors
// to buf, returning the extended slice.
func appendDiskLocnList(buf []byte, locns []diskLocn) []byte {
	for _, dl := range locns {
		entry := make([]byte, diskLocnSize)
		defaultEncoding.PutUint64(entry[0:8], dl.Offset)
		defaultEncoding.PutUint64(entry[8:16], dl.Size)
		buf = append(buf, entry...)
	}

	terminator := make([]byte, diskLocnSize)
	buf = append(buf, terminator...)

	return buf
}

// buildPVHeader renders a PV header (optionally extended) per spec.
func buildPVHeader(spec syntheticPVSpec) []byte {
	buf := make([]byte, 0, 256)

	uuidBytes := make([]byte, IDLength)
	copy(uuidBytes, spec.rawUUID)
	buf = append(buf, uuidBytes...)

	sizeField := make([]byte, 8)
	defaultEncoding.PutUint64(sizeField, spec.sizeSectors)
	buf = append(buf, sizeField...)

	buf = appendDiskLocnList(buf, spec.dataAreas)
	buf = appendDiskLocnList(buf, spec.metadataAreas)

	if spec.hasExtended == true {
		extField := make([]byte, extPVHeaderFixedSize)
		defaultEncoding.PutUint32(extField[0:4], 1)
		defaultEncoding.PutUint32(extField[4:8], 0)
		buf = append(buf, extField...)

		buf = appendDiskLocnList(buf, spec.bootloaderAreas)
	}

	return buf
}

// buildMDARegion renders an entire metadata-area byte region of size
// mdaSize: an mda_header, its first raw_locn, and the metadata text placed
// at rlocn.Offset within the region. If wrap is true, the text is written
// so it wraps past mdaSize, exercising the ring-buffer dewrap path.
func buildMDARegion(mdaSize uint64, text string, wrap bool) []byte {
	region := make([]byte, mdaSize)

	copy(region[4:20], fmttMagic[:])
	defaultEncoding.PutUint32(region[20:24], fmttVersion)
	defaultEncoding.PutUint64(region[24:32], 0)
	defaultEncoding.PutUint64(region[32:40], mdaSize)

	var rlocnOffset uint64
	if wrap == true {
		rlocnOffset = mdaSize - uint64(len(text))/2
	} else {
		rlocnOffset = uint64(MDAHeaderSize + rawLocnSize)
	}

	defaultEncoding.PutUint64(region[40:48], rlocnOffset)
	defaultEncoding.PutUint64(region[48:56], uint64(len(text)))
	defaultEncoding.PutUint32(region[56:60], 0)
	defaultEncoding.PutUint32(region[60:64], 0)

	textBytes := []byte(text)

	firstPartLen := uint64(len(textBytes))
	if rlocnOffset+firstPartLen > mdaSize {
		firstPartLen = mdaSize - rlocnOffset
	}

	copy(region[rlocnOffset:], textBytes[:firstPartLen])

	// The remainder wrapped off the end of the ring back to just after the
	// header, mirroring what a real device's ring buffer would do.
	copy(region[MDAHeaderSize:], textBytes[firstPartLen:])

	return region
}

// buildSyntheticDisk assembles a full, single-PV disk image: a label
// sector at sector 0 with its PV header starting right after the label
// header, and a metadata area at a fixed byte offset carrying the given
// metadata text. It returns the assembled image as a MemDisk, along with
// the absolute byte offset the MDA region begins at (for tests that want
// to corrupt specific bytes).
func buildSyntheticDisk(rawUUID string, sizeSectors uint64, text string, wrap bool) (disk MemDisk, mdaOffset uint64) {
	const pvHeaderOffset = uint32(labelHeaderSize)
	const mdaSizeSectors = 4
	mdaSize := uint64(mdaSizeSectors * SectorSize)

	mdaOffset = uint64(LabelSize)

	pvSpec := syntheticPVSpec{
		rawUUID:     rawUUID,
		sizeSectors: sizeSectors,
		dataAreas: []diskLocn{
			{Offset: uint64(LabelSize), Size: sizeSectors*SectorSize - uint64(LabelSize)},
		},
		metadataAreas: []diskLocn{
			{Offset: mdaOffset, Size: mdaSize},
		},
	}

	labelSector := buildLabelSector(pvHeaderOffset)
	pvHeaderBytes := buildPVHeader(pvSpec)
	copy(labelSector[pvHeaderOffset:], pvHeaderBytes)

	mdaRegion := buildMDARegion(mdaSize, text, wrap)

	total := mdaOffset + mdaSize
	if total < sizeSectors*SectorSize {
		total = sizeSectors * SectorSize
	}

	disk = make(MemDisk, total)
	copy(disk[0:LabelSize], labelSector)
	copy(disk[mdaOffset:], mdaRegion)

	return disk, mdaOffset
}

// buildSyntheticEmbedDisk is buildSyntheticDisk plus an extended PV header
// carrying a bootloader-area descriptor, for installer-helper tests.
// labelSector selects which of the first LabelScanSectors sectors carries
// the label, so tests can exercise both the "boot sector free" and
// "boot sector occupied" cases.
func buildSyntheticEmbedDisk(labelSector_ uint64, rawUUID string, sizeSectors uint64, text string, bootOffset, bootSize uint64) MemDisk {
	const pvHeaderOffset = uint32(labelHeaderSize)
	const mdaSizeSectors = 4
	mdaSize := uint64(mdaSizeSectors * SectorSize)

	labelStart := labelSector_ * SectorSize
	mdaOffset := labelStart + uint64(LabelSize)

	pvSpec := syntheticPVSpec{
		rawUUID:     rawUUID,
		sizeSectors: sizeSectors,
		dataAreas: []diskLocn{
			{Offset: mdaOffset, Size: sizeSectors*SectorSize - mdaOffset},
		},
		metadataAreas: []diskLocn{
			{Offset: mdaOffset, Size: mdaSize},
		},
		bootloaderAreas: []diskLocn{
			{Offset: bootOffset, Size: bootSize},
		},
		hasExtended: true,
	}

	labelSectorBytes := buildLabelSector(pvHeaderOffset)
	pvHeaderBytes := buildPVHeader(pvSpec)
	copy(labelSectorBytes[pvHeaderOffset:], pvHeaderBytes)

	mdaRegion := buildMDARegion(mdaSize, text, false)

	total := mdaOffset + mdaSize
	if bootOffset+bootSize > total {
		total = bootOffset + bootSize
	}
	if total < sizeSectors*SectorSize {
		total = sizeSectors * SectorSize
	}

	disk := make(MemDisk, total)
	copy(disk[labelStart:labelStart+uint64(LabelSize)], labelSectorBytes)
	copy(disk[mdaOffset:], mdaRegion)

	return disk
}
