package lvm2

import (
	"bytes"
	"fmt"
	"reflect"
	"strconv"

	"github.com/dsoprea/go-logging"
	"github.com/dustin/go-humanize"
	"github.com/go-restruct/restruct"
)

// mdaHeaderFixedSize is the packed size of mdaHeader, also the offset at
// which the first raw_locn begins.
const mdaHeaderFixedSize = 4 + 16 + 4 + 8 + 8

// MDAHeaderSize is the size of the mda_header region (the fixed header plus
// its raw_locn array) at the start of a metadata area; the metadata-text
// ring begins right after it.
const MDAHeaderSize = 512

// maxMetadataAreaAllocation caps the ring-dewrap working buffer
// (2 * mda_size) this module is willing to allocate on a single PV's
// say-so. Real metadata areas run a few MiB at most; anything claiming
// more is a corrupt or hostile descriptor, not a legitimate VG.
const maxMetadataAreaAllocation = 256 << 20

// fmttMagic is the constant every valid MDA header must carry.
var fmttMagic = [16]byte{' ', 'L', 'V', 'M', '2', ' ', 'x', '[', '5', 'A', '%', 'r', '0', 'N', '*', '>'}

// fmttVersion is the only metadata format version this module understands.
const fmttVersion = 1

// mdaHeader is the fixed-size header at the start of a metadata area.
type mdaHeader struct {
	ChecksumXl uint32
	Magic      [16]byte
	Version    uint32
	Start      uint64
	Size       uint64
}

// rawLocn is a {offset, size, checksum, flags} pointer into an MDA
// identifying the current text region. Only the first one is ever consumed
// (spec §4.C).
type rawLocn struct {
	Offset   uint64
	Size     uint64
	Checksum uint32
	Flags    uint32
}

const rawLocnSize = 8 + 8 + 4 + 4

// SegmentType enumerates the LV segment mapping policies this module
// understands (spec §3; thin/cache/snapshot/RAID-0/RAID-10 are non-goals).
type SegmentType int

const (
	SegmentStriped SegmentType = iota
	SegmentMirror
	SegmentRAID4
	SegmentRAID5
	SegmentRAID6
)

// String renders the segment type the way it appears in LVM metadata text.
func (st SegmentType) String() string {
	switch st {
	case SegmentStriped:
		return "striped"
	case SegmentMirror:
		return "mirror"
	case SegmentRAID4:
		return "raid4"
	case SegmentRAID5:
		return "raid5"
	case SegmentRAID6:
		return "raid6"
	default:
		return "unknown"
	}
}

// RAIDLayout is the RAID-geometry flag set assigned to RAID4/5/6 segments
// (spec §4.C). It is meaningless for STRIPED and MIRROR segments.
type RAIDLayout uint32

const (
	RAIDLayoutLeftAsymmetric RAIDLayout = iota
	RAIDLayoutLeftSymmetric
	RAIDLayoutRightAsymmetric
	RAIDLayoutRightSymmetric

	// RAIDLayoutMulFromPos is an orthogonal flag OR'd into RAID6's layout.
	RAIDLayoutMulFromPos RAIDLayout = 1 << 8
)

// NodeTarget is the resolved, mutually-exclusive target of a segment Node:
// exactly one of pvTarget, lvTarget, or unresolvedTarget. This is the sum-
// type encoding Design Notes (spec §9) call for, making invariant #4
// (pv != nil XOR lv != nil XOR neither) a property of the type rather than
// a runtime convention over two nullable pointers.
type NodeTarget interface {
	isNodeTarget()
}

type pvTarget struct{ pv *PV }
type lvTarget struct{ lv *LV }
type unresolvedTarget struct{}

func (pvTarget) isNodeTarget()         {}
func (lvTarget) isNodeTarget()         {}
func (unresolvedTarget) isNodeTarget() {}

// Node is one device referenced by a Segment: either a PV or another LV in
// the same VG, named in the metadata text and resolved by the Topology
// Linker (component D).
type Node struct {
	// Name is the target's name within the owning VG, as written in the
	// metadata text.
	Name string

	// Start is the start offset inside the target, in sectors.
	Start uint64

	// Target is the linker's resolution of Name, or unresolvedTarget{} if
	// the linker hasn't run yet or found no match.
	Target NodeTarget
}

// PV returns the Node's resolved physical-volume target, if any.
func (n *Node) PV() (pv *PV, ok bool) {
	t, isPV := n.Target.(pvTarget)
	if isPV == false {
		return nil, false
	}

	return t.pv, true
}

// LV returns the Node's resolved logical-volume target, if any.
func (n *Node) LV() (lv *LV, ok bool) {
	t, isLV := n.Target.(lvTarget)
	if isLV == false {
		return nil, false
	}

	return t.lv, true
}

// Resolved indicates whether the linker found a matching PV or LV.
func (n *Node) Resolved() bool {
	_, isUnresolved := n.Target.(unresolvedTarget)
	return isUnresolved == false
}

// Segment is a contiguous range of an LV's extent address space mapped by a
// single policy (spec §3).
type Segment struct {
	StartExtent uint64
	ExtentCount uint64
	Type        SegmentType

	// StripeSize is in VG extents; zero for STRIPED segments with exactly
	// one node (spec's invariant on Segment).
	StripeSize uint64

	Layout RAIDLayout
	Nodes  []Node
}

// NodeCount is the number of devices this segment maps across.
func (seg *Segment) NodeCount() int {
	return len(seg.Nodes)
}

// PV is a physical volume: a disk or partition contributing extents to a
// VG's pool (spec §3).
type PV struct {
	// Name is the PV's name, unique within its VG (e.g. "pv0").
	Name string

	// RawUUID is the 32-character raw PV UUID.
	RawUUID string

	// StartSector is the sector offset of the PV's first physical extent
	// on disk (pe_start in the metadata text).
	StartSector uint64

	vg *VG
}

// DashedUUID renders this PV's UUID in its display form (spec §3).
func (pv *PV) DashedUUID() string {
	return DashedUUID(pv.RawUUID)
}

// VG returns the volume group this PV belongs to.
func (pv *PV) VG() *VG {
	return pv.vg
}

// LV is a logical volume: a virtual block device composed of Segments
// (spec §3).
type LV struct {
	// Name is the LV's name, unique within its VG.
	Name string

	// FullName is "lvm/" + escaped(vg.Name) + "-" + escaped(Name).
	FullName string

	// IDName is "lvmid/" + vg.RawUUID + "/" + RawUUID.
	IDName string

	// RawUUID is the 32-character raw LV UUID.
	RawUUID string

	// Visible is true when status includes "VISIBLE".
	Visible bool

	// isPVMove is true when status includes "PVMOVE"; it only affects
	// mirror-segment parsing (truncating node_count to 1) and isn't
	// otherwise exposed.
	isPVMove bool

	// Size is the sum, over every segment, of extent_count * vg.ExtentSize,
	// in sectors.
	Size uint64

	Segments []Segment

	vg *VG
}

// VG returns the volume group this LV belongs to.
func (lv *LV) VG() *VG {
	return lv.vg
}

// VG is a named collection of PVs pooling their extents, and the LVs built
// from them (spec §3).
type VG struct {
	Name string

	// RawUUID is the 32-character raw VG UUID.
	RawUUID string

	// UUIDLen is always IDLength (32); kept as a field because spec's
	// invariant #1 is stated in terms of it.
	UUIDLen int

	// ExtentSize is the VG's extent size, in sectors.
	ExtentSize uint64

	PVs []*PV
	LVs []*LV
}

// FindPV returns the PV named `name` in this VG, if any.
func (vg *VG) FindPV(name string) (pv *PV, found bool) {
	for _, candidate := range vg.PVs {
		if candidate.Name == name {
			return candidate, true
		}
	}

	return nil, false
}

// Dump prints a human-readable rendering of the VG and its PVs and LVs,
// with sizes given both in raw sectors and humanized bytes.
func (vg *VG) Dump() {
	fmt.Printf("Volume Group\n")
	fmt.Printf("============\n")
	fmt.Printf("\n")

	fmt.Printf("Name: (%s)\n", vg.Name)
	fmt.Printf("UUID: (%s)\n", vg.RawUUID)
	fmt.Printf("ExtentSize: (%d) sectors\n", vg.ExtentSize)
	fmt.Printf("\n")

	fmt.Printf("Physical Volumes\n")
	for _, pv := range vg.PVs {
		fmt.Printf("  %s: uuid=(%s) start=(%d) (%s)\n",
			pv.Name, pv.DashedUUID(), pv.StartSector,
			humanize.Bytes(pv.StartSector*SectorSize))
	}
	fmt.Printf("\n")

	fmt.Printf("Logical Volumes\n")
	for _, lv := range vg.LVs {
		fmt.Printf("  %s: uuid=(%s) visible=(%v) size=(%d) sectors (%s) segments=(%d)\n",
			lv.Name, lv.RawUUID, lv.Visible, lv.Size,
			humanize.Bytes(lv.Size*SectorSize), len(lv.Segments))

		for i, seg := range lv.Segments {
			fmt.Printf("    segment[%d]: type=(%s) start_extent=(%d) extent_count=(%d) nodes=(%d)\n",
				i, seg.Type, seg.StartExtent, seg.ExtentCount, len(seg.Nodes))
		}
	}
	fmt.Printf("\n")
}

// FindLV returns the LV named `name` in this VG, if any.
func (vg *VG) FindLV(name string) (lv *LV, found bool) {
	for _, candidate := range vg.LVs {
		if candidate.Name == name {
			return candidate, true
		}
	}

	return nil, false
}

// readMDAHeader reads and validates the mda_header at the start of the
// metadata area, and the first raw_locn that follows it.
func readMDAHeader(disk Disk, mdaOffset uint64) (mdah mdaHeader, rl rawLocn, err error) {
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

	buf, err := disk.ReadAt(0, uint32(mdaOffset), mdaHeaderFixedSize+rawLocnSize)
	log.PanicIf(err)

	err = restruct.Unpack(buf[:mdaHeaderFixedSize], defaultEncoding, &mdah)
	log.PanicIf(err)

	if bytes.Equal(mdah.Magic[:], fmttMagic[:]) != true {
		panic(errBadMetadata("MDA magic mismatch"))
	}

	if mdah.Version != fmttVersion {
		panic(errNotImplemented("unsupported metadata format version: %d", mdah.Version))
	}

	err = restruct.Unpack(buf[mdaHeaderFixedSize:mdaHeaderFixedSize+rawLocnSize], defaultEncoding, &rl)
	log.PanicIf(err)

	return mdah, rl, nil
}

// readMetadataText reads the (possibly ring-wrapped) metadata text named by
// `rl` out of the metadata area at `mdaOffset`/`mdaSize`, dewrapping it per
// spec §4.C's ring-buffer algorithm. It returns the working buffer and the
// exclusive bound within it that text parsing must never advance past.
func readMetadataText(disk Disk, mdaOffset, mdaSize uint64, mdah mdaHeader, rl rawLocn) (buf []byte, bound int, err error) {
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

	// mdaSize comes straight off the PV header's metadata-area descriptor,
	// which a corrupt or hostile device can set arbitrarily; grub_malloc's
	// own failure path for this same allocation (lvm.c's
	// `metadatabuf = grub_malloc (2 * mda_size)`) is where OUT_OF_MEMORY
	// surfaces, so this is the Go port's equivalent guard.
	if 2*mdaSize > maxMetadataAreaAllocation {
		panic(errOutOfMemory())
	}

	buf = make([]byte, 2*mdaSize)

	mdaBytes, err := disk.ReadAt(0, uint32(mdaOffset), uint32(mdaSize))
	log.PanicIf(err)

	copy(buf, mdaBytes)

	bound = int(mdaSize)

	if rl.Offset+rl.Size > mdah.Size {
		overhang := rl.Offset + rl.Size - mdah.Size

		if uint64(MDAHeaderSize)+overhang > mdaSize {
			panic(errBadMetadata("ring-wrap copy would exceed MDA buffer"))
		}

		overhangBytes, err := disk.ReadAt(0, uint32(mdaOffset+MDAHeaderSize), uint32(overhang))
		log.PanicIf(err)

		copy(buf[mdaSize:], overhangBytes)

		bound = int(mdaSize + overhang)
	}

	return buf, bound, nil
}

// isSpace reports whether b is whitespace, by the LVM config grammar's
// notion (space, tab, newline, carriage return).
func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// isDigit reports whether b is an ASCII digit.
func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// findAnchor locates `anchor` within buf[pos:bound] and returns the
// position just past it. Every text-scanning advance in this package goes
// through this function (or readQuoted/readUint64/readToken, which also
// respect `bound`), so no scan can run past the dewrapped buffer's valid
// region (Design Notes, spec §9).
func findAnchor(buf []byte, pos, bound int, anchor string) (newPos int, ok bool) {
	if pos >= bound || pos < 0 {
		return pos, false
	}

	idx := bytes.Index(buf[pos:bound], []byte(anchor))
	if idx < 0 {
		return pos, false
	}

	return pos + idx + len(anchor), true
}

// readToken reads the next whitespace-terminated token starting at or after
// `pos`, bounded by `bound`.
func readToken(buf []byte, pos, bound int) (token string, newPos int, ok bool) {
	for pos < bound && isSpace(buf[pos]) == true {
		pos++
	}

	start := pos
	for pos < bound && isSpace(buf[pos]) == false {
		pos++
	}

	if pos == start {
		return "", pos, false
	}

	return string(buf[start:pos]), pos, true
}

// readUint64 reads the next run of ASCII digits starting at or after `pos`
// (skipping leading whitespace), bounded by `bound`.
func readUint64(buf []byte, pos, bound int) (value uint64, newPos int, ok bool) {
	for pos < bound && isSpace(buf[pos]) == true {
		pos++
	}

	start := pos
	for pos < bound && isDigit(buf[pos]) == true {
		pos++
	}

	if pos == start {
		return 0, pos, false
	}

	value, err := strconv.ParseUint(string(buf[start:pos]), 10, 64)
	if err != nil {
		return 0, pos, false
	}

	return value, pos, true
}

// readQuoted reads the next quoted string starting at or after `pos`
// (the first `"` found, through the next `"`), bounded by `bound`.
func readQuoted(buf []byte, pos, bound int) (value string, newPos int, ok bool) {
	if pos >= bound || pos < 0 {
		return "", pos, false
	}

	openIdx := bytes.IndexByte(buf[pos:bound], '"')
	if openIdx < 0 {
		return "", pos, false
	}

	start := pos + openIdx + 1

	closeIdx := bytes.IndexByte(buf[start:bound], '"')
	if closeIdx < 0 {
		return "", pos, false
	}

	end := start + closeIdx

	return string(buf[start:end]), end + 1, true
}

// getUint64After finds `key` and reads the unsigned integer following it.
func getUint64After(buf []byte, pos, bound int, key string) (value uint64, newPos int, ok bool) {
	p, found := findAnchor(buf, pos, bound, key)
	if found == false {
		return 0, pos, false
	}

	return readUint64(buf, p, bound)
}

// getQuotedAfter finds `key` and reads the quoted string following it.
func getQuotedAfter(buf []byte, pos, bound int, key string) (value string, newPos int, ok bool) {
	p, found := findAnchor(buf, pos, bound, key)
	if found == false {
		return "", pos, false
	}

	// A key that ends in the opening quote leaves p just past it; step back
	// so readQuoted starts at that quote.
	if len(key) > 0 && key[len(key)-1] == '"' {
		p--
	}

	return readQuoted(buf, p, bound)
}

// hasStatusFlag reports whether the LV's "status = [ ... ]" list (searched
// forward from `pos`) contains the quoted token `flag`. This module only
// ever queries "VISIBLE" and "PVMOVE" (spec §9's Open Questions).
func hasStatusFlag(buf []byte, pos, bound int, flag string) bool {
	p, found := findAnchor(buf, pos, bound, "status = [")
	if found == false {
		return false
	}

	for {
		for p < bound && (isSpace(buf[p]) == true || buf[p] == ',') {
			p++
		}

		if p >= bound || buf[p] == ']' {
			return false
		}

		if buf[p] != '"' {
			return false
		}

		value, next, ok := readQuoted(buf, p, bound)
		if ok == false {
			return false
		}

		if value == flag {
			return true
		}

		p = next
	}
}

// ParseVG parses the textual VG description in buf[pos:bound] (the
// dewrapped metadata text) into a VG with its PVs and LVs, per spec §4.C.
// Segment nodes are left unresolved (named only); Link (component D) fills
// them in.
func ParseVG(buf []byte, pos, bound int) (vg *VG, err error) {
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

	vgName, pos, ok := readToken(buf, pos, bound)
	if ok == false {
		panic(errBadMetadata("could not read VG name"))
	}

	vgUUID, pos, ok := getQuotedAfter(buf, pos, bound, `id = "`)
	if ok == false {
		panic(errBadMetadata("could not find VG id"))
	}

	extentSize, pos, ok := getUint64After(buf, pos, bound, "extent_size = ")
	if ok == false {
		panic(errBadMetadata("could not find VG extent_size"))
	}

	vg = &VG{
		Name:       vgName,
		RawUUID:    vgUUID,
		UUIDLen:    IDLength,
		ExtentSize: extentSize,
		PVs:        make([]*PV, 0),
		LVs:        make([]*LV, 0),
	}

	if pvBlockPos, found := findAnchor(buf, pos, bound, "physical_volumes {"); found == true {
		pos, err = parsePVBlock(buf, pvBlockPos, bound, vg)
		log.PanicIf(err)
	}

	if lvBlockPos, found := findAnchor(buf, pos, bound, "logical_volumes {"); found == true {
		_, err = parseLVBlock(buf, lvBlockPos, bound, vg)
		log.PanicIf(err)
	}

	return vg, nil
}

// parsePVBlock parses the contents of a "physical_volumes { ... }" block,
// appending each PV entry to vg, and returns the position just past the
// block's closing brace.
func parsePVBlock(buf []byte, pos, bound int, vg *VG) (newPos int, err error) {
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

	for {
		for pos < bound && isSpace(buf[pos]) == true {
			pos++
		}

		if pos >= bound {
			panic(errBadMetadata("physical_volumes block missing closing brace"))
		}

		if buf[pos] == '}' {
			pos++
			break
		}

		name, p, ok := readToken(buf, pos, bound)
		if ok == false {
			panic(errBadMetadata("could not read PV name"))
		}

		rawUUID, p, ok := getQuotedAfter(buf, p, bound, `id = "`)
		if ok == false {
			panic(errBadMetadata("could not find PV id for %q", name))
		}

		startSector, p, ok := getUint64After(buf, p, bound, "pe_start = ")
		if ok == false {
			panic(errBadMetadata("could not find PV pe_start for %q", name))
		}

		closeIdx := bytes.IndexByte(buf[p:bound], '}')
		if closeIdx < 0 {
			panic(errBadMetadata("PV entry %q missing closing brace", name))
		}
		p = p + closeIdx + 1

		pv := &PV{
			Name:        name,
			RawUUID:     rawUUID,
			StartSector: startSector,
			vg:          vg,
		}

		vg.PVs = append(vg.PVs, pv)

		pos = p
	}

	return pos, nil
}

// parseLVBlock parses the contents of a "logical_volumes { ... }" block,
// appending each successfully-parsed LV entry to vg (unsupported segment
// types cause the LV to be silently dropped, per spec §4.C/§7), and returns
// the position just past the block's closing brace.
func parseLVBlock(buf []byte, pos, bound int, vg *VG) (newPos int, err error) {
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

	for {
		for pos < bound && isSpace(buf[pos]) == true {
			pos++
		}

		if pos >= bound {
			panic(errBadMetadata("logical_volumes block missing closing brace"))
		}

		if buf[pos] == '}' {
			pos++
			break
		}

		lv, p, drop, abortErr := parseLVEntry(buf, pos, bound, vg)
		log.PanicIf(abortErr)

		pos = p

		if drop == true {
			continue
		}

		vg.LVs = append(vg.LVs, lv)
	}

	return pos, nil
}

// parseLVEntry parses one LV entry (its name through its matching closing
// brace). drop == true means the LV was structurally fine but carried an
// unsupported segment type and should be silently discarded (spec §4.C);
// err != nil means a required anchor was missing, which aborts the entire
// VG, not just this LV (spec §7).
func parseLVEntry(buf []byte, pos, bound int, vg *VG) (lv *LV, newPos int, drop bool, err error) {
	name, p, ok := readToken(buf, pos, bound)
	if ok == false {
		return nil, pos, false, errBadMetadata("could not read LV name")
	}

	rawUUID, p, ok := getQuotedAfter(buf, p, bound, `id = "`)
	if ok == false {
		return nil, pos, false, errBadMetadata("could not find LV id for %q", name)
	}

	visible := hasStatusFlag(buf, p, bound, "VISIBLE")
	isPVMove := hasStatusFlag(buf, p, bound, "PVMOVE")

	segmentCount, p, ok := getUint64After(buf, p, bound, "segment_count = ")
	if ok == false {
		return nil, pos, false, errBadMetadata("could not find segment_count for LV %q", name)
	}

	lv = &LV{
		Name:     name,
		FullName: fullName(vg.Name, name),
		IDName:   idName(vg.RawUUID, rawUUID),
		RawUUID:  rawUUID,
		Visible:  visible,
		isPVMove: isPVMove,
		Segments: make([]Segment, 0, segmentCount),
		vg:       vg,
	}

	skipLV := false

	for i := uint64(0); i < segmentCount; i++ {
		seg, next, skip, segErr := parseSegment(buf, p, bound, vg, lv)
		if segErr != nil {
			// A missing anchor during segment parsing can't be realigned
			// from, so it aborts the entire VG discovery (spec §7).
			return nil, pos, false, segErr
		}

		p = next

		if skip == true {
			// Keep consuming the remaining segments (each closing its own
			// brace) so `p` still lands on this LV's real closing brace;
			// the LV itself is still dropped.
			skipLV = true
			continue
		}

		lv.Size += seg.ExtentCount * vg.ExtentSize
		lv.Segments = append(lv.Segments, seg)
	}

	closeIdx := bytes.IndexByte(buf[p:bound], '}')
	if closeIdx < 0 {
		return nil, pos, false, errBadMetadata("LV %q missing closing brace", name)
	}
	p = p + closeIdx + 1

	if skipLV == true {
		return nil, p, true, nil
	}

	return lv, p, false, nil
}

// parseSegment parses one "segmentN { ... }" entry, located by searching
// forward for the literal "segment". skip == true means the segment's type
// is unrecognized and the whole LV should be dropped (not an error); a
// non-nil err means a required anchor was missing and the entire VG
// discovery must abort (spec §7).
func parseSegment(buf []byte, pos, bound int, vg *VG, lv *LV) (seg Segment, newPos int, skip bool, err error) {
	p, ok := findAnchor(buf, pos, bound, "segment")
	if ok == false {
		return Segment{}, pos, false, errBadMetadata("could not find next segment for LV %q", lv.Name)
	}

	startExtent, p, ok := getUint64After(buf, p, bound, "start_extent = ")
	if ok == false {
		return Segment{}, pos, false, errBadMetadata("could not find start_extent for LV %q", lv.Name)
	}

	extentCount, p, ok := getUint64After(buf, p, bound, "extent_count = ")
	if ok == false {
		return Segment{}, pos, false, errBadMetadata("could not find extent_count for LV %q", lv.Name)
	}

	typeName, p, ok := getQuotedAfter(buf, p, bound, `type = "`)
	if ok == false {
		return Segment{}, pos, false, errBadMetadata("could not find type for LV %q", lv.Name)
	}

	seg = Segment{
		StartExtent: startExtent,
		ExtentCount: extentCount,
	}

	skip = false

	switch {
	case typeName == "striped":
		p, err = parseStripedSegment(buf, p, bound, vg, lv, &seg)
	case typeName == "mirror" || typeName == "raid1":
		p, err = parseMirrorSegment(buf, p, bound, vg, lv, &seg)
	case typeName == "raid4" || typeName == "raid5" || typeName == "raid6":
		p, err = parseRAIDSegment(buf, p, bound, vg, lv, &seg, typeName)
	default:
		skip = true
	}

	if err != nil {
		return Segment{}, pos, false, err
	}

	// Consume this segment's own closing brace so the caller's subsequent
	// scan for the LV's closing brace doesn't mistake it for one.
	closeIdx := bytes.IndexByte(buf[p:bound], '}')
	if closeIdx < 0 {
		return Segment{}, pos, false, errBadMetadata("segment missing closing brace for LV %q", lv.Name)
	}
	p = p + closeIdx + 1

	if skip == true {
		return Segment{}, p, true, nil
	}

	return seg, p, false, nil
}

func parseStripedSegment(buf []byte, pos, bound int, vg *VG, lv *LV, seg *Segment) (newPos int, err error) {
	seg.Type = SegmentStriped

	nodeCount, p, ok := getUint64After(buf, pos, bound, "stripe_count = ")
	if ok == false {
		return pos, errBadMetadata("could not find stripe_count for LV %q", lv.Name)
	}

	if nodeCount != 1 {
		stripeSize, next, ok := getUint64After(buf, p, bound, "stripe_size = ")
		if ok == false {
			return pos, errBadMetadata("could not find stripe_size for LV %q", lv.Name)
		}

		seg.StripeSize = stripeSize
		p = next
	}

	p, ok = findAnchor(buf, p, bound, "stripes = [")
	if ok == false {
		return pos, errBadMetadata("could not find stripes list for LV %q", lv.Name)
	}

	nodes := make([]Node, nodeCount)

	for i := uint64(0); i < nodeCount; i++ {
		name, next, ok := readQuoted(buf, p, bound)
		if ok == false {
			return pos, errBadMetadata("could not read stripe node name for LV %q", lv.Name)
		}
		p = next

		p, ok = findAnchor(buf, p, bound, ",")
		if ok == false {
			return pos, errBadMetadata("could not read stripe extent offset for LV %q", lv.Name)
		}

		extentOffset, next, ok := readUint64(buf, p, bound)
		if ok == false {
			return pos, errBadMetadata("could not read stripe extent offset for LV %q", lv.Name)
		}
		p = next

		nodes[i] = Node{
			Name:   name,
			Start:  extentOffset * vg.ExtentSize,
			Target: unresolvedTarget{},
		}
	}

	seg.Nodes = nodes

	return p, nil
}

func parseMirrorSegment(buf []byte, pos, bound int, vg *VG, lv *LV, seg *Segment) (newPos int, err error) {
	seg.Type = SegmentMirror

	nodeCount, p, ok := getUint64After(buf, pos, bound, "mirror_count = ")
	if ok == false {
		nodeCount, p, ok = getUint64After(buf, pos, bound, "device_count = ")
		if ok == false {
			return pos, errBadMetadata("could not find mirror/device count for LV %q", lv.Name)
		}
	}

	p, ok = findAnchor(buf, p, bound, "mirrors = [")
	if ok == false {
		return pos, errBadMetadata("could not find mirrors list for LV %q", lv.Name)
	}

	nodes := make([]Node, nodeCount)

	for i := uint64(0); i < nodeCount; i++ {
		name, next, ok := readQuoted(buf, p, bound)
		if ok == false {
			return pos, errBadMetadata("could not read mirror node name for LV %q", lv.Name)
		}
		p = next

		nodes[i] = Node{
			Name:   name,
			Start:  0,
			Target: unresolvedTarget{},
		}
	}

	// Only the origin leg is trustworthy mid-PVMOVE (spec §4.C).
	if lv.isPVMove == true && len(nodes) > 1 {
		nodes = nodes[:1]
	}

	seg.Nodes = nodes

	return p, nil
}

func parseRAIDSegment(buf []byte, pos, bound int, vg *VG, lv *LV, seg *Segment, typeName string) (newPos int, err error) {
	switch typeName {
	case "raid4":
		seg.Type = SegmentRAID4
		seg.Layout = RAIDLayoutLeftAsymmetric
	case "raid5":
		seg.Type = SegmentRAID5
		seg.Layout = RAIDLayoutLeftSymmetric
	case "raid6":
		seg.Type = SegmentRAID6
		seg.Layout = RAIDLayoutRightAsymmetric | RAIDLayoutMulFromPos
	}

	nodeCount, p, ok := getUint64After(buf, pos, bound, "device_count = ")
	if ok == false {
		return pos, errBadMetadata("could not find device_count for LV %q", lv.Name)
	}

	stripeSize, p, ok := getUint64After(buf, p, bound, "stripe_size = ")
	if ok == false {
		return pos, errBadMetadata("could not find stripe_size for LV %q", lv.Name)
	}
	seg.StripeSize = stripeSize

	p, ok = findAnchor(buf, p, bound, "raids = [")
	if ok == false {
		return pos, errBadMetadata("could not find raids list for LV %q", lv.Name)
	}

	nodes := make([]Node, nodeCount)

	for i := uint64(0); i < nodeCount; i++ {
		// Each raids[] entry is a triple of quoted strings (metadata-lv,
		// data-lv, status); only the third's name is the device name.
		_, next, ok := readQuoted(buf, p, bound)
		if ok == false {
			return pos, errBadMetadata("could not read raid device triple for LV %q", lv.Name)
		}
		p = next

		_, next, ok = readQuoted(buf, p, bound)
		if ok == false {
			return pos, errBadMetadata("could not read raid device triple for LV %q", lv.Name)
		}
		p = next

		name, next, ok := readQuoted(buf, p, bound)
		if ok == false {
			return pos, errBadMetadata("could not read raid device triple for LV %q", lv.Name)
		}
		p = next

		nodes[i] = Node{
			Name:   name,
			Start:  0,
			Target: unresolvedTarget{},
		}
	}

	// RAID4's parity device is declared first but the consumer expects
	// parity last; rotate the resolved array left by one (spec §4.C,
	// invariant #5).
	if seg.Type == SegmentRAID4 && len(nodes) > 1 {
		first := nodes[0]
		copy(nodes, nodes[1:])
		nodes[len(nodes)-1] = first
	}

	seg.Nodes = nodes

	return p, nil
}

// ReadVG reads and parses the VG description from the metadata area located
// by `pvh`, performing the ring dewrap if needed.
func ReadVG(disk Disk, pvh *PVHeader) (vg *VG, err error) {
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

	mdaOffset, mdaSize, err := pvh.LocateMetadata()
	log.PanicIf(err)

	mdah, rl, err := readMDAHeader(disk, mdaOffset)
	log.PanicIf(err)

	buf, bound, err := readMetadataText(disk, mdaOffset, mdaSize, mdah, rl)
	log.PanicIf(err)

	vg, err = ParseVG(buf, int(rl.Offset), bound)
	log.PanicIf(err)

	return vg, nil
}
