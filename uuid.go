package lvm2

import (
	"strings"
)

// IDLength is the length, in ASCII characters, of a raw LVM2 UUID.
const IDLength = 32

// uuidDashPositions are the character offsets (into the raw 32-character
// UUID) a dash is inserted before, per spec §3.
var uuidDashPositions = []int{2, 6, 10, 14, 18, 22, 26}

// DashedUUID renders a raw 32-character UUID in its canonical dashed display
// form. It is used only for PV display names (spec §3); the raw form is
// what's stored and compared internally.
func DashedUUID(raw string) string {
	var b strings.Builder

	last := 0
	for _, pos := range uuidDashPositions {
		b.WriteString(raw[last:pos])
		b.WriteByte('-')
		last = pos
	}
	b.WriteString(raw[last:])

	return b.String()
}

// escapeName doubles every hyphen in `name`, the escaping scheme used to
// build an LV's full_name from its VG and LV names (spec §3).
func escapeName(name string) string {
	return strings.ReplaceAll(name, "-", "--")
}

// unescapeName is the inverse of escapeName: "--" collapses to a single "-".
func unescapeName(escaped string) string {
	return strings.ReplaceAll(escaped, "--", "-")
}

// fullName builds the `"lvm/" + escaped(vgName) + "-" + escaped(lvName)`
// device-mapper name spec §3 describes.
func fullName(vgName, lvName string) string {
	return "lvm/" + escapeName(vgName) + "-" + escapeName(lvName)
}

// idName builds the `"lvmid/" + vgUUID + "/" + lvUUID` stable identifier
// spec §3 describes. Its length is always
// len("lvmid/") + IDLength + 1 + IDLength (invariant #8).
func idName(vgUUID, lvUUID string) string {
	return "lvmid/" + vgUUID + "/" + lvUUID
}

// splitFullName recovers the original VG and LV names from a full_name
// produced by fullName, splitting on the first single (non-doubled) hyphen
// after the "lvm/" prefix. This is the inverse operation spec §8 (invariant
// #7) requires be possible.
func splitFullName(full string) (vgName, lvName string, ok bool) {
	const prefix = "lvm/"

	if strings.HasPrefix(full, prefix) == false {
		return "", "", false
	}

	rest := full[len(prefix):]

	runes := []rune(rest)

	for i := 0; i < len(runes); i++ {
		if runes[i] != '-' {
			continue
		}

		// A doubled hyphen is an escaped literal hyphen, not a separator;
		// skip both characters.
		if i+1 < len(runes) && runes[i+1] == '-' {
			i++
			continue
		}

		vgName = unescapeName(string(runes[:i]))
		lvName = unescapeName(string(runes[i+1:]))

		return vgName, lvName, true
	}

	return "", "", false
}
