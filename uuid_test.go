package lvm2

import (
	"testing"
)

func TestDashedUUID(t *testing.T) {
	raw := "abcdefghijklmnopqrstuvwxyz012345"

	if len(raw) != IDLength {
		t.Fatalf("test fixture UUID is not (%d) characters", IDLength)
	}

	dashed := DashedUUID(raw)

	expected := "ab-cdef-ghij-klmn-opqr-stuv-wxyz-012345"

	if dashed != expected {
		t.Fatalf("unexpected dashed uuid: (%s) != (%s)", dashed, expected)
	}
}

func TestEscapeUnescapeName(t *testing.T) {
	name := "my-volume-group"

	escaped := escapeName(name)
	if escaped != "my--volume--group" {
		t.Fatalf("unexpected escaped name: (%s)", escaped)
	}

	unescaped := unescapeName(escaped)
	if unescaped != name {
		t.Fatalf("unescape did not invert escape: (%s) != (%s)", unescaped, name)
	}
}

func TestFullNameAndSplit(t *testing.T) {
	vgName := "my-vg"
	lvName := "my-lv"

	full := fullName(vgName, lvName)

	gotVG, gotLV, ok := splitFullName(full)
	if ok != true {
		t.Fatalf("splitFullName failed on (%s)", full)
	}

	if gotVG != vgName || gotLV != lvName {
		t.Fatalf("split mismatch: (%s) (%s)", gotVG, gotLV)
	}
}

func TestIDName(t *testing.T) {
	vgUUID := "11111111111111111111111111111111"[:IDLength]
	lvUUID := "22222222222222222222222222222222"[:IDLength]

	id := idName(vgUUID, lvUUID)

	expectedLen := len("lvmid/") + IDLength + 1 + IDLength
	if len(id) != expectedLen {
		t.Fatalf("unexpected id_name length: (%d) != (%d)", len(id), expectedLen)
	}
}
