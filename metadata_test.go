package lvm2

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleVGText(lvBody string) string {
	return fmt.Sprintf(`myvg {
	id = "VGUUID0000000000000000000000001"
	extent_size = 8192
	physical_volumes {
		pv0 {
			id = "PVUUID0000000000000000000000001"
			pe_start = 2048
			dev_size = 2097152
		}
		pv1 {
			id = "PVUUID0000000000000000000000002"
			pe_start = 2048
		}
	}
	logical_volumes {
		%s
	}
}
`, lvBody)
}

func TestParseVG_StripedSingleNode(t *testing.T) {
	lvBody := `
		lv0 {
			id = "LVUUID0000000000000000000000001"
			status = ["READ", "WRITE", "VISIBLE"]
			segment_count = 1

			segment1 {
				start_extent = 0
				extent_count = 10
				type = "striped"
				stripe_count = 1

				stripes = [
					"pv0", 0
				]
			}
		}
	`

	text := sampleVGText(lvBody)

	vg, err := ParseVG([]byte(text), 0, len(text))
	assert.NoError(t, err)

	assert.Equal(t, "myvg", vg.Name)
	assert.Equal(t, "VGUUID0000000000000000000000001", vg.RawUUID)
	assert.Equal(t, uint64(8192), vg.ExtentSize)
	assert.Len(t, vg.PVs, 2)
	assert.Len(t, vg.LVs, 1)

	lv := vg.LVs[0]
	assert.Equal(t, "lv0", lv.Name)
	assert.True(t, lv.Visible)
	assert.False(t, lv.isPVMove)
	assert.Len(t, lv.Segments, 1)

	seg := lv.Segments[0]
	assert.Equal(t, SegmentStriped, seg.Type)
	assert.Equal(t, uint64(10), seg.ExtentCount)
	assert.Len(t, seg.Nodes, 1)
	assert.Equal(t, "pv0", seg.Nodes[0].Name)

	assert.Equal(t, uint64(10)*vg.ExtentSize, lv.Size)
}

func TestParseVG_StripedMultiNode(t *testing.T) {
	lvBody := `
		lv0 {
			id = "LVUUID0000000000000000000000001"
			status = ["READ", "WRITE", "VISIBLE"]
			segment_count = 1

			segment1 {
				start_extent = 0
				extent_count = 20
				type = "striped"
				stripe_count = 2
				stripe_size = 128

				stripes = [
					"pv0", 0,
					"pv1", 5
				]
			}
		}
	`

	text := sampleVGText(lvBody)

	vg, err := ParseVG([]byte(text), 0, len(text))
	assert.NoError(t, err)

	lv := vg.LVs[0]
	seg := lv.Segments[0]

	assert.Equal(t, uint64(128), seg.StripeSize)
	assert.Len(t, seg.Nodes, 2)
	assert.Equal(t, "pv0", seg.Nodes[0].Name)
	assert.Equal(t, uint64(0), seg.Nodes[0].Start)
	assert.Equal(t, "pv1", seg.Nodes[1].Name)
	assert.Equal(t, uint64(5)*vg.ExtentSize, seg.Nodes[1].Start)
}

func TestParseVG_Mirror(t *testing.T) {
	lvBody := `
		lv0 {
			id = "LVUUID0000000000000000000000001"
			status = ["READ", "WRITE", "VISIBLE"]
			segment_count = 1

			segment1 {
				start_extent = 0
				extent_count = 10
				type = "mirror"
				mirror_count = 2

				mirrors = [
					"pv0", "pv1"
				]
			}
		}
	`

	text := sampleVGText(lvBody)

	vg, err := ParseVG([]byte(text), 0, len(text))
	assert.NoError(t, err)

	seg := vg.LVs[0].Segments[0]
	assert.Equal(t, SegmentMirror, seg.Type)
	assert.Len(t, seg.Nodes, 2)
}

func TestParseVG_MirrorPVMoveTruncates(t *testing.T) {
	lvBody := `
		lv0 {
			id = "LVUUID0000000000000000000000001"
			status = ["READ", "WRITE", "VISIBLE", "PVMOVE"]
			segment_count = 1

			segment1 {
				start_extent = 0
				extent_count = 10
				type = "mirror"
				mirror_count = 2

				mirrors = [
					"pv0", "pv1"
				]
			}
		}
	`

	text := sampleVGText(lvBody)

	vg, err := ParseVG([]byte(text), 0, len(text))
	assert.NoError(t, err)

	lv := vg.LVs[0]
	assert.True(t, lv.isPVMove)

	seg := lv.Segments[0]
	assert.Len(t, seg.Nodes, 1)
	assert.Equal(t, "pv0", seg.Nodes[0].Name)
}

func TestParseVG_RAID4RotatesParity(t *testing.T) {
	lvBody := `
		lv0 {
			id = "LVUUID0000000000000000000000001"
			status = ["READ", "WRITE", "VISIBLE"]
			segment_count = 1

			segment1 {
				start_extent = 0
				extent_count = 30
				type = "raid4"
				device_count = 3
				stripe_size = 64

				raids = [
					"lv0_rmeta_0", "lv0_rimage_0", "parity",
					"lv0_rmeta_1", "lv0_rimage_1", "data0",
					"lv0_rmeta_2", "lv0_rimage_2", "data1"
				]
			}
		}
	`

	text := sampleVGText(lvBody)

	vg, err := ParseVG([]byte(text), 0, len(text))
	assert.NoError(t, err)

	seg := vg.LVs[0].Segments[0]
	assert.Equal(t, SegmentRAID4, seg.Type)
	assert.Equal(t, RAIDLayoutLeftAsymmetric, seg.Layout)
	assert.Len(t, seg.Nodes, 3)

	// Parity (originally first) should have rotated to the end.
	assert.Equal(t, "data0", seg.Nodes[0].Name)
	assert.Equal(t, "data1", seg.Nodes[1].Name)
	assert.Equal(t, "parity", seg.Nodes[2].Name)
}

func TestParseVG_UnsupportedSegmentTypeDropsLV(t *testing.T) {
	lvBody := `
		lv0 {
			id = "LVUUID0000000000000000000000001"
			status = ["READ", "WRITE", "VISIBLE"]
			segment_count = 1

			segment1 {
				start_extent = 0
				extent_count = 10
				type = "thin"
			}
		}
		lv1 {
			id = "LVUUID0000000000000000000000002"
			status = ["READ", "WRITE", "VISIBLE"]
			segment_count = 1

			segment1 {
				start_extent = 0
				extent_count = 10
				type = "striped"
				stripe_count = 1

				stripes = [
					"pv0", 0
				]
			}
		}
	`

	text := sampleVGText(lvBody)

	vg, err := ParseVG([]byte(text), 0, len(text))
	assert.NoError(t, err)

	assert.Len(t, vg.LVs, 1)
	assert.Equal(t, "lv1", vg.LVs[0].Name)
}

func TestParseVG_FullNameAndIDName(t *testing.T) {
	lvBody := `
		lv0 {
			id = "LVUUID0000000000000000000000001"
			status = ["READ", "WRITE", "VISIBLE"]
			segment_count = 1

			segment1 {
				start_extent = 0
				extent_count = 10
				type = "striped"
				stripe_count = 1

				stripes = [
					"pv0", 0
				]
			}
		}
	`

	text := sampleVGText(lvBody)

	vg, err := ParseVG([]byte(text), 0, len(text))
	assert.NoError(t, err)

	lv := vg.LVs[0]
	assert.Equal(t, "lvm/myvg-lv0", lv.FullName)
	assert.Equal(t, "lvmid/"+vg.RawUUID+"/"+lv.RawUUID, lv.IDName)
}
