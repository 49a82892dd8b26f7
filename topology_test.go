package lvm2

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func buildLinkedVG(t *testing.T) *VG {
	lvBody := `
		origin {
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
		snap {
			id = "LVUUID0000000000000000000000002"
			status = ["READ", "WRITE", "VISIBLE"]
			segment_count = 1

			segment1 {
				start_extent = 0
				extent_count = 10
				type = "striped"
				stripe_count = 1

				stripes = [
					"origin", 0
				]
			}
		}
		dangling {
			id = "LVUUID0000000000000000000000003"
			status = ["READ", "WRITE", "VISIBLE"]
			segment_count = 1

			segment1 {
				start_extent = 0
				extent_count = 10
				type = "striped"
				stripe_count = 1

				stripes = [
					"nosuchdevice", 0
				]
			}
		}
	`

	text := sampleVGText(lvBody)

	vg, err := ParseVG([]byte(text), 0, len(text))
	assert.NoError(t, err)

	return vg
}

func TestLink_ResolvesPVTarget(t *testing.T) {
	vg := buildLinkedVG(t)

	err := Link(vg)
	assert.NoError(t, err)

	origin, found := vg.FindLV("origin")
	assert.True(t, found)

	node := origin.Segments[0].Nodes[0]
	assert.True(t, node.Resolved())

	pv, isPV := node.PV()
	assert.True(t, isPV)
	assert.Equal(t, "pv0", pv.Name)
}

func TestLink_ResolvesLVTarget(t *testing.T) {
	vg := buildLinkedVG(t)

	err := Link(vg)
	assert.NoError(t, err)

	snap, found := vg.FindLV("snap")
	assert.True(t, found)

	node := snap.Segments[0].Nodes[0]

	lv, isLV := node.LV()
	assert.True(t, isLV)
	assert.Equal(t, "origin", lv.Name)
}

func TestLink_LeavesDanglingUnresolved(t *testing.T) {
	vg := buildLinkedVG(t)

	err := Link(vg)
	assert.NoError(t, err)

	dangling, found := vg.FindLV("dangling")
	assert.True(t, found)

	node := dangling.Segments[0].Nodes[0]
	assert.False(t, node.Resolved())

	_, isPV := node.PV()
	assert.False(t, isPV)

	_, isLV := node.LV()
	assert.False(t, isLV)
}

func TestLink_PVWinsOverLVOnNameCollision(t *testing.T) {
	lvBody := `
		pv0 {
			id = "LVUUID0000000000000000000000009"
			status = ["READ", "WRITE", "VISIBLE"]
			segment_count = 1

			segment1 {
				start_extent = 0
				extent_count = 10
				type = "striped"
				stripe_count = 1

				stripes = [
					"pv1", 0
				]
			}
		}
		consumer {
			id = "LVUUID0000000000000000000000010"
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

	err = Link(vg)
	assert.NoError(t, err)

	consumer, found := vg.FindLV("consumer")
	assert.True(t, found)

	node := consumer.Segments[0].Nodes[0]

	pv, isPV := node.PV()
	assert.True(t, isPV)
	assert.Equal(t, "pv0", pv.Name)
}
