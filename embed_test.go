package lvm2

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmbed_Success(t *testing.T) {
	disk := buildSyntheticEmbedDisk(1, "PVUUID00000000000000000000000001", 4096, simpleVGText(), 1024*SectorSize, 64*SectorSize)

	registry := NewMapRegistry()

	sectors, err := Embed(disk, registry, 128, EmbedTypePCBIOS)
	assert.NoError(t, err)
	assert.Len(t, sectors, 64)
	assert.Equal(t, uint64(1024), sectors[0])
	assert.Equal(t, uint64(1024+63), sectors[len(sectors)-1])
}

func TestEmbed_RespectsMaxSectors(t *testing.T) {
	disk := buildSyntheticEmbedDisk(1, "PVUUID00000000000000000000000001", 4096, simpleVGText(), 1024*SectorSize, 64*SectorSize)

	registry := NewMapRegistry()

	sectors, err := Embed(disk, registry, 10, EmbedTypePCBIOS)
	assert.NoError(t, err)
	assert.Len(t, sectors, 10)
}

func TestEmbed_BootSectorOccupied(t *testing.T) {
	disk := buildSyntheticEmbedDisk(0, "PVUUID00000000000000000000000001", 4096, simpleVGText(), 1024*SectorSize, 64*SectorSize)

	registry := NewMapRegistry()

	_, err := Embed(disk, registry, 128, EmbedTypePCBIOS)
	assert.Error(t, err)

	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindBadDevice, kind)
}

func TestEmbed_UnsupportedEmbedType(t *testing.T) {
	disk := buildSyntheticEmbedDisk(1, "PVUUID00000000000000000000000001", 4096, simpleVGText(), 1024*SectorSize, 64*SectorSize)

	registry := NewMapRegistry()

	_, err := Embed(disk, registry, 128, EmbedTypeOther)
	assert.Error(t, err)

	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindNotImplemented, kind)
}

func TestEmbed_NoBootloaderArea(t *testing.T) {
	disk, _ := buildSyntheticDisk("PVUUID00000000000000000000000001", 4096, simpleVGText(), false)

	registry := NewMapRegistry()

	_, err := Embed(disk, registry, 128, EmbedTypePCBIOS)
	assert.Error(t, err)

	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindBadDevice, kind)
}
