package lvm2

import (
	"sync"
)

// Registry is the capability a caller supplies so this module can consult
// and update a cache of already-discovered VGs, instead of owning that
// state itself (spec §5). It is modeled as an injected collaborator, not a
// package-level global, so multiple independent scans can run concurrently
// against independent registries.
type Registry interface {
	// GetVGByUUID returns the previously-registered VG with the given raw
	// UUID, if any.
	GetVGByUUID(rawUUID string) (vg *VG, found bool)

	// RegisterVG records vg under its own UUID. Callers must not register
	// two VGs sharing a UUID; Detect enforces this by checking
	// GetVGByUUID first and discarding the new read on conflict (spec §5).
	RegisterVG(vg *VG)

	// GetPVFromDisk returns the PV (and owning VG) already associated with
	// `disk`, if this registry has seen it before. It exists purely as a
	// side-effect hook for callers layering their own disk-identity
	// tracking on top of this module; Detect does not call it.
	GetPVFromDisk(disk Disk) (pv *PV, vg *VG, found bool)
}

// MapRegistry is a minimal in-memory Registry, safe for concurrent use,
// keyed on VG UUID.
type MapRegistry struct {
	mutex  sync.Mutex
	byUUID map[string]*VG
}

// NewMapRegistry returns an empty MapRegistry.
func NewMapRegistry() *MapRegistry {
	return &MapRegistry{
		byUUID: make(map[string]*VG),
	}
}

// GetVGByUUID implements Registry.
func (mr *MapRegistry) GetVGByUUID(rawUUID string) (vg *VG, found bool) {
	mr.mutex.Lock()
	defer mr.mutex.Unlock()

	vg, found = mr.byUUID[rawUUID]
	return vg, found
}

// RegisterVG implements Registry.
func (mr *MapRegistry) RegisterVG(vg *VG) {
	mr.mutex.Lock()
	defer mr.mutex.Unlock()

	mr.byUUID[vg.RawUUID] = vg
}

// GetPVFromDisk implements Registry. MapRegistry does not track disk
// identity, so this always reports not-found; callers wanting that
// behavior supply their own Registry implementation.
func (mr *MapRegistry) GetPVFromDisk(disk Disk) (pv *PV, vg *VG, found bool) {
	return nil, nil, false
}
