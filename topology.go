package lvm2

import (
	"reflect"

	"github.com/dsoprea/go-logging"
)

// Link resolves every segment Node's Target within vg: a Node's Name is
// looked up first against vg's PVs, then against vg's LVs, with a PV match
// always winning a tie (component D, spec §4.D). Names that match neither
// are left as unresolvedTarget{} — no error is raised for a dangling
// reference, and no cycle detection is performed (spec §9's Open
// Questions): this is a flat, single pass over every segment in the VG.
func Link(vg *VG) (err error) {
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

	if vg == nil {
		log.Panicf("nil VG")
	}

	for _, lv := range vg.LVs {
		for s := range lv.Segments {
			seg := &lv.Segments[s]

			for n := range seg.Nodes {
				node := &seg.Nodes[n]
				node.Target = resolveNode(vg, node.Name)
			}
		}
	}

	return nil
}

// resolveNode looks up `name` against vg's PVs, then its LVs, a PV winning
// any tie (spec's invariant on Node resolution).
func resolveNode(vg *VG, name string) NodeTarget {
	if pv, found := vg.FindPV(name); found == true {
		return pvTarget{pv: pv}
	}

	if lv, found := vg.FindLV(name); found == true {
		return lvTarget{lv: lv}
	}

	return unresolvedTarget{}
}
