package pool

import "strings"

// Changes lists what Reconcile did to a persisted pool.
type Changes struct {
	Added   []string
	Retired []string
}

func (c Changes) Empty() bool { return len(c.Added) == 0 && len(c.Retired) == 0 }

// Reconcile aligns a persisted pool with the current seed names. Survivors
// keep their relative order, new names are appended, retired entities are
// dropped. Ids are renumbered densely and recent-opponent references are
// remapped; references to retired entities are discarded.
func Reconcile(p *Pool, names []string) (*Pool, Changes, error) {
	var ch Changes
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[strings.TrimSpace(n)] = struct{}{}
	}

	remap := make(map[int]int, p.Len())
	kept := make([]*Entity, 0, len(names))
	for _, e := range p.entities {
		if _, ok := want[e.Name]; !ok {
			ch.Retired = append(ch.Retired, e.Name)
			continue
		}
		// Renumbering reuses ids, so an id is only stable within one run.
		// Anything persisted across runs refers to entities by name.
		cp := e.Clone()
		remap[e.ID] = len(kept)
		cp.ID = len(kept)
		kept = append(kept, cp)
	}

	for _, e := range kept {
		old := e.History.Recent.Items()
		e.History.Recent = NewRing[Battle](HistoryCap)
		for _, b := range old {
			if id, ok := remap[b.Opponent]; ok {
				e.History.Recent.Push(Battle{Opponent: id, Result: b.Result})
			}
		}
	}

	for _, raw := range names {
		n := strings.TrimSpace(raw)
		if _, ok := p.byName[n]; ok {
			continue
		}
		ch.Added = append(ch.Added, n)
		kept = append(kept, NewEntity(len(kept), n))
	}

	out, err := FromEntities(kept)
	if err != nil {
		return nil, Changes{}, err
	}
	return out, ch, nil
}
