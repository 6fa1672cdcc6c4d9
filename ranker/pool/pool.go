package pool

import (
	"strings"

	"github.com/rotisserie/eris"
)

var (
	ErrDuplicateName = eris.New("duplicate entity name")
	ErrEmptyName     = eris.New("empty entity name")
	ErrSparseIDs     = eris.New("entity ids are not dense")
	ErrPoolTooSmall  = eris.New("pool needs at least two entities")
)

// Pool owns the entities of one run. Entity ids equal their slice index;
// the name index is built once and kept in sync by the constructors.
type Pool struct {
	entities []*Entity
	byName   map[string]int
}

// New creates fresh entities for the given names, ids assigned in order.
func New(names []string) (*Pool, error) {
	es := make([]*Entity, 0, len(names))
	for i, n := range names {
		es = append(es, NewEntity(i, strings.TrimSpace(n)))
	}
	return FromEntities(es)
}

// FromEntities adopts already materialized entities (e.g. loaded from disk).
func FromEntities(es []*Entity) (*Pool, error) {
	p := &Pool{entities: es, byName: make(map[string]int, len(es))}
	for i, e := range es {
		if e == nil || e.ID != i {
			return nil, eris.Wrapf(ErrSparseIDs, "expected id %d at position %d", i, i)
		}
		if e.Name == "" {
			return nil, eris.Wrapf(ErrEmptyName, "entity %d", i)
		}
		if _, dup := p.byName[e.Name]; dup {
			return nil, eris.Wrapf(ErrDuplicateName, "%q", e.Name)
		}
		p.byName[e.Name] = i
	}
	return p, nil
}

func (p *Pool) Len() int { return len(p.entities) }

// Get returns the entity with the given id, or nil.
func (p *Pool) Get(id int) *Entity {
	if id < 0 || id >= len(p.entities) {
		return nil
	}
	return p.entities[id]
}

func (p *Pool) Lookup(name string) (*Entity, bool) {
	id, ok := p.byName[name]
	if !ok {
		return nil, false
	}
	return p.entities[id], true
}

// Name returns the display name for id, or "" if unknown.
func (p *Pool) Name(id int) string {
	if e := p.Get(id); e != nil {
		return e.Name
	}
	return ""
}

// Entities returns the backing slice in id order. Callers may mutate the
// entities but must not reorder the slice.
func (p *Pool) Entities() []*Entity { return p.entities }

// TotalBattles sums wins, losses and draws over the whole pool.
func (p *Pool) TotalBattles() int {
	n := 0
	for _, e := range p.entities {
		n += e.History.Battles()
	}
	return n
}
