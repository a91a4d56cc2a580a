package parallel

import (
	"errors"
	"fmt"
)

// Attribute classifies the ownership of a row in a distributed index set.
type Attribute uint8

const (
	Owner Attribute = iota
	Overlap
	Copy
)

// IndexEntry maps a local row to its global identifier. Public entries take
// part in cross-rank data exchange.
type IndexEntry struct {
	Global int
	Local  int
	Attr   Attribute
	Public bool
}

type IndexSet struct {
	Entries []IndexEntry
}

func (is *IndexSet) Len() int {
	return len(is.Entries)
}

func (is *IndexSet) Add(global int, attr Attribute, public bool) {
	is.Entries = append(is.Entries, IndexEntry{
		Global: global,
		Local:  len(is.Entries),
		Attr:   attr,
		Public: public,
	})
}

// GlobalMax returns the largest global identifier present, or -1 for an empty
// set.
func (is *IndexSet) GlobalMax() (max int) {
	max = -1
	for _, e := range is.Entries {
		if e.Global > max {
			max = e.Global
		}
	}
	return
}

func (is *IndexSet) Copy() (R *IndexSet) {
	R = &IndexSet{Entries: append([]IndexEntry{}, is.Entries...)}
	return
}

// Communication bundles a collective context, the local-to-global index set,
// and the neighbor ranks this rank exchanges halo data with.
type Communication struct {
	Coll      Collective
	Idx       *IndexSet
	Neighbors []int
}

func NewCommunication(coll Collective, idx *IndexSet, neighbors []int) *Communication {
	return &Communication{
		Coll:      coll,
		Idx:       idx,
		Neighbors: neighbors,
	}
}

// Nontrivial reports whether more than one rank participates.
func (c *Communication) Nontrivial() bool {
	return c != nil && c.Coll != nil && c.Coll.Size() > 1
}

var ErrWellCountMismatch = errors.New("parallel: inconsistent well counts across ranks")

// ExtendWithWells produces a new Communication whose index set covers nw
// additional local well rows appended after all existing entries. Original
// entries are copied unchanged, well rows are owned and public, and the
// neighbor pattern is copied as-is: well rows are assumed to need no new
// cross-rank halo.
//
// Synthetic identifiers are gmax+1 + maxNW*rank + i, where gmax is the
// collective maximum of existing identifiers and maxNW the collective maximum
// of per-rank well counts. Keying on the rank keeps identifiers pairwise
// distinct across the whole system. The per-rank counts are gathered and
// cross-checked first, so a rank that disagrees on the meaning of nw fails
// loudly instead of numbering inconsistently.
//
// This is a collective call: every rank of the group must enter it at the
// same logical step.
func ExtendWithWells(comm *Communication, nw int) (R *Communication, err error) {
	if nw < 0 {
		err = fmt.Errorf("negative well count %d", nw)
		return
	}
	var (
		coll   = comm.Coll
		counts = coll.GatherInt(nw)
		maxNW  = 0
	)
	if counts[coll.Rank()] != nw {
		err = fmt.Errorf("%w: rank %d sent %d, exchange returned %d",
			ErrWellCountMismatch, coll.Rank(), nw, counts[coll.Rank()])
		return
	}
	for r, c := range counts {
		if c < 0 {
			err = fmt.Errorf("%w: rank %d reports %d wells", ErrWellCountMismatch, r, c)
			return
		}
		if c > maxNW {
			maxNW = c
		}
	}
	gmax := coll.MaxInt(comm.Idx.GlobalMax())

	idx := comm.Idx.Copy()
	base := gmax + 1 + maxNW*coll.Rank()
	for i := 0; i < nw; i++ {
		idx.Add(base+i, Owner, true)
	}
	R = &Communication{
		Coll:      coll,
		Idx:       idx,
		Neighbors: append([]int{}, comm.Neighbors...),
	}
	return
}
