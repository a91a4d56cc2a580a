package parallel

// Collective provides the reductions needed for consistent distributed
// numbering. Every rank in a group must enter each collective call at the
// same logical step; the calls block until all ranks have contributed.
type Collective interface {
	Size() int
	Rank() int
	MaxInt(v int) int
	GatherInt(v int) []int
}

// Serial is the single-process collective. All reductions are identities.
type Serial struct{}

func NewSerial() *Serial { return &Serial{} }

func (s *Serial) Size() int            { return 1 }
func (s *Serial) Rank() int            { return 0 }
func (s *Serial) MaxInt(v int) int     { return v }
func (s *Serial) GatherInt(v int) []int { return []int{v} }

type rankVal struct {
	rank, val int
}

type group struct {
	np      int
	contrib chan rankVal
	out     []chan []int
}

// GroupRank is one member of an in-process rank group. Ranks run on separate
// goroutines and synchronize through a coordinator, following the same
// post/deliver/receive pattern as a message mailbox.
type GroupRank struct {
	rank int
	g    *group
}

// NewGroup creates np cooperating ranks sharing one coordinator. The
// coordinator collects exactly np contributions per collective call, then
// broadcasts the gathered values back to every rank.
func NewGroup(np int) (ranks []*GroupRank) {
	g := &group{
		np:      np,
		contrib: make(chan rankVal, np),
		out:     make([]chan []int, np),
	}
	for n := 0; n < np; n++ {
		g.out[n] = make(chan []int, 1)
	}
	go g.coordinate()
	ranks = make([]*GroupRank, np)
	for n := 0; n < np; n++ {
		ranks[n] = &GroupRank{rank: n, g: g}
	}
	return
}

func (g *group) coordinate() {
	for {
		vals := make([]int, g.np)
		for i := 0; i < g.np; i++ {
			rv, ok := <-g.contrib
			if !ok {
				return
			}
			vals[rv.rank] = rv.val
		}
		for n := 0; n < g.np; n++ {
			bcast := make([]int, g.np)
			copy(bcast, vals)
			g.out[n] <- bcast
		}
	}
}

func (r *GroupRank) Size() int { return r.g.np }
func (r *GroupRank) Rank() int { return r.rank }

func (r *GroupRank) GatherInt(v int) []int {
	r.g.contrib <- rankVal{rank: r.rank, val: v}
	return <-r.g.out[r.rank]
}

func (r *GroupRank) MaxInt(v int) (max int) {
	vals := r.GatherInt(v)
	max = vals[0]
	for _, val := range vals[1:] {
		if val > max {
			max = val
		}
	}
	return
}
