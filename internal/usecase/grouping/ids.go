package grouping

// idAllocator mints fresh top-level group ids and derives 7-digit
// subdivision base ids, tracking every id handed out during a single
// grouping run so the two schemes never collide.
type idAllocator struct {
	nextTopLevel int64
	taken        map[int64]bool
}

func newIDAllocator(maxKnownTopLevel int64) *idAllocator {
	return &idAllocator{nextTopLevel: maxKnownTopLevel + 1, taken: make(map[int64]bool)}
}

// mintTopLevel hands out the next unused top-level group id (§4.6 step 4,
// "fresh group_id = max_known + 1").
func (a *idAllocator) mintTopLevel() int64 {
	for a.taken[a.nextTopLevel] {
		a.nextTopLevel++
	}
	id := a.nextTopLevel
	a.taken[id] = true
	a.nextTopLevel++
	return id
}

// deriveBaseID left-pads parentID's decimal digits to 7 (42 -> 4200000); an
// id already at 7+ digits is used as-is, with no upper bound (_generate_base_id).
// If any id in [base, base+numSubclusters) is already taken, bumps the
// whole base forward past the conflict (§4.6 step 5).
func (a *idAllocator) deriveBaseID(parentID int64, numSubclusters int) int64 {
	base := parentID
	for base < 1_000_000 {
		base *= 10
	}
	for {
		conflict := false
		for i := 0; i < numSubclusters; i++ {
			if a.taken[base+int64(i)] {
				conflict = true
				break
			}
		}
		if !conflict {
			break
		}
		base++
	}
	for i := 0; i < numSubclusters; i++ {
		a.taken[base+int64(i)] = true
	}
	return base
}

func (a *idAllocator) markTaken(id int64) {
	a.taken[id] = true
}
