package domain

import "github.com/sarat-asymmetrica/fhmc/internal/fatal"

// CellList partitions a Box into a grid of cubical cells of edge no
// smaller than MinEdge and tracks, per registered site id, which cell
// currently holds it. A consistency pass (Validate) recomputes each
// site's cell from its position and compares it to the stored value;
// any mismatch is a fatal invariant (spec.md §8, property 2).
type CellList struct {
	box     *Box
	MinEdge float64

	nx, ny, nz int
	cells      [][]int // cell index -> site ids currently selected
	cellOf     map[int]int
	slotOf     map[int]int // site id -> index within its cell slice, for O(1) swap-remove
}

// NewCellList builds a grid over box with at least 3 cells per
// dimension; fewer than 3 cells along any axis cannot support the
// 27-cell neighbor stencil and is a configuration error.
func NewCellList(box *Box, minEdge float64) (*CellList, error) {
	nx := int(box.Lx / minEdge)
	ny := int(box.Ly / minEdge)
	nz := int(box.Lz / minEdge)
	if nx < 3 || ny < 3 || nz < 3 {
		return nil, &CellCountError{MinEdge: minEdge, Nx: nx, Ny: ny, Nz: nz}
	}
	cl := &CellList{
		box: box, MinEdge: minEdge,
		nx: nx, ny: ny, nz: nz,
		cells:  make([][]int, nx*ny*nz),
		cellOf: make(map[int]int),
		slotOf: make(map[int]int),
	}
	return cl, nil
}

// CellCountError is raised when a box admits fewer than 3 cells along
// some dimension for the requested minimum edge length.
type CellCountError struct {
	MinEdge        float64
	Nx, Ny, Nz     int
}

func (e *CellCountError) Error() string {
	return "cell list requires >=3 cells per dimension"
}

func (cl *CellList) cellCoords(x, y, z float64) (int, int, int) {
	wx, wy, wz := cl.box.Wrap(x, y, z)
	// Wrap() centers coordinates in [-L/2, L/2); shift to [0, L) for
	// grid indexing.
	ix := int((wx + cl.box.Lx/2) / cl.box.Lx * float64(cl.nx))
	iy := int((wy + cl.box.Ly/2) / cl.box.Ly * float64(cl.ny))
	iz := int((wz + cl.box.Lz/2) / cl.box.Lz * float64(cl.nz))
	ix = clampIndex(ix, cl.nx)
	iy = clampIndex(iy, cl.ny)
	iz = clampIndex(iz, cl.nz)
	return ix, iy, iz
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func (cl *CellList) index(ix, iy, iz int) int {
	return (ix*cl.ny+iy)*cl.nz + iz
}

// CellIndex returns the cell a position at (x,y,z) belongs to.
func (cl *CellList) CellIndex(x, y, z float64) int {
	ix, iy, iz := cl.cellCoords(x, y, z)
	return cl.index(ix, iy, iz)
}

// Insert wraps the position, computes its cell, and records siteID as a
// member of that cell.
func (cl *CellList) Insert(siteID int, x, y, z float64) {
	idx := cl.CellIndex(x, y, z)
	cl.cellOf[siteID] = idx
	cl.slotOf[siteID] = len(cl.cells[idx])
	cl.cells[idx] = append(cl.cells[idx], siteID)
}

// Remove swaps siteID with the last entry of its cell and pops,
// keeping removal O(1).
func (cl *CellList) Remove(siteID int) {
	idx, ok := cl.cellOf[siteID]
	if !ok {
		return
	}
	slot := cl.slotOf[siteID]
	bucket := cl.cells[idx]
	last := len(bucket) - 1
	moved := bucket[last]
	bucket[slot] = moved
	cl.slotOf[moved] = slot
	cl.cells[idx] = bucket[:last]
	delete(cl.cellOf, siteID)
	delete(cl.slotOf, siteID)
}

// Move updates siteID's cell membership for a new position, only
// touching the old and new cell's bookkeeping when the cell actually
// changes.
func (cl *CellList) Move(siteID int, x, y, z float64) {
	newIdx := cl.CellIndex(x, y, z)
	if oldIdx, ok := cl.cellOf[siteID]; ok && oldIdx == newIdx {
		return
	}
	cl.Remove(siteID)
	idx := newIdx
	cl.cellOf[siteID] = idx
	cl.slotOf[siteID] = len(cl.cells[idx])
	cl.cells[idx] = append(cl.cells[idx], siteID)
}

// Cell returns the site ids currently selected by cell idx.
func (cl *CellList) Cell(idx int) []int {
	return cl.cells[idx]
}

// NumCells returns the total cell count (nx*ny*nz).
func (cl *CellList) NumCells() int {
	return len(cl.cells)
}

// NeighborCells returns the 27 cells touching idx (including idx
// itself), wrapping around periodic boundaries.
func (cl *CellList) NeighborCells(idx int) []int {
	iz := idx % cl.nz
	iy := (idx / cl.nz) % cl.ny
	ix := idx / (cl.nz * cl.ny)

	out := make([]int, 0, 27)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				nx := wrapIndex(ix+dx, cl.nx)
				ny := wrapIndex(iy+dy, cl.ny)
				nz := wrapIndex(iz+dz, cl.nz)
				out = append(out, cl.index(nx, ny, nz))
			}
		}
	}
	return out
}

func wrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// Validate recomputes every tracked site's cell from its live position
// (via positionOf) and fatally aborts on any mismatch with the stored
// membership.
func (cl *CellList) Validate(positionOf func(siteID int) (x, y, z float64)) {
	for siteID, stored := range cl.cellOf {
		x, y, z := positionOf(siteID)
		computed := cl.CellIndex(x, y, z)
		fatal.Assert(computed == stored, "CellList", "Validate",
			"site %d stored cell %d but position maps to cell %d", siteID, stored, computed)
	}
}

// CellOf returns the cell currently recorded for siteID.
func (cl *CellList) CellOf(siteID int) (int, bool) {
	idx, ok := cl.cellOf[siteID]
	return idx, ok
}
