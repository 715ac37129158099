package boundary

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.dedis.ch/rgbd"
	"golang.org/x/xerrors"
)

var promHandles = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "rgbd_boundary_handles",
	Help: "number of live handles in the boundary tables",
})

func init() {
	rgbd.PromCollectors = append(rgbd.PromCollectors, promHandles)
}

// Table is a registry of the handles that have been given to the far side of
// the boundary. The far side only knows the numerical identifier, which is
// looked up when it comes back. The zero identifier is never used.
type Table struct {
	sync.Mutex

	handles map[uintptr]*Handle
	next    uintptr
}

// NewTable returns a new empty table.
func NewTable() *Table {
	return &Table{
		handles: make(map[uintptr]*Handle),
	}
}

// Put stores the handle and returns its identifier.
func (t *Table) Put(h *Handle) uintptr {
	t.Lock()
	defer t.Unlock()

	t.next++
	t.handles[t.next] = h

	promHandles.Inc()

	return t.next
}

// Get returns the handle of the identifier without removing it.
func (t *Table) Get(id uintptr) (*Handle, error) {
	t.Lock()
	defer t.Unlock()

	h, found := t.handles[id]
	if !found {
		return nil, xerrors.Errorf("handle %d not found", id)
	}

	return h, nil
}

// Take removes the handle of the identifier from the table and returns it.
func (t *Table) Take(id uintptr) (*Handle, error) {
	t.Lock()
	defer t.Unlock()

	h, found := t.handles[id]
	if !found {
		return nil, xerrors.Errorf("handle %d not found", id)
	}

	delete(t.handles, id)

	promHandles.Dec()

	return h, nil
}

// Len returns the number of handles in the table.
func (t *Table) Len() int {
	t.Lock()
	defer t.Unlock()

	return len(t.handles)
}
