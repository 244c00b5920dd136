package rolecommands

import (
	"testing"
)

func newTestGraph() *RoleGraph {
	return &RoleGraph{
		GuildID:     1,
		settings:    make(map[int64]*RoleSettings),
		exclusive:   make(map[int64]map[int64]bool),
		requiresAny: make(map[int64][]int64),
		requiresAll: make(map[int64][]int64),
	}
}

func TestCanGrantExclusivitySymmetric(t *testing.T) {
	g := newTestGraph()
	g.addExclusive(10, 20)

	err := g.CanGrant(20, []int64{10})
	assertGraphConflict(t, err, ConflictExclusivity, 10)

	err = g.CanGrant(10, []int64{20})
	assertGraphConflict(t, err, ConflictExclusivity, 20)

	if err := g.CanGrant(10, []int64{30}); err != nil {
		t.Errorf("unrelated held role refused grant: %v", err)
	}
}

func TestCanGrantRequiresAny(t *testing.T) {
	g := newTestGraph()
	g.requiresAny[10] = []int64{1, 2}

	if err := g.CanGrant(10, nil); err == nil {
		t.Error("grant allowed with no prerequisite held")
	}
	if err := g.CanGrant(10, []int64{2}); err != nil {
		t.Errorf("grant refused with one of the any-set held: %v", err)
	}
}

func TestCanGrantRequiresAll(t *testing.T) {
	g := newTestGraph()
	g.requiresAll[10] = []int64{1, 2}

	if err := g.CanGrant(10, []int64{1}); err == nil {
		t.Error("grant allowed with a required role missing")
	}
	if err := g.CanGrant(10, []int64{1, 2}); err != nil {
		t.Errorf("grant refused with full all-set held: %v", err)
	}
}

func TestCanRemoveChecksResultingSet(t *testing.T) {
	g := newTestGraph()
	g.settings[20] = &RoleSettings{RoleID: 20}
	g.requiresAll[20] = []int64{10}

	err := g.CanRemove(10, []int64{10, 20})
	assertGraphConflict(t, err, ConflictDependent, 20)

	// nothing else depends on 20, removing it is fine
	if err := g.CanRemove(20, []int64{10, 20}); err != nil {
		t.Errorf("removal of leaf role refused: %v", err)
	}
}

func TestCanRemoveRequiresAnyLastProvider(t *testing.T) {
	g := newTestGraph()
	g.settings[20] = &RoleSettings{RoleID: 20}
	g.requiresAny[20] = []int64{10, 11}

	// 11 still satisfies the any-set after 10 goes
	if err := g.CanRemove(10, []int64{10, 11, 20}); err != nil {
		t.Errorf("removal refused while an alternative provider is held: %v", err)
	}

	err := g.CanRemove(10, []int64{10, 20})
	assertGraphConflict(t, err, ConflictDependent, 20)
}

func TestCanRemoveSelfRemovableExempt(t *testing.T) {
	g := newTestGraph()
	g.settings[20] = &RoleSettings{RoleID: 20, SelfRemovable: true}
	g.requiresAll[20] = []int64{10}

	if err := g.CanRemove(10, []int64{10, 20}); err != nil {
		t.Errorf("self removable dependent should not block removal: %v", err)
	}
}

func TestSelectStickyReapplication(t *testing.T) {
	g := newTestGraph()
	g.addExclusive(10, 20)
	g.addExclusive(30, 40)

	// 20 conflicts with the already held 10, 30 and 40 conflict with
	// each other so only the first survives
	apply, conflicts := g.SelectStickyReapplication([]int64{20, 30, 40, 50}, []int64{10})

	if len(apply) != 2 || apply[0] != 30 || apply[1] != 50 {
		t.Errorf("apply = %v, want [30 50]", apply)
	}
	if len(conflicts) != 2 {
		t.Fatalf("conflicts = %v, want 2 surfaced", conflicts)
	}
	if conflicts[0].Role != 20 || conflicts[0].ConflictingRole != 10 {
		t.Errorf("first conflict = %+v, want 20 vs 10", conflicts[0])
	}
	if conflicts[1].Role != 40 || conflicts[1].ConflictingRole != 30 {
		t.Errorf("second conflict = %+v, want 40 vs 30", conflicts[1])
	}
}

func assertGraphConflict(t *testing.T, err error, kind string, conflicting int64) {
	t.Helper()

	graphErr, ok := err.(*RoleGraphError)
	if !ok {
		t.Fatalf("err = %v, want RoleGraphError", err)
	}
	if graphErr.Kind != kind {
		t.Errorf("conflict kind = %s, want %s", graphErr.Kind, kind)
	}
	if conflicting != 0 && graphErr.ConflictingRole != conflicting {
		t.Errorf("conflicting role = %d, want %d", graphErr.ConflictingRole, conflicting)
	}
}
