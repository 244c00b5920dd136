package rolecommands

import (
	"database/sql"
	"fmt"

	"emperror.dev/errors"
	"github.com/wardenbot/warden/common"
)

// Kinds of edges a role graph decision can be refused on.
const (
	ConflictExclusivity = "mutual_exclusivity"
	ConflictRequiresAny = "requires_any"
	ConflictRequiresAll = "requires_all"
	ConflictDependent   = "dependent_unsatisfied"
)

// RoleGraphError is a grant or removal refused by the dependency graph.
// It carries the edge that refused it so the caller can explain the
// decision instead of reporting a generic failure.
type RoleGraphError struct {
	Role int64
	Kind string

	// ConflictingRole is the held role on the other end of the edge:
	// the exclusivity partner, or the dependent role whose
	// prerequisites a removal would break.
	ConflictingRole int64

	// RequiredRoles is the unsatisfied prerequisite set for the
	// requires_any / requires_all kinds.
	RequiredRoles []int64
}

func (e *RoleGraphError) Error() string {
	switch e.Kind {
	case ConflictExclusivity:
		return fmt.Sprintf("role %d is mutually exclusive with held role %d", e.Role, e.ConflictingRole)
	case ConflictRequiresAny:
		return fmt.Sprintf("role %d requires at least one of %v", e.Role, e.RequiredRoles)
	case ConflictRequiresAll:
		return fmt.Sprintf("role %d requires all of %v", e.Role, e.RequiredRoles)
	case ConflictDependent:
		return fmt.Sprintf("removing role %d would break the requirements of held role %d", e.Role, e.ConflictingRole)
	}
	return fmt.Sprintf("role graph conflict on role %d", e.Role)
}

// RoleGraph is a guild's role relationships loaded into adjacency sets:
// an undirected conflict graph (mutual exclusivity) and directed
// prerequisite edges (requires any/all) over the same node set. A graph
// is a point-in-time snapshot; load it in the same transaction as the
// write it gates.
type RoleGraph struct {
	GuildID int64

	settings    map[int64]*RoleSettings
	exclusive   map[int64]map[int64]bool
	requiresAny map[int64][]int64
	requiresAll map[int64][]int64
}

// LoadRoleGraph reads the full relationship state for a guild.
func LoadRoleGraph(guildID int64) (*RoleGraph, error) {
	return loadRoleGraph(queryerFor(nil), guildID)
}

// LoadRoleGraphTX is LoadRoleGraph inside an existing transaction, for
// callers combining the decision with the write it gates.
func LoadRoleGraphTX(tx *sql.Tx, guildID int64) (*RoleGraph, error) {
	return loadRoleGraph(queryerFor(tx), guildID)
}

// CanGrant reports whether the member holding currentRoles may be
// granted role. nil means yes; otherwise the returned RoleGraphError
// names the edge that refused it.
func (g *RoleGraph) CanGrant(role int64, currentRoles []int64) error {
	held := toRoleSet(currentRoles)

	for partner := range g.exclusive[role] {
		if held[partner] {
			return &RoleGraphError{Role: role, Kind: ConflictExclusivity, ConflictingRole: partner}
		}
	}

	if anyOf := g.requiresAny[role]; len(anyOf) > 0 {
		satisfied := false
		for _, req := range anyOf {
			if held[req] {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return &RoleGraphError{Role: role, Kind: ConflictRequiresAny, RequiredRoles: anyOf}
		}
	}

	if allOf := g.requiresAll[role]; len(allOf) > 0 {
		var missing []int64
		for _, req := range allOf {
			if !held[req] {
				missing = append(missing, req)
			}
		}
		if len(missing) > 0 {
			return &RoleGraphError{Role: role, Kind: ConflictRequiresAll, RequiredRoles: missing}
		}
	}

	return nil
}

// CanRemove reports whether role may be taken from a member holding
// currentRoles. The check runs against the resulting role set: every
// other held role must still have its prerequisites satisfied once role
// is gone. Roles marked self_removable are exempt, the member could
// drop them themselves anyway.
func (g *RoleGraph) CanRemove(role int64, currentRoles []int64) error {
	resulting := toRoleSet(currentRoles)
	delete(resulting, role)

	for held := range resulting {
		if held == role {
			continue
		}
		if rs, ok := g.settings[held]; ok && rs.SelfRemovable {
			continue
		}

		if anyOf := g.requiresAny[held]; len(anyOf) > 0 && !anySatisfied(anyOf, resulting) {
			return &RoleGraphError{Role: role, Kind: ConflictDependent, ConflictingRole: held, RequiredRoles: anyOf}
		}

		if allOf := g.requiresAll[held]; len(allOf) > 0 {
			for _, req := range allOf {
				if !resulting[req] {
					return &RoleGraphError{Role: role, Kind: ConflictDependent, ConflictingRole: held, RequiredRoles: allOf}
				}
			}
		}
	}

	return nil
}

// ConflictsWith returns the roles forming a mutual exclusivity pair with
// role, in no particular order.
func (g *RoleGraph) ConflictsWith(role int64) []int64 {
	partners := make([]int64, 0, len(g.exclusive[role]))
	for partner := range g.exclusive[role] {
		partners = append(partners, partner)
	}
	return partners
}

// SelectStickyReapplication decides which sticky roles to hand back to
// a rejoining member. Sticky reapplication bypasses the prerequisite
// checks, but exclusivity still applies: a sticky role conflicting with
// a role the member already has back, or with an earlier selected
// sticky role, is skipped and surfaced as a conflict instead of being
// silently resolved.
func (g *RoleGraph) SelectStickyReapplication(stickyRoles, currentRoles []int64) (apply []int64, conflicts []*RoleGraphError) {
	held := toRoleSet(currentRoles)

	for _, role := range stickyRoles {
		conflicted := false
		for partner := range g.exclusive[role] {
			if held[partner] {
				conflicts = append(conflicts, &RoleGraphError{
					Role: role, Kind: ConflictExclusivity, ConflictingRole: partner,
				})
				conflicted = true
				break
			}
		}
		if conflicted {
			continue
		}

		apply = append(apply, role)
		held[role] = true
	}

	return apply, conflicts
}

func anySatisfied(required []int64, held map[int64]bool) bool {
	for _, req := range required {
		if held[req] {
			return true
		}
	}
	return false
}

func toRoleSet(roles []int64) map[int64]bool {
	set := make(map[int64]bool, len(roles))
	for _, r := range roles {
		set[r] = true
	}
	return set
}

type queryer interface {
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

func queryerFor(tx *sql.Tx) queryer {
	if tx != nil {
		return tx
	}
	return common.PQ
}

func loadRoleGraph(q queryer, guildID int64) (*RoleGraph, error) {
	g := &RoleGraph{
		GuildID:     guildID,
		settings:    make(map[int64]*RoleSettings),
		exclusive:   make(map[int64]map[int64]bool),
		requiresAny: make(map[int64][]int64),
		requiresAll: make(map[int64][]int64),
	}

	rows, err := q.Query(`
	SELECT role_id, self_assignable, self_removable, sticky
	FROM role_settings
	WHERE guild_id = $1`, guildID)
	if err != nil {
		return nil, errors.WithStackIf(err)
	}
	for rows.Next() {
		rs := &RoleSettings{GuildID: guildID}
		if err := rows.Scan(&rs.RoleID, &rs.SelfAssignable, &rs.SelfRemovable, &rs.Sticky); err != nil {
			rows.Close()
			return nil, errors.WithStackIf(err)
		}
		g.settings[rs.RoleID] = rs
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errors.WithStackIf(err)
	}

	rows, err = q.Query(`
	SELECT e.role_id_1, e.role_id_2
	FROM role_mutual_exclusivity e
	JOIN role_settings rs ON rs.role_id = e.role_id_1
	WHERE rs.guild_id = $1`, guildID)
	if err != nil {
		return nil, errors.WithStackIf(err)
	}
	for rows.Next() {
		var a, b int64
		if err := rows.Scan(&a, &b); err != nil {
			rows.Close()
			return nil, errors.WithStackIf(err)
		}
		g.addExclusive(a, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errors.WithStackIf(err)
	}

	if g.requiresAny, err = loadRequires(q, guildID, "role_requires_any"); err != nil {
		return nil, err
	}
	if g.requiresAll, err = loadRequires(q, guildID, "role_requires_all"); err != nil {
		return nil, err
	}

	return g, nil
}

// addExclusive records an undirected conflict edge in both directions.
func (g *RoleGraph) addExclusive(a, b int64) {
	if g.exclusive[a] == nil {
		g.exclusive[a] = make(map[int64]bool)
	}
	if g.exclusive[b] == nil {
		g.exclusive[b] = make(map[int64]bool)
	}
	g.exclusive[a][b] = true
	g.exclusive[b][a] = true
}

func loadRequires(q queryer, guildID int64, table string) (map[int64][]int64, error) {
	rows, err := q.Query(`
	SELECT r.role_id, r.required_role_id
	FROM `+table+` r
	JOIN role_settings rs ON rs.role_id = r.role_id
	WHERE rs.guild_id = $1`, guildID)
	if err != nil {
		return nil, errors.WithStackIf(err)
	}
	defer rows.Close()

	edges := make(map[int64][]int64)
	for rows.Next() {
		var role, required int64
		if err := rows.Scan(&role, &required); err != nil {
			return nil, errors.WithStackIf(err)
		}
		edges[role] = append(edges[role], required)
	}

	return edges, errors.WithStackIf(rows.Err())
}
