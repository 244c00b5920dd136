package rolecommands

import (
	"fmt"
	"os"
	"testing"

	"github.com/wardenbot/warden/common"
	"github.com/wardenbot/warden/common/testutils"
	"github.com/wardenbot/warden/settings"
)

var dropTables = []string{
	"roles_stuck_to_members",
	"react_role_entries",
	"role_requires_all",
	"role_requires_any",
	"role_mutual_exclusivity",
	"role_settings",
	"guild_prefixes",
	"member_settings",
	"user_settings",
	"guild_settings",
}

func TestMain(m *testing.M) {
	initQueries := append([]string{}, settings.DBSchemas()...)
	initQueries = append(initQueries, dbSchemas...)

	conn, err := testutils.InitPQ(dropTables, initQueries)
	if err != nil {
		fmt.Println("Failed connecting to postgres database, not running tests: ", err)
		return
	}

	common.PQ = conn

	os.Exit(m.Run())
}

func TestExclusivityCanonicalPairs(t *testing.T) {
	const guildID = 200

	// given in descending order, stored smaller id first
	if err := SetMutualExclusivity(guildID, 20, 10); err != nil {
		t.Fatal(err)
	}
	// same unordered pair again, other order
	if err := SetMutualExclusivity(guildID, 10, 20); err != nil {
		t.Fatal(err)
	}

	var count int
	err := common.PQ.QueryRow(`
	SELECT COUNT(*) FROM role_mutual_exclusivity
	WHERE role_id_1 = 10 AND role_id_2 = 20`).Scan(&count)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("canonical pair rows = %d, want exactly 1", count)
	}

	err = common.PQ.QueryRow(`
	SELECT COUNT(*) FROM role_mutual_exclusivity
	WHERE role_id_1 = 20`).Scan(&count)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Error("pair stored in non canonical order")
	}
}

func TestExclusivitySetExpandsToAllPairs(t *testing.T) {
	const guildID = 201

	if err := SetMutualExclusivity(guildID, 31, 32, 33); err != nil {
		t.Fatal(err)
	}

	graph, err := LoadRoleGraph(guildID)
	if err != nil {
		t.Fatal(err)
	}

	for _, pair := range [][2]int64{{31, 32}, {31, 33}, {32, 33}} {
		if err := graph.CanGrant(pair[0], []int64{pair[1]}); err == nil {
			t.Errorf("grant of %d while holding %d not refused", pair[0], pair[1])
		}
		if err := graph.CanGrant(pair[1], []int64{pair[0]}); err == nil {
			t.Errorf("grant of %d while holding %d not refused", pair[1], pair[0])
		}
	}
}

func TestSetRequiresReplacesSet(t *testing.T) {
	const guildID = 202

	if err := SetRequiresAny(guildID, 40, 41, 42); err != nil {
		t.Fatal(err)
	}
	if err := SetRequiresAny(guildID, 40, 43); err != nil {
		t.Fatal(err)
	}

	graph, err := LoadRoleGraph(guildID)
	if err != nil {
		t.Fatal(err)
	}

	if err := graph.CanGrant(40, []int64{41}); err == nil {
		t.Error("stale prerequisite still satisfies the any-set after replacement")
	}
	if err := graph.CanGrant(40, []int64{43}); err != nil {
		t.Errorf("replaced any-set not honored: %v", err)
	}
}

func TestGrantRoleTracksSticky(t *testing.T) {
	const guildID, userID = 203, 1

	if err := UpdateRoleSettings(&RoleSettings{RoleID: 50, GuildID: guildID, Sticky: true}); err != nil {
		t.Fatal(err)
	}
	if err := UpdateRoleSettings(&RoleSettings{RoleID: 51, GuildID: guildID}); err != nil {
		t.Fatal(err)
	}

	if err := GrantRole(guildID, userID, 50, nil); err != nil {
		t.Fatal(err)
	}
	if err := GrantRole(guildID, userID, 51, []int64{50}); err != nil {
		t.Fatal(err)
	}

	stuck, err := StickyRolesForMember(guildID, userID)
	if err != nil {
		t.Fatal(err)
	}
	if len(stuck) != 1 || stuck[0] != 50 {
		t.Errorf("sticky roles = %v, want only the sticky role 50", stuck)
	}

	if err := RemoveRole(guildID, userID, 50, []int64{50, 51}); err != nil {
		t.Fatal(err)
	}

	stuck, err = StickyRolesForMember(guildID, userID)
	if err != nil {
		t.Fatal(err)
	}
	if len(stuck) != 0 {
		t.Errorf("sticky roles after removal = %v, want none", stuck)
	}
}

func TestGrantRoleRefusedByGraph(t *testing.T) {
	const guildID, userID = 204, 1

	if err := SetMutualExclusivity(guildID, 60, 61); err != nil {
		t.Fatal(err)
	}

	err := GrantRole(guildID, userID, 61, []int64{60})
	graphErr, ok := err.(*RoleGraphError)
	if !ok {
		t.Fatalf("err = %v, want RoleGraphError", err)
	}
	if graphErr.ConflictingRole != 60 {
		t.Errorf("conflicting role = %d, want 60", graphErr.ConflictingRole)
	}

	stuck, err := StickyRolesForMember(guildID, userID)
	if err != nil {
		t.Fatal(err)
	}
	if len(stuck) != 0 {
		t.Error("refused grant left sticky tracking behind")
	}
}

func TestDeleteRoleCascadesEdges(t *testing.T) {
	const guildID = 205

	if err := SetMutualExclusivity(guildID, 70, 71); err != nil {
		t.Fatal(err)
	}
	if err := SetRequiresAll(guildID, 72, 70); err != nil {
		t.Fatal(err)
	}

	if err := DeleteRole(guildID, 70); err != nil {
		t.Fatal(err)
	}

	var count int
	err := common.PQ.QueryRow(`
	SELECT COUNT(*) FROM role_mutual_exclusivity
	WHERE role_id_1 = $1 OR role_id_2 = $1`, 70).Scan(&count)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Error("role_mutual_exclusivity still holds edges for the deleted role")
	}

	err = common.PQ.QueryRow(`
	SELECT COUNT(*) FROM role_requires_all
	WHERE role_id = $1 OR required_role_id = $1`, 70).Scan(&count)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Error("role_requires_all still holds edges for the deleted role")
	}
}

func TestReactRoleUpsertRebinds(t *testing.T) {
	const guildID, messageID = 206, 9000

	entry := &ReactRoleEntry{
		GuildID: guildID, ChannelID: 1, MessageID: messageID,
		ReactionString: "thumbsup", RoleID: 80,
	}
	if err := UpsertReactRole(entry); err != nil {
		t.Fatal(err)
	}

	entry.RoleID = 81
	entry.ReactRemoveTriggersRemoval = true
	if err := UpsertReactRole(entry); err != nil {
		t.Fatal(err)
	}

	got, err := GetReactRole(messageID, "thumbsup")
	if err != nil {
		t.Fatal(err)
	}
	if got.RoleID != 81 || !got.ReactRemoveTriggersRemoval {
		t.Errorf("binding = %+v, want rebound to role 81", got)
	}

	all, err := GetGuildReactRoles(guildID)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("guild bindings = %d, want 1 after rebind", len(all))
	}

	if err := RemoveReactRole(messageID, "thumbsup"); err != nil {
		t.Fatal(err)
	}
	if _, err := GetReactRole(messageID, "thumbsup"); err != common.ErrNotFound {
		t.Errorf("lookup after remove err = %v, want ErrNotFound", err)
	}
}
