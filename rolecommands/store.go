package rolecommands

import (
	"database/sql"

	"emperror.dev/errors"
	"github.com/wardenbot/warden/common"
	"github.com/wardenbot/warden/settings"
)

// touchRole makes sure a role_settings row exists so graph edges and
// react bindings can point at it.
func touchRole(tx *sql.Tx, guildID, roleID int64) error {
	if err := settings.TouchGuild(tx, guildID); err != nil {
		return err
	}

	_, err := tx.Exec(`
	INSERT INTO role_settings (role_id, guild_id) VALUES ($1, $2)
	ON CONFLICT (role_id) DO NOTHING`, roleID, guildID)
	return common.ClassifyPGError(err)
}

// UpdateRoleSettings upserts the per role flags.
func UpdateRoleSettings(rs *RoleSettings) error {
	return common.SqlTX(func(tx *sql.Tx) error {
		if err := settings.TouchGuild(tx, rs.GuildID); err != nil {
			return err
		}

		_, err := tx.Exec(`
		INSERT INTO role_settings (role_id, guild_id, self_assignable, self_removable, sticky)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (role_id) DO UPDATE SET
			self_assignable=excluded.self_assignable,
			self_removable=excluded.self_removable,
			sticky=excluded.sticky`,
			rs.RoleID, rs.GuildID, rs.SelfAssignable, rs.SelfRemovable, rs.Sticky)
		return common.ClassifyPGError(err)
	})
}

// GetRoleSettings returns the stored flags for a role, defaults if the
// role was never configured.
func GetRoleSettings(guildID, roleID int64) (*RoleSettings, error) {
	rs := &RoleSettings{RoleID: roleID, GuildID: guildID}

	err := common.PQ.QueryRow(`
	SELECT self_assignable, self_removable, sticky
	FROM role_settings
	WHERE role_id = $1 AND guild_id = $2`, roleID, guildID).Scan(
		&rs.SelfAssignable, &rs.SelfRemovable, &rs.Sticky)
	if err == sql.ErrNoRows {
		return rs, nil
	}
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	return rs, nil
}

// DeleteRole drops a role's configuration; its graph edges, react
// bindings and sticky tracking go with it through the cascades.
func DeleteRole(guildID, roleID int64) error {
	_, err := common.PQ.Exec(
		"DELETE FROM role_settings WHERE role_id = $1 AND guild_id = $2", roleID, guildID)
	return common.ClassifyPGDeleteError(err)
}

// SetMutualExclusivity declares every pair over the given roles
// mutually exclusive. Pairs are stored canonically, smaller id first,
// so the same unordered pair inserted twice in either order lands on
// the same row.
func SetMutualExclusivity(guildID int64, roleIDs ...int64) error {
	return common.SqlTX(func(tx *sql.Tx) error {
		for _, roleID := range roleIDs {
			if err := touchRole(tx, guildID, roleID); err != nil {
				return err
			}
		}

		for i := 0; i < len(roleIDs); i++ {
			for j := i + 1; j < len(roleIDs); j++ {
				a, b := canonicalPair(roleIDs[i], roleIDs[j])
				if a == b {
					continue
				}

				_, err := tx.Exec(`
				INSERT INTO role_mutual_exclusivity (role_id_1, role_id_2)
				VALUES ($1, $2)
				ON CONFLICT (role_id_1, role_id_2) DO NOTHING`, a, b)
				if err != nil {
					return common.ClassifyPGError(err)
				}
			}
		}

		return nil
	})
}

// RemoveMutualExclusivity drops the pair, whichever order it is given
// in.
func RemoveMutualExclusivity(roleA, roleB int64) error {
	a, b := canonicalPair(roleA, roleB)
	_, err := common.PQ.Exec(
		"DELETE FROM role_mutual_exclusivity WHERE role_id_1 = $1 AND role_id_2 = $2", a, b)
	return common.ClassifyPGDeleteError(err)
}

func canonicalPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// SetRequiresAny replaces the requires-any prerequisite set for a role.
// An empty required set clears the edges.
func SetRequiresAny(guildID, roleID int64, required ...int64) error {
	return setRequires("role_requires_any", guildID, roleID, required)
}

// SetRequiresAll replaces the requires-all prerequisite set for a role.
func SetRequiresAll(guildID, roleID int64, required ...int64) error {
	return setRequires("role_requires_all", guildID, roleID, required)
}

func setRequires(table string, guildID, roleID int64, required []int64) error {
	return common.SqlTX(func(tx *sql.Tx) error {
		if err := touchRole(tx, guildID, roleID); err != nil {
			return err
		}

		// table is a compile time constant from the exported setters
		_, err := tx.Exec("DELETE FROM "+table+" WHERE role_id = $1", roleID)
		if err != nil {
			return common.ClassifyPGDeleteError(err)
		}

		for _, req := range required {
			if err := touchRole(tx, guildID, req); err != nil {
				return err
			}

			_, err := tx.Exec(`
			INSERT INTO `+table+` (role_id, required_role_id)
			VALUES ($1, $2)
			ON CONFLICT (role_id, required_role_id) DO NOTHING`, roleID, req)
			if err != nil {
				return common.ClassifyPGError(err)
			}
		}

		return nil
	})
}

// GrantRole runs the graph decision and the sticky tracking write in
// one transaction, so the state the decision was made against is the
// state the write lands on. currentRoles is the member's role set as
// the caller sees it on the platform.
func GrantRole(guildID, userID, roleID int64, currentRoles []int64) error {
	return common.SqlTX(func(tx *sql.Tx) error {
		graph, err := LoadRoleGraphTX(tx, guildID)
		if err != nil {
			return err
		}

		if err := graph.CanGrant(roleID, currentRoles); err != nil {
			return err
		}

		return trackStickyTX(tx, guildID, userID, roleID)
	})
}

// RemoveRole is the removal counterpart of GrantRole: decision and
// sticky untracking in one transaction.
func RemoveRole(guildID, userID, roleID int64, currentRoles []int64) error {
	return common.SqlTX(func(tx *sql.Tx) error {
		graph, err := LoadRoleGraphTX(tx, guildID)
		if err != nil {
			return err
		}

		if err := graph.CanRemove(roleID, currentRoles); err != nil {
			return err
		}

		_, err = tx.Exec(`
		DELETE FROM roles_stuck_to_members
		WHERE guild_id = $1 AND user_id = $2 AND role_id = $3`, guildID, userID, roleID)
		return common.ClassifyPGDeleteError(err)
	})
}

// trackStickyTX records the role on the member if and only if the role
// is marked sticky; the EXISTS guard keeps non sticky grants from
// leaving tracking rows behind.
func trackStickyTX(tx *sql.Tx, guildID, userID, roleID int64) error {
	if err := settings.TouchMember(tx, guildID, userID); err != nil {
		return err
	}

	_, err := tx.Exec(`
	INSERT INTO roles_stuck_to_members (guild_id, user_id, role_id)
	SELECT $1, $2, $3
	WHERE EXISTS (SELECT 1 FROM role_settings WHERE role_id = $3 AND sticky)
	ON CONFLICT (guild_id, user_id, role_id) DO NOTHING`, guildID, userID, roleID)
	return common.ClassifyPGError(err)
}

// StickyRolesForMember returns the roles tracked as stuck to a member,
// the set SelectStickyReapplication filters on rejoin.
func StickyRolesForMember(guildID, userID int64) ([]int64, error) {
	rows, err := common.PQ.Query(`
	SELECT role_id FROM roles_stuck_to_members
	WHERE guild_id = $1 AND user_id = $2
	ORDER BY role_id`, guildID, userID)
	if err != nil {
		return nil, errors.WithStackIf(err)
	}
	defer rows.Close()

	var roles []int64
	for rows.Next() {
		var roleID int64
		if err := rows.Scan(&roleID); err != nil {
			return nil, errors.WithStackIf(err)
		}
		roles = append(roles, roleID)
	}

	return roles, errors.WithStackIf(rows.Err())
}

// ClearStickyRoles drops all sticky tracking for a member.
func ClearStickyRoles(guildID, userID int64) error {
	_, err := common.PQ.Exec(
		"DELETE FROM roles_stuck_to_members WHERE guild_id = $1 AND user_id = $2", guildID, userID)
	return common.ClassifyPGDeleteError(err)
}

// UpsertReactRole binds a (message, reaction) pair to a role. A second
// upsert on the same pair rebinds it.
func UpsertReactRole(entry *ReactRoleEntry) error {
	return common.SqlTX(func(tx *sql.Tx) error {
		if err := touchRole(tx, entry.GuildID, entry.RoleID); err != nil {
			return err
		}

		_, err := tx.Exec(`
		INSERT INTO react_role_entries (guild_id, channel_id, message_id, reaction_string,
			role_id, react_remove_triggers_removal)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (message_id, reaction_string) DO UPDATE SET
			guild_id=excluded.guild_id,
			channel_id=excluded.channel_id,
			role_id=excluded.role_id,
			react_remove_triggers_removal=excluded.react_remove_triggers_removal`,
			entry.GuildID, entry.ChannelID, entry.MessageID, entry.ReactionString,
			entry.RoleID, entry.ReactRemoveTriggersRemoval)
		return common.ClassifyPGError(err)
	})
}

// GetReactRole looks up the binding for one reaction on one message.
func GetReactRole(messageID int64, reaction string) (*ReactRoleEntry, error) {
	entry := &ReactRoleEntry{MessageID: messageID, ReactionString: reaction}

	err := common.PQ.QueryRow(`
	SELECT guild_id, channel_id, role_id, react_remove_triggers_removal
	FROM react_role_entries
	WHERE message_id = $1 AND reaction_string = $2`, messageID, reaction).Scan(
		&entry.GuildID, &entry.ChannelID, &entry.RoleID, &entry.ReactRemoveTriggersRemoval)
	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	return entry, nil
}

// GetGuildReactRoles lists all react role bindings for a guild.
func GetGuildReactRoles(guildID int64) ([]*ReactRoleEntry, error) {
	rows, err := common.PQ.Query(`
	SELECT guild_id, channel_id, message_id, reaction_string, role_id, react_remove_triggers_removal
	FROM react_role_entries
	WHERE guild_id = $1
	ORDER BY message_id, reaction_string`, guildID)
	if err != nil {
		return nil, errors.WithStackIf(err)
	}
	defer rows.Close()

	var entries []*ReactRoleEntry
	for rows.Next() {
		entry := &ReactRoleEntry{}
		err := rows.Scan(&entry.GuildID, &entry.ChannelID, &entry.MessageID,
			&entry.ReactionString, &entry.RoleID, &entry.ReactRemoveTriggersRemoval)
		if err != nil {
			return nil, errors.WithStackIf(err)
		}
		entries = append(entries, entry)
	}

	return entries, errors.WithStackIf(rows.Err())
}

func RemoveReactRole(messageID int64, reaction string) error {
	_, err := common.PQ.Exec(
		"DELETE FROM react_role_entries WHERE message_id = $1 AND reaction_string = $2",
		messageID, reaction)
	return common.ClassifyPGDeleteError(err)
}
