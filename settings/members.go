package settings

import (
	"database/sql"

	"emperror.dev/errors"
	"github.com/wardenbot/warden/common"
)

// TouchMember makes sure the guild, user and member rows all exist, in
// that order, so foreign keys hold.
func TouchMember(tx *sql.Tx, guildID, userID int64) error {
	if err := TouchGuild(tx, guildID); err != nil {
		return err
	}
	if err := TouchUser(tx, userID); err != nil {
		return err
	}

	const q = `
	INSERT INTO member_settings (user_id, guild_id) VALUES ($1, $2)
	ON CONFLICT (user_id, guild_id) DO NOTHING`

	var err error
	if tx != nil {
		_, err = tx.Exec(q, userID, guildID)
	} else {
		_, err = common.PQ.Exec(q, userID, guildID)
	}
	return common.ClassifyPGError(err)
}

func GetMemberSettings(guildID, userID int64) (*MemberSettings, error) {
	m := &MemberSettings{UserID: userID, GuildID: guildID}

	err := common.PQ.QueryRow(`
	SELECT is_blocked, is_mod, is_admin
	FROM member_settings
	WHERE guild_id = $1 AND user_id = $2`, guildID, userID).Scan(&m.IsBlocked, &m.IsMod, &m.IsAdmin)

	if err == sql.ErrNoRows {
		return m, nil
	}
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	return m, nil
}

func setMemberFlag(column string, guildID int64, val bool, userIDs []int64) error {
	return common.SqlTX(func(tx *sql.Tx) error {
		if err := TouchGuild(tx, guildID); err != nil {
			return err
		}

		// column is a compile time constant from the exported setters
		q := `
		INSERT INTO member_settings (guild_id, user_id, ` + column + `)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, guild_id)
		DO UPDATE SET ` + column + `=excluded.` + column

		for _, uid := range userIDs {
			if err := TouchUser(tx, uid); err != nil {
				return err
			}

			if _, err := tx.Exec(q, guildID, uid, val); err != nil {
				return common.ClassifyPGError(err)
			}
		}

		return nil
	})
}

// SetMembersBlocked blocks or unblocks users locally to one guild.
func SetMembersBlocked(guildID int64, blocked bool, userIDs ...int64) error {
	return setMemberFlag("is_blocked", guildID, blocked, userIDs)
}

func MemberIsBlocked(guildID, userID int64) (bool, error) {
	var blocked bool
	err := common.PQ.QueryRow(
		"SELECT is_blocked FROM member_settings WHERE guild_id = $1 AND user_id = $2",
		guildID, userID).Scan(&blocked)
	if err == sql.ErrNoRows {
		return false, nil
	}

	return blocked, errors.WithStackIf(err)
}

func GiveMod(guildID int64, userIDs ...int64) error {
	return setMemberFlag("is_mod", guildID, true, userIDs)
}

func RemoveMod(guildID int64, userIDs ...int64) error {
	return setMemberFlag("is_mod", guildID, false, userIDs)
}

func GiveAdmin(guildID int64, userIDs ...int64) error {
	return setMemberFlag("is_admin", guildID, true, userIDs)
}

func RemoveAdmin(guildID int64, userIDs ...int64) error {
	return setMemberFlag("is_admin", guildID, false, userIDs)
}

// MemberIsMod reports whether the member carries the guild local mod or
// admin flag, admins count as mods.
func MemberIsMod(guildID, userID int64) (bool, error) {
	var isMod bool
	err := common.PQ.QueryRow(
		"SELECT is_mod OR is_admin FROM member_settings WHERE guild_id = $1 AND user_id = $2",
		guildID, userID).Scan(&isMod)
	if err == sql.ErrNoRows {
		return false, nil
	}

	return isMod, errors.WithStackIf(err)
}

func MemberIsAdmin(guildID, userID int64) (bool, error) {
	var isAdmin bool
	err := common.PQ.QueryRow(
		"SELECT is_admin FROM member_settings WHERE guild_id = $1 AND user_id = $2",
		guildID, userID).Scan(&isAdmin)
	if err == sql.ErrNoRows {
		return false, nil
	}

	return isAdmin, errors.WithStackIf(err)
}

// DeleteMember removes a member row. Accountability history (modlog,
// warnings, notes) holds RESTRICT edges against it, so the delete is
// refused with a classified error while such history exists.
func DeleteMember(guildID, userID int64) error {
	_, err := common.PQ.Exec(
		"DELETE FROM member_settings WHERE guild_id = $1 AND user_id = $2",
		guildID, userID)
	return common.ClassifyPGDeleteError(err)
}
