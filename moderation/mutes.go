package moderation

import (
	"database/sql"
	"time"

	"emperror.dev/errors"
	"github.com/volatiletech/null/v8"
	"github.com/wardenbot/warden/common"
	"github.com/wardenbot/warden/settings"
)

// ErrNotMuted is returned by unmute operations when the member has no
// stored mute.
var ErrNotMuted = errors.New("member is not muted")

// MuteMember stores or refreshes a member's mute, together with the set
// of roles that were stripped so the unmute can restore them. Muting an
// already muted member updates the role and expiry in place and merges
// the removed role set.
func MuteMember(guildID, userID int64, muteRole null.Int64, expiresAt null.Time, removedRoles []int64) error {
	LockMemberMute(guildID, userID)
	defer UnlockMemberMute(guildID, userID)

	return common.SqlTX(func(tx *sql.Tx) error {
		if err := settings.TouchMember(tx, guildID, userID); err != nil {
			return err
		}

		_, err := tx.Exec(`
		INSERT INTO guild_mutes (guild_id, user_id, mute_role_used, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guild_id, user_id) DO UPDATE SET
			mute_role_used=excluded.mute_role_used,
			expires_at=excluded.expires_at`, guildID, userID, muteRole, expiresAt)
		if err != nil {
			return common.ClassifyPGError(err)
		}

		for _, roleID := range removedRoles {
			_, err := tx.Exec(`
			INSERT INTO guild_mute_removed_roles (guild_id, user_id, removed_role_id)
			VALUES ($1, $2, $3)
			ON CONFLICT (guild_id, user_id, removed_role_id) DO NOTHING`, guildID, userID, roleID)
			if err != nil {
				return common.ClassifyPGError(err)
			}
		}

		return nil
	})
}

// UnmuteMember removes the stored mute and returns the roles that were
// stripped at mute time so the caller can hand them back. The removed
// role rows go with the mute row through the cascade, all in one
// transaction. ErrNotMuted if no mute was stored.
func UnmuteMember(guildID, userID int64) (restoreRoles []int64, err error) {
	LockMemberMute(guildID, userID)
	defer UnlockMemberMute(guildID, userID)

	err = common.SqlTX(func(tx *sql.Tx) error {
		restoreRoles, err = removedRolesTX(tx, guildID, userID)
		if err != nil {
			return err
		}

		result, err := tx.Exec("DELETE FROM guild_mutes WHERE guild_id = $1 AND user_id = $2", guildID, userID)
		if err != nil {
			return common.ClassifyPGDeleteError(err)
		}

		if n, _ := result.RowsAffected(); n == 0 {
			return ErrNotMuted
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return restoreRoles, nil
}

// GetMute returns the stored mute for a member, or common.ErrNotFound.
func GetMute(guildID, userID int64) (*MemberMute, error) {
	mute := &MemberMute{GuildID: guildID, UserID: userID}

	err := common.PQ.QueryRow(`
	SELECT mute_role_used, muted_at, expires_at
	FROM guild_mutes
	WHERE guild_id = $1 AND user_id = $2`, guildID, userID).Scan(
		&mute.MuteRoleUsed, &mute.MutedAt, &mute.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	mute.RemovedRoles, err = removedRolesTX(nil, guildID, userID)
	if err != nil {
		return nil, err
	}

	return mute, nil
}

func MemberIsMuted(guildID, userID int64) (bool, error) {
	var muted bool
	err := common.PQ.QueryRow(
		"SELECT EXISTS (SELECT 1 FROM guild_mutes WHERE guild_id = $1 AND user_id = $2)",
		guildID, userID).Scan(&muted)

	return muted, errors.WithStackIf(err)
}

// MutesExpiringBefore returns the mutes whose expiry falls before t.
// Indefinite mutes (NULL expiry) never show up here.
func MutesExpiringBefore(t time.Time) ([]*MemberMute, error) {
	rows, err := common.PQ.Query(`
	SELECT guild_id, user_id, mute_role_used, muted_at, expires_at
	FROM guild_mutes
	WHERE expires_at IS NOT NULL AND expires_at < $1`, t)
	if err != nil {
		return nil, errors.WithStackIf(err)
	}
	defer rows.Close()

	var mutes []*MemberMute
	for rows.Next() {
		mute := &MemberMute{}
		err := rows.Scan(&mute.GuildID, &mute.UserID, &mute.MuteRoleUsed, &mute.MutedAt, &mute.ExpiresAt)
		if err != nil {
			return nil, errors.WithStackIf(err)
		}
		mutes = append(mutes, mute)
	}

	return mutes, errors.WithStackIf(rows.Err())
}

// ClearRemovedRoles drops the stored stripped role set for a mute
// without lifting the mute. Used when the member left and rejoined to
// dodge the mute: the roles they held before no longer apply.
func ClearRemovedRoles(guildID, userID int64) error {
	_, err := common.PQ.Exec(
		"DELETE FROM guild_mute_removed_roles WHERE guild_id = $1 AND user_id = $2",
		guildID, userID)
	return common.ClassifyPGDeleteError(err)
}

func removedRolesTX(tx *sql.Tx, guildID, userID int64) ([]int64, error) {
	const q = `
	SELECT removed_role_id FROM guild_mute_removed_roles
	WHERE guild_id = $1 AND user_id = $2
	ORDER BY removed_role_id`

	var rows *sql.Rows
	var err error
	if tx != nil {
		rows, err = tx.Query(q, guildID, userID)
	} else {
		rows, err = common.PQ.Query(q, guildID, userID)
	}
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
