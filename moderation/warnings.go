package moderation

import (
	"database/sql"

	"emperror.dev/errors"
	"github.com/wardenbot/warden/common"
	"github.com/wardenbot/warden/settings"
)

// AddWarning stores a warning against a member and returns its id.
func AddWarning(guildID, modID, targetID int64, reason string) (id int64, err error) {
	err = common.SqlTX(func(tx *sql.Tx) error {
		if err := settings.TouchMember(tx, guildID, modID); err != nil {
			return err
		}
		if err := settings.TouchMember(tx, guildID, targetID); err != nil {
			return err
		}

		err := tx.QueryRow(`
		INSERT INTO guild_warnings (guild_id, mod_id, target_id, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id`, guildID, modID, targetID, reason).Scan(&id)
		return common.ClassifyPGError(err)
	})
	if err != nil {
		return 0, err
	}

	return id, nil
}

// GetWarnings returns the warnings filed against a member, oldest first.
func GetWarnings(guildID, targetID int64) ([]*Warning, error) {
	rows, err := common.PQ.Query(`
	SELECT id, guild_id, mod_id, target_id, reason, created_at
	FROM guild_warnings
	WHERE guild_id = $1 AND target_id = $2
	ORDER BY id`, guildID, targetID)
	if err != nil {
		return nil, errors.WithStackIf(err)
	}
	defer rows.Close()

	var warnings []*Warning
	for rows.Next() {
		w := &Warning{}
		err := rows.Scan(&w.ID, &w.GuildID, &w.ModID, &w.TargetID, &w.Reason, &w.CreatedAt)
		if err != nil {
			return nil, errors.WithStackIf(err)
		}
		warnings = append(warnings, w)
	}

	return warnings, errors.WithStackIf(rows.Err())
}

func CountWarnings(guildID, targetID int64) (int64, error) {
	var count int64
	err := common.PQ.QueryRow(
		"SELECT COUNT(*) FROM guild_warnings WHERE guild_id = $1 AND target_id = $2",
		guildID, targetID).Scan(&count)

	return count, errors.WithStackIf(err)
}

// RemoveWarning deletes one warning by id, scoped to the guild so a
// guild can only clear its own history. common.ErrNotFound if the id
// doesn't exist there.
func RemoveWarning(guildID, id int64) error {
	result, err := common.PQ.Exec(
		"DELETE FROM guild_warnings WHERE guild_id = $1 AND id = $2", guildID, id)
	if err != nil {
		return common.ClassifyPGDeleteError(err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}
