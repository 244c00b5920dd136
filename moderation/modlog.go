package moderation

import (
	"database/sql"

	"emperror.dev/errors"
	"github.com/wardenbot/warden/common"
	"github.com/wardenbot/warden/settings"
)

// CreateModLogEntry records a moderation action and assigns it the next
// case number for the guild. The mod and target member rows are touched
// first so the RESTRICT edges hold, and the case counter is bumped in
// the same transaction so a failed insert doesn't leave a visible gap.
func CreateModLogEntry(entry *ModLogEntry) (caseNumber int64, err error) {
	err = common.SqlTX(func(tx *sql.Tx) error {
		if err := settings.TouchMember(tx, entry.GuildID, entry.ModID); err != nil {
			return err
		}
		if err := settings.TouchMember(tx, entry.GuildID, entry.TargetID); err != nil {
			return err
		}

		caseNumber, err = common.GenGuildIncrID(tx, entry.GuildID, "modlog_case")
		if err != nil {
			return err
		}

		_, err = tx.Exec(`
		INSERT INTO mod_log (guild_id, case_number, mod_action, mod_id, target_id,
			reason, username_at_action, discrim_at_action, nick_at_action)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			entry.GuildID, caseNumber, entry.ModAction, entry.ModID, entry.TargetID,
			entry.Reason, entry.UsernameAtAction, entry.DiscrimAtAction, entry.NickAtAction)
		return common.ClassifyPGError(err)
	})
	if err != nil {
		return 0, err
	}

	entry.CaseNumber = caseNumber
	return caseNumber, nil
}

// GetModLogEntry fetches one case by its guild local number.
func GetModLogEntry(guildID, caseNumber int64) (*ModLogEntry, error) {
	row := common.PQ.QueryRow(modLogSelect+`
	WHERE guild_id = $1 AND case_number = $2`, guildID, caseNumber)

	entry, err := scanModLogEntry(row)
	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}

	return entry, errors.WithStackIf(err)
}

// GetModLogEntries returns the newest cases for a guild, newest first.
func GetModLogEntries(guildID int64, limit int) ([]*ModLogEntry, error) {
	rows, err := common.PQ.Query(modLogSelect+`
	WHERE guild_id = $1
	ORDER BY case_number DESC
	LIMIT $2`, guildID, limit)
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	return scanModLogEntries(rows)
}

// GetModLogEntriesForTarget returns the cases filed against one member,
// newest first.
func GetModLogEntriesForTarget(guildID, targetID int64, limit int) ([]*ModLogEntry, error) {
	rows, err := common.PQ.Query(modLogSelect+`
	WHERE guild_id = $1 AND target_id = $2
	ORDER BY case_number DESC
	LIMIT $3`, guildID, targetID, limit)
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	return scanModLogEntries(rows)
}

// SetModLogReason updates the reason on an existing case.
func SetModLogReason(guildID, caseNumber int64, reason string) error {
	result, err := common.PQ.Exec(`
	UPDATE mod_log SET reason = $3
	WHERE guild_id = $1 AND case_number = $2`, guildID, caseNumber, reason)
	if err != nil {
		return common.ClassifyPGError(err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// CountUserReferences counts the history rows across the moderation
// tables in which the user appears, as mod or as target.
func CountUserReferences(userID int64) (int64, error) {
	var total int64
	err := common.PQ.QueryRow(`
	SELECT
		(SELECT COUNT(*) FROM mod_log WHERE mod_id = $1 OR target_id = $1) +
		(SELECT COUNT(*) FROM guild_warnings WHERE mod_id = $1 OR target_id = $1) +
		(SELECT COUNT(*) FROM mod_notes_on_members WHERE mod_id = $1 OR target_id = $1)`,
		userID).Scan(&total)

	return total, errors.WithStackIf(err)
}

const modLogSelect = `
	SELECT guild_id, case_number, mod_action, mod_id, target_id,
		created_at, reason, username_at_action, discrim_at_action, nick_at_action
	FROM mod_log`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanModLogEntry(row rowScanner) (*ModLogEntry, error) {
	entry := &ModLogEntry{}
	err := row.Scan(&entry.GuildID, &entry.CaseNumber, &entry.ModAction, &entry.ModID, &entry.TargetID,
		&entry.CreatedAt, &entry.Reason, &entry.UsernameAtAction, &entry.DiscrimAtAction, &entry.NickAtAction)
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func scanModLogEntries(rows *sql.Rows) ([]*ModLogEntry, error) {
	defer rows.Close()

	var entries []*ModLogEntry
	for rows.Next() {
		entry, err := scanModLogEntry(rows)
		if err != nil {
			return nil, errors.WithStackIf(err)
		}
		entries = append(entries, entry)
	}

	return entries, errors.WithStackIf(rows.Err())
}
