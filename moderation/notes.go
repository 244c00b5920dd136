package moderation

import (
	"database/sql"

	"emperror.dev/errors"
	"github.com/wardenbot/warden/common"
	"github.com/wardenbot/warden/settings"
)

// AddNote stores a freeform moderator note on a member.
func AddNote(guildID, modID, targetID int64, note string) (id int64, err error) {
	err = common.SqlTX(func(tx *sql.Tx) error {
		if err := settings.TouchMember(tx, guildID, modID); err != nil {
			return err
		}
		if err := settings.TouchMember(tx, guildID, targetID); err != nil {
			return err
		}

		err := tx.QueryRow(`
		INSERT INTO mod_notes_on_members (guild_id, mod_id, target_id, note)
		VALUES ($1, $2, $3, $4)
		RETURNING id`, guildID, modID, targetID, note).Scan(&id)
		return common.ClassifyPGError(err)
	})
	if err != nil {
		return 0, err
	}

	return id, nil
}

// GetNotesOnMember returns the notes filed on a member, oldest first.
func GetNotesOnMember(guildID, targetID int64) ([]*MemberNote, error) {
	return queryNotes(`
	SELECT id, guild_id, mod_id, target_id, note, created_at
	FROM mod_notes_on_members
	WHERE guild_id = $1 AND target_id = $2
	ORDER BY id`, guildID, targetID)
}

// GetNotesByAuthor returns the notes one moderator wrote in a guild,
// oldest first.
func GetNotesByAuthor(guildID, modID int64) ([]*MemberNote, error) {
	return queryNotes(`
	SELECT id, guild_id, mod_id, target_id, note, created_at
	FROM mod_notes_on_members
	WHERE guild_id = $1 AND mod_id = $2
	ORDER BY id`, guildID, modID)
}

func RemoveNote(guildID, id int64) error {
	result, err := common.PQ.Exec(
		"DELETE FROM mod_notes_on_members WHERE guild_id = $1 AND id = $2", guildID, id)
	if err != nil {
		return common.ClassifyPGDeleteError(err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func queryNotes(q string, args ...interface{}) ([]*MemberNote, error) {
	rows, err := common.PQ.Query(q, args...)
	if err != nil {
		return nil, errors.WithStackIf(err)
	}
	defer rows.Close()

	var notes []*MemberNote
	for rows.Next() {
		n := &MemberNote{}
		err := rows.Scan(&n.ID, &n.GuildID, &n.ModID, &n.TargetID, &n.Note, &n.CreatedAt)
		if err != nil {
			return nil, errors.WithStackIf(err)
		}
		notes = append(notes, n)
	}

	return notes, errors.WithStackIf(rows.Err())
}
