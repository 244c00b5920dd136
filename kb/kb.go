package kb

import (
	"database/sql"
	"time"

	"emperror.dev/errors"
	"github.com/wardenbot/warden/common"
	"github.com/wardenbot/warden/settings"
)

type Entry struct {
	GuildID int64
	Name    string

	Content  string
	AuthorID int64

	TimesUsed int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateEntry stores a new KB entry. A name collision within the guild
// comes back as a classified unique violation, the caller decides
// whether that means "use UpdateEntry instead".
func CreateEntry(guildID int64, name, content string, authorID int64) error {
	return common.SqlTX(func(tx *sql.Tx) error {
		if err := settings.TouchGuild(tx, guildID); err != nil {
			return err
		}
		if err := settings.TouchUser(tx, authorID); err != nil {
			return err
		}

		_, err := tx.Exec(`
		INSERT INTO guild_kb_entries (guild_id, kb_name, content, author_id)
		VALUES ($1, $2, $3, $4)`, guildID, name, content, authorID)
		return common.ClassifyPGError(err)
	})
}

// UpdateEntry replaces the content of an existing entry and bumps
// updated_at. common.ErrNotFound if the entry doesn't exist.
func UpdateEntry(guildID int64, name, content string) error {
	result, err := common.PQ.Exec(`
	UPDATE guild_kb_entries
	SET content = $3, updated_at = now()
	WHERE guild_id = $1 AND kb_name = $2`, guildID, name, content)
	if err != nil {
		return common.ClassifyPGError(err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func DeleteEntry(guildID int64, name string) error {
	result, err := common.PQ.Exec(
		"DELETE FROM guild_kb_entries WHERE guild_id = $1 AND kb_name = $2", guildID, name)
	if err != nil {
		return common.ClassifyPGDeleteError(err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// GetEntry fetches an entry without touching its use count.
func GetEntry(guildID int64, name string) (*Entry, error) {
	entry := &Entry{GuildID: guildID, Name: name}

	err := common.PQ.QueryRow(`
	SELECT content, author_id, times_used, created_at, updated_at
	FROM guild_kb_entries
	WHERE guild_id = $1 AND kb_name = $2`, guildID, name).Scan(
		&entry.Content, &entry.AuthorID, &entry.TimesUsed, &entry.CreatedAt, &entry.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	return entry, nil
}

// UseEntry fetches an entry and increments its use count in the same
// statement, for the path that actually serves it to a user.
func UseEntry(guildID int64, name string) (*Entry, error) {
	entry := &Entry{GuildID: guildID, Name: name}

	err := common.PQ.QueryRow(`
	UPDATE guild_kb_entries
	SET times_used = times_used + 1
	WHERE guild_id = $1 AND kb_name = $2
	RETURNING content, author_id, times_used, created_at, updated_at`, guildID, name).Scan(
		&entry.Content, &entry.AuthorID, &entry.TimesUsed, &entry.CreatedAt, &entry.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	return entry, nil
}

// ListEntries returns the entry names for a guild in alphabetical
// order, content omitted.
func ListEntries(guildID int64) ([]string, error) {
	rows, err := common.PQ.Query(`
	SELECT kb_name FROM guild_kb_entries
	WHERE guild_id = $1
	ORDER BY kb_name`, guildID)
	if err != nil {
		return nil, errors.WithStackIf(err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.WithStackIf(err)
		}
		names = append(names, name)
	}

	return names, errors.WithStackIf(rows.Err())
}
