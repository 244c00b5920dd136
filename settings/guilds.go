package settings

import (
	"database/sql"
	"time"

	"emperror.dev/errors"
	"github.com/wardenbot/warden/common"
)

// TouchGuild makes sure a guild_settings row exists so dependent rows can
// be written. Safe inside or outside a wider transaction.
func TouchGuild(tx *sql.Tx, guildID int64) error {
	const q = `
	INSERT INTO guild_settings (guild_id) VALUES ($1)
	ON CONFLICT (guild_id) DO NOTHING`

	var err error
	if tx != nil {
		_, err = tx.Exec(q, guildID)
	} else {
		_, err = common.PQ.Exec(q, guildID)
	}
	return common.ClassifyPGError(err)
}

// GetGuildSettings returns the stored settings for the guild, or the
// defaults if the guild has never been written.
func GetGuildSettings(guildID int64) (*GuildSettings, error) {
	g := &GuildSettings{GuildID: guildID, Timezone: DefaultTimezone}

	err := common.PQ.QueryRow(`
	SELECT mute_role, mod_role, admin_role, mod_log_channel, timezone, is_blocked, feature_flags
	FROM guild_settings
	WHERE guild_id = $1`, guildID).Scan(
		&g.MuteRole, &g.ModRole, &g.AdminRole, &g.ModLogChannel, &g.Timezone, &g.IsBlocked, &g.FeatureFlags)

	if err == sql.ErrNoRows {
		return g, nil
	}
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	return g, nil
}

func setGuildColumn(column string, guildID int64, val interface{}) error {
	// column is always a compile time constant from the setters below
	q := `
	INSERT INTO guild_settings (guild_id, ` + column + `) VALUES ($1, $2)
	ON CONFLICT (guild_id) DO UPDATE SET ` + column + `=excluded.` + column

	_, err := common.PQ.Exec(q, guildID, val)
	return common.ClassifyPGError(err)
}

func SetMuteRole(guildID int64, roleID sql.NullInt64) error {
	return setGuildColumn("mute_role", guildID, roleID)
}

func SetModRole(guildID int64, roleID sql.NullInt64) error {
	return setGuildColumn("mod_role", guildID, roleID)
}

func SetAdminRole(guildID int64, roleID sql.NullInt64) error {
	return setGuildColumn("admin_role", guildID, roleID)
}

func SetModLogChannel(guildID int64, channelID sql.NullInt64) error {
	return setGuildColumn("mod_log_channel", guildID, channelID)
}

// SetGuildTimezone stores an IANA timezone name for the guild after
// resolving it, garbage names are rejected before they hit the store.
func SetGuildTimezone(guildID int64, timezone string) error {
	if _, err := time.LoadLocation(timezone); err != nil {
		return errors.WrapIf(err, "unknown timezone")
	}

	return setGuildColumn("timezone", guildID, timezone)
}

func SetGuildBlocked(guildID int64, blocked bool) error {
	return setGuildColumn("is_blocked", guildID, blocked)
}

func GuildIsBlocked(guildID int64) (bool, error) {
	var blocked bool
	err := common.PQ.QueryRow("SELECT is_blocked FROM guild_settings WHERE guild_id = $1", guildID).Scan(&blocked)
	if err == sql.ErrNoRows {
		return false, nil
	}

	return blocked, errors.WithStackIf(err)
}

// SetGuildFeatureFlag flips a single bit in the guild's feature flag
// bitfield, reserved for forward compatible toggles.
func SetGuildFeatureFlag(guildID int64, flag int64, enabled bool) error {
	return common.SqlTX(func(tx *sql.Tx) error {
		if err := TouchGuild(tx, guildID); err != nil {
			return err
		}

		var q string
		if enabled {
			q = "UPDATE guild_settings SET feature_flags = feature_flags | $2 WHERE guild_id = $1"
		} else {
			q = "UPDATE guild_settings SET feature_flags = feature_flags & ~$2 WHERE guild_id = $1"
		}

		_, err := tx.Exec(q, guildID, flag)
		return common.ClassifyPGError(err)
	})
}

func GuildHasFeatureFlag(guildID int64, flag int64) (bool, error) {
	var set bool
	err := common.PQ.QueryRow("SELECT feature_flags & $2 != 0 FROM guild_settings WHERE guild_id = $1", guildID, flag).Scan(&set)
	if err == sql.ErrNoRows {
		return false, nil
	}

	return set, errors.WithStackIf(err)
}

// DeleteGuild removes a guild and everything scoped to it. Plugins that
// keep accountability history for the guild delete it first (their guild
// edge is declared CASCADE), then the guild row cascade removes members,
// mutes, prefixes and role configuration. One transaction, all or
// nothing; guild ids are never reused after this.
func DeleteGuild(guildID int64) error {
	return common.SqlTX(func(tx *sql.Tx) error {
		for _, p := range common.Plugins {
			if remover, ok := p.(common.GuildDataRemover); ok {
				if err := remover.RemoveGuildData(tx, guildID); err != nil {
					return err
				}
			}
		}

		_, err := tx.Exec("DELETE FROM guild_settings WHERE guild_id = $1", guildID)
		return common.ClassifyPGDeleteError(err)
	})
}
