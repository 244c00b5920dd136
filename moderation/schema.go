package moderation

import (
	"github.com/wardenbot/warden/common"
)

// mod_log, guild_warnings and mod_notes_on_members are accountability
// history: their member edges are RESTRICT so a member row cannot
// silently disappear while history points at it. The guild edge is
// CASCADE, removal of a whole guild is handled by RemoveGuildData
// inside the delete transaction. All edges follow id renumbering
// (ON UPDATE CASCADE) so retiring a user id keeps history consistent.
var dbSchemas = []string{`
CREATE TABLE IF NOT EXISTS mod_log (
	guild_id BIGINT NOT NULL REFERENCES guild_settings(guild_id)
		ON UPDATE CASCADE ON DELETE CASCADE,
	case_number BIGINT NOT NULL,

	mod_action TEXT NOT NULL,
	mod_id BIGINT NOT NULL,
	target_id BIGINT NOT NULL,

	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	reason TEXT,

	username_at_action TEXT,
	discrim_at_action TEXT,
	nick_at_action TEXT,

	PRIMARY KEY (guild_id, case_number),
	FOREIGN KEY (mod_id, guild_id) REFERENCES member_settings (user_id, guild_id)
		ON UPDATE CASCADE ON DELETE RESTRICT,
	FOREIGN KEY (target_id, guild_id) REFERENCES member_settings (user_id, guild_id)
		ON UPDATE CASCADE ON DELETE RESTRICT
);
`, `
CREATE INDEX IF NOT EXISTS mod_log_target_idx ON mod_log (guild_id, target_id);
`, `
CREATE TABLE IF NOT EXISTS guild_mutes (
	guild_id BIGINT NOT NULL,
	user_id BIGINT NOT NULL,

	mute_role_used BIGINT,
	muted_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	expires_at TIMESTAMP WITH TIME ZONE,

	PRIMARY KEY (user_id, guild_id),
	FOREIGN KEY (user_id, guild_id) REFERENCES member_settings (user_id, guild_id)
		ON UPDATE CASCADE ON DELETE CASCADE
);
`, `
CREATE INDEX IF NOT EXISTS guild_mutes_expires_idx ON guild_mutes (expires_at)
	WHERE expires_at IS NOT NULL;
`, `
CREATE TABLE IF NOT EXISTS guild_mute_removed_roles (
	guild_id BIGINT NOT NULL,
	user_id BIGINT NOT NULL,
	removed_role_id BIGINT NOT NULL,

	PRIMARY KEY (user_id, guild_id, removed_role_id),
	FOREIGN KEY (user_id, guild_id) REFERENCES guild_mutes (user_id, guild_id)
		ON UPDATE CASCADE ON DELETE CASCADE
);
`, `
CREATE TABLE IF NOT EXISTS guild_warnings (
	id BIGSERIAL PRIMARY KEY,

	guild_id BIGINT NOT NULL REFERENCES guild_settings(guild_id)
		ON UPDATE CASCADE ON DELETE CASCADE,
	mod_id BIGINT NOT NULL,
	target_id BIGINT NOT NULL,

	reason TEXT NOT NULL,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),

	FOREIGN KEY (mod_id, guild_id) REFERENCES member_settings (user_id, guild_id)
		ON UPDATE CASCADE ON DELETE RESTRICT,
	FOREIGN KEY (target_id, guild_id) REFERENCES member_settings (user_id, guild_id)
		ON UPDATE CASCADE ON DELETE RESTRICT
);
`, `
CREATE INDEX IF NOT EXISTS guild_warnings_target_idx ON guild_warnings (guild_id, target_id);
`, `
CREATE TABLE IF NOT EXISTS mod_notes_on_members (
	id BIGSERIAL PRIMARY KEY,

	guild_id BIGINT NOT NULL REFERENCES guild_settings(guild_id)
		ON UPDATE CASCADE ON DELETE CASCADE,
	mod_id BIGINT NOT NULL,
	target_id BIGINT NOT NULL,

	note TEXT NOT NULL,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),

	FOREIGN KEY (mod_id, guild_id) REFERENCES member_settings (user_id, guild_id)
		ON UPDATE CASCADE ON DELETE RESTRICT,
	FOREIGN KEY (target_id, guild_id) REFERENCES member_settings (user_id, guild_id)
		ON UPDATE CASCADE ON DELETE RESTRICT
);
`, `
CREATE INDEX IF NOT EXISTS mod_notes_target_idx ON mod_notes_on_members (guild_id, target_id);
`}

var dbMigrations = []common.Migration{
	common.SQLMigration(3, "moderation_base", dbSchemas...),
}
