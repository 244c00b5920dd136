package rolecommands

import (
	"github.com/wardenbot/warden/common"
)

// Everything here is guild scoped configuration, so every edge cascades:
// dropping a role drops its graph edges, react bindings and sticky
// tracking, dropping a guild drops the lot. The exclusivity pair check
// keeps the undirected pair in its single canonical representation,
// smaller id first, so the primary key rejects duplicates in either
// order.
var dbSchemas = []string{`
CREATE TABLE IF NOT EXISTS role_settings (
	role_id BIGINT PRIMARY KEY,
	guild_id BIGINT NOT NULL REFERENCES guild_settings(guild_id)
		ON UPDATE CASCADE ON DELETE CASCADE,

	self_assignable BOOLEAN NOT NULL DEFAULT false,
	self_removable BOOLEAN NOT NULL DEFAULT false,
	sticky BOOLEAN NOT NULL DEFAULT false
);
`, `
CREATE INDEX IF NOT EXISTS role_settings_guild_idx ON role_settings (guild_id);
`, `
CREATE TABLE IF NOT EXISTS role_mutual_exclusivity (
	role_id_1 BIGINT NOT NULL REFERENCES role_settings(role_id)
		ON UPDATE CASCADE ON DELETE CASCADE,
	role_id_2 BIGINT NOT NULL REFERENCES role_settings(role_id)
		ON UPDATE CASCADE ON DELETE CASCADE,

	PRIMARY KEY (role_id_1, role_id_2),
	CONSTRAINT exclusivity_pair_canonical CHECK (role_id_1 < role_id_2)
);
`, `
CREATE TABLE IF NOT EXISTS role_requires_any (
	role_id BIGINT NOT NULL REFERENCES role_settings(role_id)
		ON UPDATE CASCADE ON DELETE CASCADE,
	required_role_id BIGINT NOT NULL REFERENCES role_settings(role_id)
		ON UPDATE CASCADE ON DELETE CASCADE,

	PRIMARY KEY (role_id, required_role_id)
);
`, `
CREATE TABLE IF NOT EXISTS role_requires_all (
	role_id BIGINT NOT NULL REFERENCES role_settings(role_id)
		ON UPDATE CASCADE ON DELETE CASCADE,
	required_role_id BIGINT NOT NULL REFERENCES role_settings(role_id)
		ON UPDATE CASCADE ON DELETE CASCADE,

	PRIMARY KEY (role_id, required_role_id)
);
`, `
CREATE TABLE IF NOT EXISTS react_role_entries (
	guild_id BIGINT NOT NULL REFERENCES guild_settings(guild_id)
		ON UPDATE CASCADE ON DELETE CASCADE,
	channel_id BIGINT NOT NULL,
	message_id BIGINT NOT NULL,
	reaction_string TEXT NOT NULL,

	role_id BIGINT NOT NULL REFERENCES role_settings(role_id)
		ON UPDATE CASCADE ON DELETE CASCADE,
	react_remove_triggers_removal BOOLEAN NOT NULL DEFAULT false,

	PRIMARY KEY (message_id, reaction_string)
);
`, `
CREATE INDEX IF NOT EXISTS react_role_entries_guild_idx ON react_role_entries (guild_id);
`, `
CREATE TABLE IF NOT EXISTS roles_stuck_to_members (
	guild_id BIGINT NOT NULL,
	user_id BIGINT NOT NULL,
	role_id BIGINT NOT NULL REFERENCES role_settings(role_id)
		ON UPDATE CASCADE ON DELETE CASCADE,

	PRIMARY KEY (guild_id, user_id, role_id),
	FOREIGN KEY (user_id, guild_id) REFERENCES member_settings (user_id, guild_id)
		ON UPDATE CASCADE ON DELETE CASCADE
);
`}

var dbMigrations = []common.Migration{
	common.SQLMigration(4, "rolecommands_base", dbSchemas...),
}
