package kb

import (
	"github.com/wardenbot/warden/common"
)

// KB entries are user supplied content, so the author edge cascades,
// unlike accountability history. Erasing an author id renumbers their
// entries through the update cascade.
var dbSchemas = []string{`
CREATE TABLE IF NOT EXISTS guild_kb_entries (
	guild_id BIGINT NOT NULL REFERENCES guild_settings(guild_id)
		ON UPDATE CASCADE ON DELETE CASCADE,
	kb_name TEXT NOT NULL,

	content TEXT NOT NULL,
	author_id BIGINT NOT NULL REFERENCES user_settings(user_id)
		ON UPDATE CASCADE ON DELETE CASCADE,

	times_used BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),

	PRIMARY KEY (guild_id, kb_name)
);
`}

var dbMigrations = []common.Migration{
	common.SQLMigration(6, "kb_base", dbSchemas...),
}
