package feedback

import (
	"github.com/wardenbot/warden/common"
)

// Feedback is user supplied content, not accountability history, so the
// user edge cascades: erasing a user id renumbers their entries, and
// dropping a feedback type drops its entries.
var dbSchemas = []string{`
CREATE TABLE IF NOT EXISTS feedback_types (
	feedback_type TEXT PRIMARY KEY,

	destination_id BIGINT,
	autoresponse TEXT
);
`, `
CREATE TABLE IF NOT EXISTS feedback_entries (
	uuid TEXT PRIMARY KEY,

	feedback_type TEXT NOT NULL REFERENCES feedback_types(feedback_type)
		ON UPDATE CASCADE ON DELETE CASCADE,
	user_id BIGINT NOT NULL REFERENCES user_settings(user_id)
		ON UPDATE CASCADE ON DELETE CASCADE,

	feedback TEXT NOT NULL,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
);
`, `
CREATE INDEX IF NOT EXISTS feedback_entries_type_idx ON feedback_entries (feedback_type);
`}

var dbMigrations = []common.Migration{
	common.SQLMigration(5, "feedback_base", dbSchemas...),
}
