package feedback

import (
	"database/sql"

	"github.com/wardenbot/warden/common"
)

type Plugin struct{}

func (p *Plugin) PluginInfo() *common.PluginInfo {
	return &common.PluginInfo{
		Name:     "Feedback",
		SysName:  "feedback",
		Category: common.PluginCategoryContent,
	}
}

func (p *Plugin) InitPlugin() {
	common.RegisterMigrations(dbMigrations...)
}

func RegisterPlugin() {
	common.RegisterPlugin(&Plugin{})
}

// RetireUserID re-points submissions at the sentinel id when a user id
// is retired; entries are keyed by user id directly, not through
// member_settings.
func (p *Plugin) RetireUserID(tx *sql.Tx, oldID, newID int64) error {
	_, err := tx.Exec("UPDATE feedback_entries SET user_id = $2 WHERE user_id = $1", oldID, newID)
	return common.ClassifyPGError(err)
}
