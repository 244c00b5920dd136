package kb

import (
	"database/sql"

	"github.com/wardenbot/warden/common"
)

type Plugin struct{}

func (p *Plugin) PluginInfo() *common.PluginInfo {
	return &common.PluginInfo{
		Name:     "Knowledge Base",
		SysName:  "kb",
		Category: common.PluginCategoryContent,
	}
}

func (p *Plugin) InitPlugin() {
	common.RegisterMigrations(dbMigrations...)
}

func RegisterPlugin() {
	common.RegisterPlugin(&Plugin{})
}

// RetireUserID re-points entry authorship at the sentinel id when a
// user id is retired.
func (p *Plugin) RetireUserID(tx *sql.Tx, oldID, newID int64) error {
	_, err := tx.Exec("UPDATE guild_kb_entries SET author_id = $2 WHERE author_id = $1", oldID, newID)
	return common.ClassifyPGError(err)
}
