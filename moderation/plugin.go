package moderation

import (
	"database/sql"

	"github.com/wardenbot/warden/common"
)

var logger = common.GetPluginLogger(&Plugin{})

type Plugin struct {
	stopWorkers chan struct{}
}

func (p *Plugin) PluginInfo() *common.PluginInfo {
	return &common.PluginInfo{
		Name:     "Moderation",
		SysName:  "moderation",
		Category: common.PluginCategoryModeration,
	}
}

func (p *Plugin) InitPlugin() {
	common.RegisterMigrations(dbMigrations...)
}

func RegisterPlugin() {
	common.RegisterPlugin(&Plugin{
		stopWorkers: make(chan struct{}),
	})
}

// RemoveGuildData deletes the accountability history rows for a guild.
// They hold RESTRICT edges against member rows, so they have to go in
// the same transaction, before the guild row cascade runs.
func (p *Plugin) RemoveGuildData(tx *sql.Tx, guildID int64) error {
	for _, table := range []string{"mod_log", "guild_warnings", "mod_notes_on_members"} {
		_, err := tx.Exec("DELETE FROM "+table+" WHERE guild_id = $1", guildID)
		if err != nil {
			return common.ClassifyPGDeleteError(err)
		}
	}

	return nil
}
