package rolecommands

import (
	"github.com/wardenbot/warden/common"
)

type Plugin struct{}

func (p *Plugin) PluginInfo() *common.PluginInfo {
	return &common.PluginInfo{
		Name:     "Role Commands",
		SysName:  "rolecommands",
		Category: common.PluginCategoryRoles,
	}
}

func (p *Plugin) InitPlugin() {
	common.RegisterMigrations(dbMigrations...)
}

func RegisterPlugin() {
	common.RegisterPlugin(&Plugin{})
}
