package settings

import (
	"github.com/wardenbot/warden/common"
)

var logger = common.GetFixedPrefixLogger("settings")

type Plugin struct{}

func (p *Plugin) PluginInfo() *common.PluginInfo {
	return &common.PluginInfo{
		Name:     "Settings",
		SysName:  "settings",
		Category: common.PluginCategoryCore,
	}
}

func (p *Plugin) InitPlugin() {
	common.RegisterMigrations(dbMigrations...)
}

func RegisterPlugin() {
	common.RegisterPlugin(&Plugin{})
}
