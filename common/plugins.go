package common

import (
	"database/sql"

	"github.com/sirupsen/logrus"
)

var (
	Plugins []Plugin
)

type PluginCategory struct {
	Name string
}

var (
	PluginCategoryCore       = &PluginCategory{Name: "Core"}
	PluginCategoryModeration = &PluginCategory{Name: "Moderation"}
	PluginCategoryRoles      = &PluginCategory{Name: "Roles"}
	PluginCategoryContent    = &PluginCategory{Name: "Content"}
)

type PluginInfo struct {
	Name     string // Human readable name of the plugin
	SysName  string // snake_case version of the name in lower case
	Category *PluginCategory
}

// Plugin represents a plugin, all plugins needs to implement this at a bare minimum
type Plugin interface {
	PluginInfo() *PluginInfo
}

// RegisterPlugin registers a plugin, should be called while the service is starting up
func RegisterPlugin(plugin Plugin) {
	Plugins = append(Plugins, plugin)

	if initter, ok := plugin.(PluginWithInit); ok {
		initter.InitPlugin()
	}

	logrus.Debug("Registered plugin: " + plugin.PluginInfo().Name)
}

// PluginWithInit is implemented by plugins that need to run setup (such as
// registering their schema migrations) at registration time.
type PluginWithInit interface {
	InitPlugin()
}

// GuildDataRemover is implemented by plugins that hold rows scoped to a
// guild which have to be removed inside the same transaction when the
// guild itself is deleted.
type GuildDataRemover interface {
	RemoveGuildData(tx *sql.Tx, guildID int64) error
}

// UserIDRetirer is implemented by plugins that hold rows keyed directly
// by user id, not through member_settings. When a user id is retired to
// the sentinel those rows must be re-pointed in the same transaction;
// member keyed rows follow the member_settings cascade on their own.
type UserIDRetirer interface {
	RetireUserID(tx *sql.Tx, oldID, newID int64) error
}
