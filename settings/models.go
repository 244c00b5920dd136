package settings

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// DefaultTimezone is the timezone a guild starts out with.
const DefaultTimezone = "UTC"

type GuildSettings struct {
	GuildID int64

	MuteRole      null.Int64
	ModRole       null.Int64
	AdminRole     null.Int64
	ModLogChannel null.Int64

	Timezone  string
	IsBlocked bool

	FeatureFlags int64
}

// Location resolves the guild's IANA timezone, falling back to UTC if the
// stored name no longer resolves (tzdata changes over the years).
func (g *GuildSettings) Location() *time.Location {
	loc, err := time.LoadLocation(g.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type UserSettings struct {
	UserID int64

	IsBotVIP       bool
	IsNetworkAdmin bool

	Timezone         null.String
	TimezoneIsPublic bool

	IsBlocked bool
	Anon      bool
}

type MemberSettings struct {
	UserID  int64
	GuildID int64

	IsBlocked bool
	IsMod     bool
	IsAdmin   bool
}
