package moderation

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Moderation actions recorded in the mod log. The action string is part
// of the stored row, renaming one is a data migration.
const (
	ActionWarned   = "warn"
	ActionMuted    = "mute"
	ActionUnmuted  = "unmute"
	ActionKicked   = "kick"
	ActionBanned   = "ban"
	ActionUnbanned = "unban"
	ActionNoted    = "note"
)

// ModLogEntry is one case in a guild's moderation log. The display
// fields are a snapshot of how the target presented at the time of the
// action; they are never backfilled or updated afterwards, which is what
// lets anonymization leave history untouched.
type ModLogEntry struct {
	GuildID    int64
	CaseNumber int64

	ModAction string
	ModID     int64
	TargetID  int64

	CreatedAt time.Time
	Reason    null.String

	UsernameAtAction null.String
	DiscrimAtAction  null.String
	NickAtAction     null.String
}

// MemberMute is the active mute state for one member, including the
// roles that were stripped when the mute was applied so an unmute can
// restore them.
type MemberMute struct {
	GuildID int64
	UserID  int64

	MuteRoleUsed null.Int64
	MutedAt      time.Time
	ExpiresAt    null.Time

	RemovedRoles []int64
}

type Warning struct {
	ID int64

	GuildID  int64
	ModID    int64
	TargetID int64

	Reason    string
	CreatedAt time.Time
}

type MemberNote struct {
	ID int64

	GuildID  int64
	ModID    int64
	TargetID int64

	Note      string
	CreatedAt time.Time
}
