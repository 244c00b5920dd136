package rolecommands

type RoleSettings struct {
	RoleID  int64
	GuildID int64

	SelfAssignable bool
	SelfRemovable  bool
	Sticky         bool
}

type ReactRoleEntry struct {
	GuildID        int64
	ChannelID      int64
	MessageID      int64
	ReactionString string

	RoleID                     int64
	ReactRemoveTriggersRemoval bool
}
