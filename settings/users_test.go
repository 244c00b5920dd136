package settings

import (
	"database/sql"
	"testing"

	"github.com/wardenbot/warden/common"
)

func TestUserSettingsRoundtrip(t *testing.T) {
	const userID = 500

	if err := SetUserTimezone(userID, sql.NullString{String: "Europe/Oslo", Valid: true}, true); err != nil {
		t.Fatal(err)
	}
	if err := SetUserVIP(userID, true); err != nil {
		t.Fatal(err)
	}

	u, err := GetUserSettings(userID)
	if err != nil {
		t.Fatal(err)
	}
	if u.Timezone.String != "Europe/Oslo" || !u.TimezoneIsPublic || !u.IsBotVIP {
		t.Errorf("settings = %+v", u)
	}

	if err := SetUserTimezone(userID, sql.NullString{String: "Not/AZone", Valid: true}, true); err == nil {
		t.Error("garbage timezone accepted")
	}
}

func TestAnonymizeUser(t *testing.T) {
	const guildID, userID = 501, 510

	if err := SetUserTimezone(userID, sql.NullString{String: "Europe/Oslo", Valid: true}, true); err != nil {
		t.Fatal(err)
	}
	if err := SetUserVIP(userID, true); err != nil {
		t.Fatal(err)
	}
	if err := SetMembersBlocked(guildID, true, userID); err != nil {
		t.Fatal(err)
	}

	if err := AnonymizeUser(userID); err != nil {
		t.Fatal(err)
	}

	u, err := GetUserSettings(userID)
	if err != nil {
		t.Fatal(err)
	}
	if !u.Anon {
		t.Error("anon marker not set")
	}
	if u.Timezone.Valid || u.TimezoneIsPublic || u.IsBotVIP {
		t.Errorf("identifying fields not cleared: %+v", u)
	}

	// structural rows survive untouched
	m, err := GetMemberSettings(guildID, userID)
	if err != nil {
		t.Fatal(err)
	}
	if !m.IsBlocked {
		t.Error("member row changed by anonymization")
	}
}

func TestRetireUserID(t *testing.T) {
	const guildID, userID = 502, 511

	if err := SetMembersBlocked(guildID, true, userID); err != nil {
		t.Fatal(err)
	}

	if err := RetireUserID(userID); err != nil {
		t.Fatal(err)
	}

	// the old id is gone everywhere
	var count int
	err := common.PQ.QueryRow("SELECT COUNT(*) FROM user_settings WHERE user_id = $1", userID).Scan(&count)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Error("retired id still present in user_settings")
	}

	// the member row followed through the update cascade
	m, err := GetMemberSettings(guildID, AnonUserID())
	if err != nil {
		t.Fatal(err)
	}
	if !m.IsBlocked {
		t.Error("member row did not renumber to the sentinel")
	}

	u, err := GetUserSettings(AnonUserID())
	if err != nil {
		t.Fatal(err)
	}
	if !u.Anon || u.IsNetworkAdmin || u.IsBotVIP {
		t.Errorf("sentinel row not scrubbed: %+v", u)
	}
}

func TestRetireUserIDCollision(t *testing.T) {
	const guildID = 503

	// two users in the same guild cannot both become the sentinel, the
	// second retirement must roll back classified, never merge
	if err := SetMembersBlocked(guildID, true, 520, 521); err != nil {
		t.Fatal(err)
	}

	if err := RetireUserID(520); err != nil {
		t.Fatal(err)
	}

	err := RetireUserID(521)
	if err == nil {
		t.Fatal("second retirement in the same guild merged silently")
	}

	// rolled back whole: the second user's rows are intact
	m, merr := GetMemberSettings(guildID, 521)
	if merr != nil {
		t.Fatal(merr)
	}
	if !m.IsBlocked {
		t.Error("failed retirement altered the member row")
	}
}

func TestRetireSentinelRefused(t *testing.T) {
	if err := RetireUserID(AnonUserID()); err == nil {
		t.Error("self retirement of the sentinel accepted")
	}
}
