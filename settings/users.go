package settings

import (
	"database/sql"
	"time"

	"emperror.dev/errors"
	"github.com/wardenbot/warden/common"
)

// TouchUser makes sure a user_settings row exists.
func TouchUser(tx *sql.Tx, userID int64) error {
	const q = `
	INSERT INTO user_settings (user_id) VALUES ($1)
	ON CONFLICT (user_id) DO NOTHING`

	var err error
	if tx != nil {
		_, err = tx.Exec(q, userID)
	} else {
		_, err = common.PQ.Exec(q, userID)
	}
	return common.ClassifyPGError(err)
}

func GetUserSettings(userID int64) (*UserSettings, error) {
	u := &UserSettings{UserID: userID}

	err := common.PQ.QueryRow(`
	SELECT is_bot_vip, is_network_admin, timezone, timezone_is_public, is_blocked, anon
	FROM user_settings
	WHERE user_id = $1`, userID).Scan(
		&u.IsBotVIP, &u.IsNetworkAdmin, &u.Timezone, &u.TimezoneIsPublic, &u.IsBlocked, &u.Anon)

	if err == sql.ErrNoRows {
		return u, nil
	}
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	return u, nil
}

// SetUsersBlocked blocks or unblocks users bot wide.
func SetUsersBlocked(blocked bool, userIDs ...int64) error {
	return common.SqlTX(func(tx *sql.Tx) error {
		for _, uid := range userIDs {
			_, err := tx.Exec(`
			INSERT INTO user_settings (user_id, is_blocked)
			VALUES ($1, $2)
			ON CONFLICT (user_id) DO UPDATE SET
				is_blocked=excluded.is_blocked`, uid, blocked)
			if err != nil {
				return common.ClassifyPGError(err)
			}
		}
		return nil
	})
}

func UserIsBlocked(userID int64) (bool, error) {
	var blocked bool
	err := common.PQ.QueryRow("SELECT is_blocked FROM user_settings WHERE user_id = $1", userID).Scan(&blocked)
	if err == sql.ErrNoRows {
		return false, nil
	}

	return blocked, errors.WithStackIf(err)
}

// SetUserTimezone stores a user's timezone and whether it may be shown to
// others. Passing an invalid zone name is rejected, passing empty clears
// the field.
func SetUserTimezone(userID int64, timezone sql.NullString, public bool) error {
	if timezone.Valid {
		if err := validateTimezone(timezone.String); err != nil {
			return err
		}
	}

	_, err := common.PQ.Exec(`
	INSERT INTO user_settings (user_id, timezone, timezone_is_public)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_id) DO UPDATE SET
		timezone=excluded.timezone,
		timezone_is_public=excluded.timezone_is_public`, userID, timezone, public)
	return common.ClassifyPGError(err)
}

func SetUserVIP(userID int64, vip bool) error {
	_, err := common.PQ.Exec(`
	INSERT INTO user_settings (user_id, is_bot_vip)
	VALUES ($1, $2)
	ON CONFLICT (user_id) DO UPDATE SET is_bot_vip=excluded.is_bot_vip`, userID, vip)
	return common.ClassifyPGError(err)
}

func SetUserNetworkAdmin(userID int64, admin bool) error {
	_, err := common.PQ.Exec(`
	INSERT INTO user_settings (user_id, is_network_admin)
	VALUES ($1, $2)
	ON CONFLICT (user_id) DO UPDATE SET is_network_admin=excluded.is_network_admin`, userID, admin)
	return common.ClassifyPGError(err)
}

// AnonymizeUser handles a data erasure request for a user. It sets the
// anon marker and resets every optionally identifying field to its
// default, in one transaction. The numeric id and every row referencing
// it are left untouched: moderation history keeps its full structure and
// counts, it just no longer resolves to an identity.
func AnonymizeUser(userID int64) error {
	return common.SqlTX(func(tx *sql.Tx) error {
		if err := TouchUser(tx, userID); err != nil {
			return err
		}

		_, err := tx.Exec(`
		UPDATE user_settings
		SET anon = true,
			timezone = NULL,
			timezone_is_public = false,
			is_bot_vip = false
		WHERE user_id = $1`, userID)
		return common.ClassifyPGError(err)
	})
}

// RetireUserID is the stronger form of erasure used when the platform
// has revoked the original numeric id itself: every row keyed by the id
// is renumbered to the reserved sentinel id in one transaction, so
// historical references resolve to the sentinel instead of dangling.
// The member rows are renumbered directly and their ON UPDATE CASCADE
// edges carry the change into modlog, mutes and the other member keyed
// tables; plugins holding direct user edges re-point them through
// UserIDRetirer; the old user row is then dropped.
//
// If the sentinel already owns conflicting rows (a second retirement in
// the same guild), the resulting uniqueness violation rolls the whole
// transaction back and is returned classified, never silently merged.
func RetireUserID(userID int64) error {
	sentinel := AnonUserID()
	if userID == sentinel {
		return errors.New("refusing to retire the sentinel user id")
	}

	return common.SqlTX(func(tx *sql.Tx) error {
		if err := TouchUser(tx, userID); err != nil {
			return err
		}
		if err := TouchUser(tx, sentinel); err != nil {
			return err
		}

		_, err := tx.Exec("UPDATE member_settings SET user_id = $2 WHERE user_id = $1", userID, sentinel)
		if err != nil {
			return common.ClassifyPGError(err)
		}

		for _, p := range common.Plugins {
			if retirer, ok := p.(common.UserIDRetirer); ok {
				if err := retirer.RetireUserID(tx, userID, sentinel); err != nil {
					return err
				}
			}
		}

		// no member rows or direct edges point at the old id anymore
		_, err = tx.Exec("DELETE FROM user_settings WHERE user_id = $1", userID)
		if err != nil {
			return common.ClassifyPGDeleteError(err)
		}

		_, err = tx.Exec(`
		UPDATE user_settings
		SET anon = true,
			timezone = NULL,
			timezone_is_public = false,
			is_bot_vip = false,
			is_network_admin = false
		WHERE user_id = $1`, sentinel)
		return common.ClassifyPGError(err)
	})
}

// AnonUserID returns the configured sentinel id for anonymized/unknown
// subjects. It is negative and can therefore never collide with a real
// platform id.
func AnonUserID() int64 {
	return int64(common.ConfAnonUserID.GetInt())
}

func validateTimezone(name string) error {
	if _, err := time.LoadLocation(name); err != nil {
		return errors.WrapIf(err, "unknown timezone")
	}
	return nil
}
