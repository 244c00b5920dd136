package settings

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"emperror.dev/errors"
	"github.com/mediocregopher/radix/v3"
	"github.com/wardenbot/warden/common"
)

// MaxGuildPrefixes caps how many extra prefixes a guild can configure.
const MaxGuildPrefixes = 5

// InvalidPrefixError reports the specific legality rule a candidate
// prefix violated, the surrounding service shows Message to the user
// instead of a generic failure.
type InvalidPrefixError struct {
	Prefix  string
	Rule    string
	Message string
}

func (e *InvalidPrefixError) Error() string {
	return fmt.Sprintf("invalid prefix %q: %s", e.Prefix, e.Message)
}

// (?s) so a newline between the brackets still counts as balanced, the
// way the POSIX dot in the check constraint treats it.
var balancedAngleRe = regexp.MustCompile(`(?s)<.*>`)

var forbiddenSequences = []struct {
	seq     string
	rule    string
	message string
}{
	{":", "colon", "prefixes may not contain `:`"},
	{`\`, "backslash", `prefixes may not contain a backslash`},
	{"`", "backtick", "prefixes may not contain a backtick"},
	{"~", "tilde", "prefixes may not contain `~`"},
	{"|", "pipe", "prefixes may not contain `|`"},
	{"'", "single_quote", "prefixes may not contain quotes"},
	{`"`, "double_quote", "prefixes may not contain quotes"},
	{"> ", "angle_space", "prefixes may not contain `> `, it conflicts with quoted messages"},
}

// ValidatePrefix is the single implementation of the prefix legality
// rule. The prefix_is_legal check constraint on guild_prefixes encodes
// the exact same predicate as a safety net; the two must never diverge.
func ValidatePrefix(prefix string) error {
	// characters, not bytes, postgres length() counts the same way
	if utf8.RuneCountInString(prefix) >= 16 {
		return &InvalidPrefixError{Prefix: prefix, Rule: "too_long", Message: "prefixes must be shorter than 16 characters"}
	}

	for _, f := range forbiddenSequences {
		if strings.Contains(prefix, f.seq) {
			return &InvalidPrefixError{Prefix: prefix, Rule: f.rule, Message: f.message}
		}
	}

	if balancedAngleRe.MatchString(prefix) {
		return &InvalidPrefixError{
			Prefix:  prefix,
			Rule:    "angle_brackets",
			Message: "prefixes may not contain both `<` and `>`, it conflicts with how mentions are represented",
		}
	}

	if strings.HasPrefix(prefix, "/") {
		return &InvalidPrefixError{
			Prefix:  prefix,
			Rule:    "leading_slash",
			Message: "prefixes may not start with `/`, it conflicts with platform integrated commands",
		}
	}

	return nil
}

func prefixCacheKey(guildID int64) string {
	return "guild_prefixes:" + strconv.FormatInt(guildID, 10)
}

// GetGuildPrefixes returns the guild's configured prefixes, longest
// lexical first. Reads go through the redis cache, the store is only hit
// on a miss.
func GetGuildPrefixes(guildID int64) ([]string, error) {
	var cached string
	err := common.RedisPool.Do(radix.Cmd(&cached, "GET", prefixCacheKey(guildID)))
	if err == nil && cached != "" {
		var prefixes []string
		if err := json.Unmarshal([]byte(cached), &prefixes); err == nil {
			return prefixes, nil
		}
	}

	prefixes, err := getGuildPrefixesDB(guildID)
	if err != nil {
		return nil, err
	}

	if marshaled, err := json.Marshal(prefixes); err == nil {
		if err := common.RedisPool.Do(radix.Cmd(nil, "SET", prefixCacheKey(guildID), string(marshaled), "EX", "300")); err != nil {
			logger.WithError(err).Error("failed caching guild prefixes")
		}
	}

	return prefixes, nil
}

func getGuildPrefixesDB(guildID int64) ([]string, error) {
	rows, err := common.PQ.Query(`
	SELECT prefix FROM guild_prefixes
	WHERE guild_id = $1
	ORDER BY prefix DESC`, guildID)
	if err != nil {
		return nil, errors.WithStackIf(err)
	}
	defer rows.Close()

	prefixes := make([]string, 0, MaxGuildPrefixes)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, errors.WithStackIf(err)
		}
		prefixes = append(prefixes, p)
	}

	return prefixes, rows.Err()
}

// AddGuildPrefixes validates and stores prefixes for a guild. The
// validator runs here, the check constraint backs it up at the store
// boundary; either way an illegal prefix never lands.
func AddGuildPrefixes(guildID int64, prefixes ...string) error {
	for _, p := range prefixes {
		if err := ValidatePrefix(p); err != nil {
			return err
		}
	}

	err := common.SqlTX(func(tx *sql.Tx) error {
		if err := TouchGuild(tx, guildID); err != nil {
			return err
		}

		var current int
		if err := tx.QueryRow("SELECT COUNT(*) FROM guild_prefixes WHERE guild_id = $1", guildID).Scan(&current); err != nil {
			return errors.WithStackIf(err)
		}

		if current+len(prefixes) > MaxGuildPrefixes {
			return errors.Errorf("guilds may configure at most %d prefixes", MaxGuildPrefixes)
		}

		for _, p := range prefixes {
			_, err := tx.Exec(`
			INSERT INTO guild_prefixes (guild_id, prefix)
			VALUES ($1, $2)
			ON CONFLICT (guild_id, prefix) DO NOTHING`, guildID, p)
			if err != nil {
				return common.ClassifyPGError(err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	invalidatePrefixCache(guildID)
	return nil
}

func RemoveGuildPrefixes(guildID int64, prefixes ...string) error {
	err := common.SqlTX(func(tx *sql.Tx) error {
		for _, p := range prefixes {
			_, err := tx.Exec("DELETE FROM guild_prefixes WHERE guild_id = $1 AND prefix = $2", guildID, p)
			if err != nil {
				return common.ClassifyPGDeleteError(err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	invalidatePrefixCache(guildID)
	return nil
}

func invalidatePrefixCache(guildID int64) {
	if err := common.RedisPool.Do(radix.Cmd(nil, "DEL", prefixCacheKey(guildID))); err != nil {
		logger.WithError(err).Error("failed invalidating guild prefix cache")
	}
}
