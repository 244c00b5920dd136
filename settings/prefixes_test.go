package settings

import (
	"strings"
	"testing"

	"emperror.dev/errors"
	"github.com/wardenbot/warden/common"
)

func TestValidatePrefix(t *testing.T) {
	cases := []struct {
		prefix string
		rule   string // empty means accepted
	}{
		{"!", ""},
		{"?>", ""},
		{"hey.", ""},
		{">", ""},
		{"a/b", ""}, // slash only illegal in front
		{"<onlyopen", ""},
		{"onlyclose>", ""},
		{"éééééééé", ""}, // 8 characters even though 16 bytes

		{"/x", "leading_slash"},
		{"a:b", "colon"},
		{"toolongprefix16c", "too_long"},
		{strings.Repeat("é", 16), "too_long"},
		{"<\n>", "angle_brackets"}, // balanced across a newline
		{"pipe|char", "pipe"},
		{`back\slash`, "backslash"},
		{"tick`tick", "backtick"},
		{"til~de", "tilde"},
		{"it's", "single_quote"},
		{`say"`, "double_quote"},
		{"<both>", "angle_brackets"},
		{"a<b>c", "angle_brackets"},
		{"> quoted", "angle_space"},
	}

	for _, c := range cases {
		err := ValidatePrefix(c.prefix)
		if c.rule == "" {
			if err != nil {
				t.Errorf("ValidatePrefix(%q) = %v, want accepted", c.prefix, err)
			}
			continue
		}

		invalid, ok := err.(*InvalidPrefixError)
		if !ok {
			t.Errorf("ValidatePrefix(%q) = %v, want InvalidPrefixError", c.prefix, err)
			continue
		}
		if invalid.Rule != c.rule {
			t.Errorf("ValidatePrefix(%q) violated %q, want %q", c.prefix, invalid.Rule, c.rule)
		}
	}
}

func TestGuildPrefixesRoundtrip(t *testing.T) {
	const guildID = 420

	if err := AddGuildPrefixes(guildID, "!", "?"); err != nil {
		t.Fatal(err)
	}

	prefixes, err := GetGuildPrefixes(guildID)
	if err != nil {
		t.Fatal(err)
	}
	if len(prefixes) != 2 {
		t.Fatalf("prefixes = %v, want 2", prefixes)
	}

	// cached read agrees with the store
	again, err := GetGuildPrefixes(guildID)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 2 {
		t.Errorf("cached prefixes = %v", again)
	}

	if err := RemoveGuildPrefixes(guildID, "!"); err != nil {
		t.Fatal(err)
	}

	prefixes, err = GetGuildPrefixes(guildID)
	if err != nil {
		t.Fatal(err)
	}
	if len(prefixes) != 1 || prefixes[0] != "?" {
		t.Errorf("prefixes after removal = %v, want [?]", prefixes)
	}
}

func TestAddGuildPrefixesRejectsIllegal(t *testing.T) {
	const guildID = 421

	err := AddGuildPrefixes(guildID, "ok", "a:b")
	invalid, ok := err.(*InvalidPrefixError)
	if !ok {
		t.Fatalf("err = %v, want InvalidPrefixError", err)
	}
	if invalid.Rule != "colon" {
		t.Errorf("rule = %q, want colon", invalid.Rule)
	}

	// nothing from the batch landed
	prefixes, err := GetGuildPrefixes(guildID)
	if err != nil {
		t.Fatal(err)
	}
	if len(prefixes) != 0 {
		t.Errorf("prefixes = %v, want none after rejected batch", prefixes)
	}
}

func TestGuildPrefixesLimit(t *testing.T) {
	const guildID = 422

	if err := AddGuildPrefixes(guildID, "a", "b", "c", "d", "e"); err != nil {
		t.Fatal(err)
	}
	if err := AddGuildPrefixes(guildID, "f"); err == nil {
		t.Error("sixth prefix accepted")
	}
}

func TestPrefixCheckConstraintBackstop(t *testing.T) {
	const guildID = 423

	if err := TouchGuild(nil, guildID); err != nil {
		t.Fatal(err)
	}

	// bypass the validator, the store side check has to refuse on its own
	_, err := common.PQ.Exec(
		"INSERT INTO guild_prefixes (guild_id, prefix) VALUES ($1, $2)", guildID, "/illegal")

	var violation *common.ConstraintViolationError
	if !errors.As(common.ClassifyPGError(err), &violation) {
		t.Fatalf("err = %v, want classified violation", err)
	}
	if violation.Kind != common.ConstraintCheck || violation.Constraint != "prefix_is_legal" {
		t.Errorf("violation = %+v, want check prefix_is_legal", violation)
	}
}

func TestPrefixValidatorStoreAgreement(t *testing.T) {
	// the cases where bytes vs characters and regexp newline handling
	// could make the two layers disagree; the validator's verdict and a
	// direct insert past it have to match
	const guildID = 425

	if err := TouchGuild(nil, guildID); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		prefix string
		legal  bool
	}{
		{"éééééééé", true},
		{strings.Repeat("é", 16), false},
		{"<\n>", false},
	}

	for _, c := range cases {
		err := ValidatePrefix(c.prefix)
		if (err == nil) != c.legal {
			t.Errorf("ValidatePrefix(%q) = %v, want legal=%v", c.prefix, err, c.legal)
		}

		_, err = common.PQ.Exec(
			"INSERT INTO guild_prefixes (guild_id, prefix) VALUES ($1, $2)", guildID, c.prefix)
		if (err == nil) != c.legal {
			t.Errorf("store insert of %q err = %v, want legal=%v", c.prefix, err, c.legal)
		}
	}
}

func TestPrefixLegalityMigrationDropsIllegalRows(t *testing.T) {
	// the shadow rebuild migration already ran in TestMain; verify the
	// constraint text survived the swap by probing a legal and an
	// illegal write
	const guildID = 424

	if err := TouchGuild(nil, guildID); err != nil {
		t.Fatal(err)
	}

	if _, err := common.PQ.Exec(
		"INSERT INTO guild_prefixes (guild_id, prefix) VALUES ($1, $2)", guildID, "!"); err != nil {
		t.Fatalf("legal prefix refused by rebuilt table: %v", err)
	}

	if _, err := common.PQ.Exec(
		"INSERT INTO guild_prefixes (guild_id, prefix) VALUES ($1, $2)", guildID, "a|b"); err == nil {
		t.Error("illegal prefix accepted by rebuilt table")
	}
}
