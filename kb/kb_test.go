package kb

import (
	"fmt"
	"os"
	"testing"

	"emperror.dev/errors"
	"github.com/wardenbot/warden/common"
	"github.com/wardenbot/warden/common/testutils"
	"github.com/wardenbot/warden/settings"
)

var dropTables = []string{
	"guild_kb_entries",
	"guild_prefixes",
	"member_settings",
	"user_settings",
	"guild_settings",
}

func TestMain(m *testing.M) {
	initQueries := append([]string{}, settings.DBSchemas()...)
	initQueries = append(initQueries, dbSchemas...)

	conn, err := testutils.InitPQ(dropTables, initQueries)
	if err != nil {
		fmt.Println("Failed connecting to postgres database, not running tests: ", err)
		return
	}

	common.PQ = conn

	os.Exit(m.Run())
}

func TestEntryLifecycle(t *testing.T) {
	const guildID, authorID = 300, 1

	if err := CreateEntry(guildID, "rules", "be nice", authorID); err != nil {
		t.Fatal(err)
	}

	err := CreateEntry(guildID, "rules", "other content", 2)
	var violation *common.ConstraintViolationError
	if !errors.As(err, &violation) || violation.Kind != common.ConstraintUnique {
		t.Errorf("duplicate create err = %v, want classified unique violation", err)
	}

	if err := UpdateEntry(guildID, "rules", "be very nice"); err != nil {
		t.Fatal(err)
	}

	entry, err := GetEntry(guildID, "rules")
	if err != nil {
		t.Fatal(err)
	}
	if entry.Content != "be very nice" || entry.AuthorID != authorID {
		t.Errorf("entry = %+v", entry)
	}
	if entry.TimesUsed != 0 {
		t.Error("plain get bumped the use count")
	}

	if err := DeleteEntry(guildID, "rules"); err != nil {
		t.Fatal(err)
	}
	if err := DeleteEntry(guildID, "rules"); err != common.ErrNotFound {
		t.Errorf("double delete err = %v, want ErrNotFound", err)
	}
}

func TestUseEntryIncrements(t *testing.T) {
	const guildID = 301

	if err := CreateEntry(guildID, "faq", "read the pins", 1); err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 3; i++ {
		entry, err := UseEntry(guildID, "faq")
		if err != nil {
			t.Fatal(err)
		}
		if entry.TimesUsed != int64(i) {
			t.Errorf("times_used = %d after use %d", entry.TimesUsed, i)
		}
	}

	if _, err := UseEntry(guildID, "missing"); err != common.ErrNotFound {
		t.Errorf("use of missing entry err = %v, want ErrNotFound", err)
	}
}

func TestListEntries(t *testing.T) {
	const guildID = 302

	for _, name := range []string{"zebra", "alpha", "middle"} {
		if err := CreateEntry(guildID, name, "content", 1); err != nil {
			t.Fatal(err)
		}
	}

	names, err := ListEntries(guildID)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 3 || names[0] != "alpha" || names[2] != "zebra" {
		t.Errorf("names = %v, want alphabetical", names)
	}
}

func TestGuildDeleteCascadesEntries(t *testing.T) {
	const guildID = 303

	if err := CreateEntry(guildID, "doomed", "content", 1); err != nil {
		t.Fatal(err)
	}

	if err := settings.DeleteGuild(guildID); err != nil {
		t.Fatal(err)
	}

	if _, err := GetEntry(guildID, "doomed"); err != common.ErrNotFound {
		t.Errorf("entry lookup after guild delete err = %v, want ErrNotFound", err)
	}
}
