package feedback

import (
	"fmt"
	"os"
	"testing"

	"emperror.dev/errors"
	"github.com/volatiletech/null/v8"
	"github.com/wardenbot/warden/common"
	"github.com/wardenbot/warden/common/testutils"
	"github.com/wardenbot/warden/settings"
)

var dropTables = []string{
	"feedback_entries",
	"feedback_types",
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

func TestFeedbackTypeLifecycle(t *testing.T) {
	ft := &FeedbackType{
		Name:          "bug",
		DestinationID: null.Int64From(12345),
		Autoresponse:  null.StringFrom("thanks, the team will take a look"),
	}
	if err := UpsertFeedbackType(ft); err != nil {
		t.Fatal(err)
	}

	ft.Autoresponse = null.StringFrom("logged")
	if err := UpsertFeedbackType(ft); err != nil {
		t.Fatal(err)
	}

	got, err := GetFeedbackType("bug")
	if err != nil {
		t.Fatal(err)
	}
	if got.Autoresponse.String != "logged" {
		t.Errorf("autoresponse = %q, want updated value", got.Autoresponse.String)
	}

	if _, err := GetFeedbackType("missing"); err != common.ErrNotFound {
		t.Errorf("missing type err = %v, want ErrNotFound", err)
	}
}

func TestRecordFeedback(t *testing.T) {
	if err := UpsertFeedbackType(&FeedbackType{Name: "suggestion"}); err != nil {
		t.Fatal(err)
	}

	id1, err := RecordFeedback("suggestion", 1, "more cat emotes")
	if err != nil {
		t.Fatal(err)
	}
	id2, err := RecordFeedback("suggestion", 2, "fewer cat emotes")
	if err != nil {
		t.Fatal(err)
	}
	if id1 == id2 {
		t.Fatal("two submissions got the same uuid")
	}

	entry, err := GetEntry(id1)
	if err != nil {
		t.Fatal(err)
	}
	if entry.UserID != 1 || entry.Feedback != "more cat emotes" {
		t.Errorf("entry = %+v", entry)
	}

	entries, err := GetEntriesByType("suggestion", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("entries = %d, want 2", len(entries))
	}
}

func TestRecordFeedbackUnknownType(t *testing.T) {
	_, err := RecordFeedback("nonexistent", 1, "hello")

	var violation *common.ConstraintViolationError
	if !errors.As(err, &violation) || violation.Kind != common.ConstraintForeignKey {
		t.Errorf("err = %v, want classified foreign key violation", err)
	}
}

func TestDeleteFeedbackTypeCascades(t *testing.T) {
	if err := UpsertFeedbackType(&FeedbackType{Name: "doomed"}); err != nil {
		t.Fatal(err)
	}
	id, err := RecordFeedback("doomed", 3, "soon gone")
	if err != nil {
		t.Fatal(err)
	}

	if err := DeleteFeedbackType("doomed"); err != nil {
		t.Fatal(err)
	}

	if _, err := GetEntry(id); err != common.ErrNotFound {
		t.Errorf("entry lookup after type delete err = %v, want ErrNotFound", err)
	}
}
