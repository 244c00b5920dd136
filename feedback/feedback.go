package feedback

import (
	"database/sql"
	"time"

	"emperror.dev/errors"
	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"github.com/wardenbot/warden/common"
	"github.com/wardenbot/warden/settings"
)

type FeedbackType struct {
	Name string

	DestinationID null.Int64
	Autoresponse  null.String
}

type Entry struct {
	UUID string

	Type   string
	UserID int64

	Feedback  string
	CreatedAt time.Time
}

// UpsertFeedbackType creates or reconfigures a feedback category.
func UpsertFeedbackType(ft *FeedbackType) error {
	_, err := common.PQ.Exec(`
	INSERT INTO feedback_types (feedback_type, destination_id, autoresponse)
	VALUES ($1, $2, $3)
	ON CONFLICT (feedback_type) DO UPDATE SET
		destination_id=excluded.destination_id,
		autoresponse=excluded.autoresponse`,
		ft.Name, ft.DestinationID, ft.Autoresponse)
	return common.ClassifyPGError(err)
}

// GetFeedbackType returns one category, common.ErrNotFound if it was
// never created.
func GetFeedbackType(name string) (*FeedbackType, error) {
	ft := &FeedbackType{Name: name}

	err := common.PQ.QueryRow(`
	SELECT destination_id, autoresponse
	FROM feedback_types
	WHERE feedback_type = $1`, name).Scan(&ft.DestinationID, &ft.Autoresponse)
	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	return ft, nil
}

func ListFeedbackTypes() ([]*FeedbackType, error) {
	rows, err := common.PQ.Query(`
	SELECT feedback_type, destination_id, autoresponse
	FROM feedback_types
	ORDER BY feedback_type`)
	if err != nil {
		return nil, errors.WithStackIf(err)
	}
	defer rows.Close()

	var types []*FeedbackType
	for rows.Next() {
		ft := &FeedbackType{}
		if err := rows.Scan(&ft.Name, &ft.DestinationID, &ft.Autoresponse); err != nil {
			return nil, errors.WithStackIf(err)
		}
		types = append(types, ft)
	}

	return types, errors.WithStackIf(rows.Err())
}

// DeleteFeedbackType drops a category and its entries.
func DeleteFeedbackType(name string) error {
	_, err := common.PQ.Exec("DELETE FROM feedback_types WHERE feedback_type = $1", name)
	return common.ClassifyPGDeleteError(err)
}

// RecordFeedback stores a submission under a fresh uuid and returns it,
// the token the submitter can later be referred to by without exposing
// their id.
func RecordFeedback(feedbackType string, userID int64, feedback string) (string, error) {
	id := uuid.New().String()

	err := common.SqlTX(func(tx *sql.Tx) error {
		if err := settings.TouchUser(tx, userID); err != nil {
			return err
		}

		_, err := tx.Exec(`
		INSERT INTO feedback_entries (uuid, feedback_type, user_id, feedback)
		VALUES ($1, $2, $3, $4)`, id, feedbackType, userID, feedback)
		return common.ClassifyPGError(err)
	})
	if err != nil {
		return "", err
	}

	return id, nil
}

// GetEntry looks a submission up by its uuid.
func GetEntry(id string) (*Entry, error) {
	entry := &Entry{UUID: id}

	err := common.PQ.QueryRow(`
	SELECT feedback_type, user_id, feedback, created_at
	FROM feedback_entries
	WHERE uuid = $1`, id).Scan(&entry.Type, &entry.UserID, &entry.Feedback, &entry.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	return entry, nil
}

// GetEntriesByType lists submissions in one category, newest first.
func GetEntriesByType(feedbackType string, limit int) ([]*Entry, error) {
	rows, err := common.PQ.Query(`
	SELECT uuid, feedback_type, user_id, feedback, created_at
	FROM feedback_entries
	WHERE feedback_type = $1
	ORDER BY created_at DESC
	LIMIT $2`, feedbackType, limit)
	if err != nil {
		return nil, errors.WithStackIf(err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry := &Entry{}
		err := rows.Scan(&entry.UUID, &entry.Type, &entry.UserID, &entry.Feedback, &entry.CreatedAt)
		if err != nil {
			return nil, errors.WithStackIf(err)
		}
		entries = append(entries, entry)
	}

	return entries, errors.WithStackIf(rows.Err())
}
