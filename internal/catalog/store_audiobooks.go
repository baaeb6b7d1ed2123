package catalog

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/tomelib/tome/internal/database"
)

func selectAudiobookBuilder() squirrel.SelectBuilder {
	return squirrel.Select("audiobook.*").From("audiobook").OrderBy("audiobook.created_at ASC")
}

func (store *Store) CreateAudiobook(db database.Queryable, audiobook *Audiobook) error {
	if audiobook.ID == uuid.Nil {
		audiobook.ID = uuid.New()
	}

	_, err := db.NamedExec(`
		INSERT INTO audiobook(
			id, remote_id, title, description, summary, thumbnail_url, media_url, upload_date,
			local_path, duration_seconds, file_size_bytes, is_fetched, is_encoded, progress_percent,
			playlist_id, created_at, updated_at)
		VALUES (
			:id, :remote_id, :title, :description, :summary, :thumbnail_url, :media_url, :upload_date,
			:local_path, :duration_seconds, :file_size_bytes, :is_fetched, :is_encoded, :progress_percent,
			:playlist_id, current_timestamp, current_timestamp)
	`, audiobook)
	if err != nil {
		return fmt.Errorf("failed to insert new audiobook: %w", err)
	}

	return nil
}

func (store *Store) GetAudiobook(db database.Queryable, id uuid.UUID) (*Audiobook, error) {
	return store.getAudiobook(db, squirrel.Eq{"audiobook.id": id})
}

func (store *Store) getAudiobook(db database.Queryable, pred any) (*Audiobook, error) {
	query, args, err := selectAudiobookBuilder().Where(pred).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to construct select audiobook query: %w", err)
	}

	var audiobook Audiobook
	if err := db.Get(&audiobook, db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAudiobookNotFound
		}

		return nil, err
	}

	return &audiobook, nil
}

func (store *Store) ListAudiobooks(db database.Queryable) ([]*Audiobook, error) {
	return store.listAudiobooks(db, selectAudiobookBuilder())
}

func (store *Store) ListAudiobooksForPlaylist(db database.Queryable, playlistID uuid.UUID) ([]*Audiobook, error) {
	return store.listAudiobooks(db, selectAudiobookBuilder().Where(squirrel.Eq{"audiobook.playlist_id": playlistID}))
}

// ListAudiobooksMissingSummary returns every audiobook which has no
// generated summary yet. Used by the summary backfill tooling.
func (store *Store) ListAudiobooksMissingSummary(db database.Queryable) ([]*Audiobook, error) {
	return store.listAudiobooks(db, selectAudiobookBuilder().Where(squirrel.Eq{"audiobook.summary": nil}))
}

func (store *Store) listAudiobooks(db database.Queryable, builder squirrel.SelectBuilder) ([]*Audiobook, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to construct list audiobooks query: %w", err)
	}

	var results []*Audiobook
	if err := db.Select(&results, db.Rebind(query), args...); err != nil {
		return nil, err
	}

	return results, nil
}

func (store *Store) SetAudiobookSummary(db database.Queryable, id uuid.UUID, summary string) error {
	result, err := db.Exec(`UPDATE audiobook SET summary=$2, updated_at=current_timestamp WHERE id=$1`, id, summary)
	if err != nil {
		return err
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrAudiobookNotFound
	}

	return nil
}

// RecordMaterializationRequested marks the row with the initial progress
// marker IF the audiobook has not already been fetched. The conditional
// update doubles as a persisted check-and-set: the boolean return reports
// whether the marker was claimed.
func (store *Store) RecordMaterializationRequested(db database.Queryable, id uuid.UUID) (bool, error) {
	result, err := db.Exec(`
		UPDATE audiobook SET progress_percent=1, updated_at=current_timestamp
		WHERE id=$1 AND is_fetched=false
	`, id)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

// RecordMaterializationProgress stores a progress sample for an in-flight
// materialization. The GREATEST guard keeps the persisted value
// monotonically non-decreasing within an attempt even if samples arrive
// out of order.
func (store *Store) RecordMaterializationProgress(db database.Queryable, id uuid.UUID, percent float64) error {
	_, err := db.Exec(`
		UPDATE audiobook SET progress_percent=GREATEST(progress_percent, $2), updated_at=current_timestamp
		WHERE id=$1
	`, id, percent)

	return err
}

// RecordMaterialized commits the terminal success state for a
// materialization attempt in a single write: the storage-root-relative
// path, the measured artifact properties and the fetched/encoded flags.
func (store *Store) RecordMaterialized(db database.Queryable, id uuid.UUID, localPath string, durationSeconds float64, fileSizeBytes int64) error {
	result, err := db.Exec(`
		UPDATE audiobook
		SET local_path=$2, duration_seconds=$3, file_size_bytes=$4,
		    is_fetched=true, is_encoded=true, progress_percent=100,
		    updated_at=current_timestamp
		WHERE id=$1
	`, id, localPath, durationSeconds, fileSizeBytes)
	if err != nil {
		return err
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrAudiobookNotFound
	}

	return nil
}

// RecordMaterializationFailure resets the row to a clearly failed-looking
// state: zero progress, not fetched, not encoded. A subsequent request
// for this audiobook is treated identically to a fresh one.
func (store *Store) RecordMaterializationFailure(db database.Queryable, id uuid.UUID) error {
	_, err := db.Exec(`
		UPDATE audiobook
		SET progress_percent=0, is_fetched=false, is_encoded=false, updated_at=current_timestamp
		WHERE id=$1
	`, id)

	return err
}

func (store *Store) DeleteAudiobook(db database.Queryable, id uuid.UUID) error {
	result, err := db.Exec(`DELETE FROM audiobook WHERE id=$1`, id)
	if err != nil {
		return err
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrAudiobookNotFound
	}

	return nil
}
