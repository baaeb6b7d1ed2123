package catalog

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/tomelib/tome/internal/database"
)

func selectNoteBuilder() squirrel.SelectBuilder {
	return squirrel.Select("note.*").From("note").OrderBy("note.created_at ASC")
}

func (store *Store) CreateNote(db database.Queryable, note *Note) error {
	if note.ID == uuid.Nil {
		note.ID = uuid.New()
	}

	model := noteToModel(note)
	if len(note.Discussion) > 0 {
		model.Discussion = database.NewJsonColumn(note.Discussion)
	}

	_, err := db.NamedExec(`
		INSERT INTO note(id, content, quote, position_seconds, discussion, audiobook_id, created_at, updated_at)
		VALUES (:id, :content, :quote, :position_seconds, :discussion, :audiobook_id, current_timestamp, current_timestamp)
	`, model)
	if err != nil {
		return fmt.Errorf("failed to insert new note: %w", err)
	}

	return nil
}

func (store *Store) GetNote(db database.Queryable, id uuid.UUID) (*Note, error) {
	query, args, err := selectNoteBuilder().Where(squirrel.Eq{"note.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to construct select note query: %w", err)
	}

	var model noteModel
	if err := db.Get(&model, db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoteNotFound
		}

		return nil, err
	}

	return noteModelToNote(&model), nil
}

func (store *Store) ListNotes(db database.Queryable) ([]*Note, error) {
	return store.listNotes(db, selectNoteBuilder())
}

func (store *Store) ListNotesForAudiobook(db database.Queryable, audiobookID uuid.UUID) ([]*Note, error) {
	return store.listNotes(db, selectNoteBuilder().Where(squirrel.Eq{"note.audiobook_id": audiobookID}))
}

func (store *Store) listNotes(db database.Queryable, builder squirrel.SelectBuilder) ([]*Note, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to construct list notes query: %w", err)
	}

	var models []noteModel
	if err := db.Select(&models, db.Rebind(query), args...); err != nil {
		return nil, err
	}

	notes := make([]*Note, len(models))
	for k := range models {
		notes[k] = noteModelToNote(&models[k])
	}

	return notes, nil
}

// UpdateNote rewrites the user-editable fields of a note. The discussion
// transcript is not touched here; see SaveNoteDiscussion.
func (store *Store) UpdateNote(db database.Queryable, note *Note) error {
	result, err := db.NamedExec(`
		UPDATE note SET content=:content, quote=:quote, position_seconds=:position_seconds, updated_at=current_timestamp
		WHERE id=:id
	`, noteToModel(note))
	if err != nil {
		return err
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrNoteNotFound
	}

	return nil
}

// SaveNoteDiscussion replaces the notes persisted transcript wholesale
// with the transcript provided.
func (store *Store) SaveNoteDiscussion(db database.Queryable, id uuid.UUID, transcript Transcript) error {
	discussion := database.NewJsonColumn(transcript)
	result, err := db.Exec(`UPDATE note SET discussion=$2, updated_at=current_timestamp WHERE id=$1`, id, discussion)
	if err != nil {
		return err
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrNoteNotFound
	}

	return nil
}

func (store *Store) DeleteNote(db database.Queryable, id uuid.UUID) error {
	result, err := db.Exec(`DELETE FROM note WHERE id=$1`, id)
	if err != nil {
		return err
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrNoteNotFound
	}

	return nil
}
