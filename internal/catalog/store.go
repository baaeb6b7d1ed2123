package catalog

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/tomelib/tome/internal/database"
)

var (
	ErrChannelNotFound   = errors.New("channel does not exist")
	ErrPlaylistNotFound  = errors.New("playlist does not exist")
	ErrAudiobookNotFound = errors.New("audiobook does not exist")
	ErrNoteNotFound      = errors.New("note does not exist")
)

// Store provides access to the persistent catalog hierarchy
// (channel -> playlist -> audiobook -> note). Methods accept a Queryable
// so that callers can compose multiple operations inside one transaction;
// referential integrity (cascade deletion included) is enforced by the
// schema, not by this store.
type Store struct{}

func selectChannelBuilder() squirrel.SelectBuilder {
	return squirrel.Select("channel.*").From("channel").OrderBy("channel.created_at ASC")
}

func selectPlaylistBuilder() squirrel.SelectBuilder {
	return squirrel.Select("playlist.*").From("playlist").OrderBy("playlist.created_at ASC")
}

func (store *Store) CreateChannel(db database.Queryable, channel *Channel) error {
	if channel.ID == uuid.Nil {
		channel.ID = uuid.New()
	}

	_, err := db.NamedExec(`
		INSERT INTO channel(id, remote_id, title, description, thumbnail_url, origin_url, created_at, updated_at)
		VALUES (:id, :remote_id, :title, :description, :thumbnail_url, :origin_url, current_timestamp, current_timestamp)
	`, channel)
	if err != nil {
		return fmt.Errorf("failed to insert new channel: %w", err)
	}

	return nil
}

func (store *Store) GetChannel(db database.Queryable, id uuid.UUID) (*Channel, error) {
	return store.getChannel(db, squirrel.Eq{"channel.id": id})
}

// GetChannelWithRemoteID searches for an existing channel with the stable
// remote identity provided. ErrChannelNotFound is returned when no such
// channel is known.
func (store *Store) GetChannelWithRemoteID(db database.Queryable, remoteID string) (*Channel, error) {
	return store.getChannel(db, squirrel.Eq{"channel.remote_id": remoteID})
}

func (store *Store) getChannel(db database.Queryable, pred any) (*Channel, error) {
	query, args, err := selectChannelBuilder().Where(pred).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to construct select channel query: %w", err)
	}

	var channel Channel
	if err := db.Get(&channel, db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChannelNotFound
		}

		return nil, err
	}

	return &channel, nil
}

func (store *Store) ListChannels(db database.Queryable) ([]*Channel, error) {
	query, args, err := selectChannelBuilder().ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to construct list channels query: %w", err)
	}

	var results []*Channel
	if err := db.Select(&results, db.Rebind(query), args...); err != nil {
		return nil, err
	}

	return results, nil
}

// DeleteChannel removes the channel row; the schema cascades the deletion
// through the channels playlists, their audiobooks and those audiobooks
// notes.
func (store *Store) DeleteChannel(db database.Queryable, id uuid.UUID) error {
	result, err := db.Exec(`DELETE FROM channel WHERE id=$1`, id)
	if err != nil {
		return err
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrChannelNotFound
	}

	return nil
}

func (store *Store) CreatePlaylist(db database.Queryable, playlist *Playlist) error {
	if playlist.ID == uuid.Nil {
		playlist.ID = uuid.New()
	}

	_, err := db.NamedExec(`
		INSERT INTO playlist(id, remote_id, title, description, thumbnail_url, origin_url, author, channel_id, created_at, updated_at)
		VALUES (:id, :remote_id, :title, :description, :thumbnail_url, :origin_url, :author, :channel_id, current_timestamp, current_timestamp)
	`, playlist)
	if err != nil {
		return fmt.Errorf("failed to insert new playlist: %w", err)
	}

	return nil
}

func (store *Store) GetPlaylist(db database.Queryable, id uuid.UUID) (*Playlist, error) {
	return store.getPlaylist(db, squirrel.Eq{"playlist.id": id})
}

func (store *Store) getPlaylist(db database.Queryable, pred any) (*Playlist, error) {
	query, args, err := selectPlaylistBuilder().Where(pred).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to construct select playlist query: %w", err)
	}

	var playlist Playlist
	if err := db.Get(&playlist, db.Rebind(query), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlaylistNotFound
		}

		return nil, err
	}

	return &playlist, nil
}

func (store *Store) ListPlaylists(db database.Queryable) ([]*Playlist, error) {
	return store.listPlaylists(db, selectPlaylistBuilder())
}

func (store *Store) ListPlaylistsForChannel(db database.Queryable, channelID uuid.UUID) ([]*Playlist, error) {
	return store.listPlaylists(db, selectPlaylistBuilder().Where(squirrel.Eq{"playlist.channel_id": channelID}))
}

func (store *Store) listPlaylists(db database.Queryable, builder squirrel.SelectBuilder) ([]*Playlist, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to construct list playlists query: %w", err)
	}

	var results []*Playlist
	if err := db.Select(&results, db.Rebind(query), args...); err != nil {
		return nil, err
	}

	return results, nil
}

// SetPlaylistAuthor records free-text attribution against a playlist.
func (store *Store) SetPlaylistAuthor(db database.Queryable, id uuid.UUID, author string) error {
	result, err := db.Exec(`UPDATE playlist SET author=$2, updated_at=current_timestamp WHERE id=$1`, id, author)
	if err != nil {
		return err
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrPlaylistNotFound
	}

	return nil
}

func (store *Store) DeletePlaylist(db database.Queryable, id uuid.UUID) error {
	result, err := db.Exec(`DELETE FROM playlist WHERE id=$1`, id)
	if err != nil {
		return err
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrPlaylistNotFound
	}

	return nil
}
