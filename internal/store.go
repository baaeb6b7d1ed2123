package internal

import (
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/tomelib/tome/internal/catalog"
	"github.com/tomelib/tome/internal/database"
)

// dataOrchestrator is responsible for managing all of Tome's resources,
// especially highly-relational data. You can think of the catalog store
// below this layer being 'dumb', and this orchestrator linking it together
// with the database instance and providing transactionality where multiple
// writes must land together.
type dataOrchestrator struct {
	db           database.Manager
	CatalogStore *catalog.Store
}

func NewDataOrchestrator(db database.Manager) *dataOrchestrator {
	return &dataOrchestrator{
		db:           db,
		CatalogStore: &catalog.Store{},
	}
}

// -- Channels --

func (orchestrator *dataOrchestrator) GetChannel(id uuid.UUID) (*catalog.Channel, error) {
	return orchestrator.CatalogStore.GetChannel(orchestrator.db.GetSqlxDb(), id)
}

func (orchestrator *dataOrchestrator) GetChannelWithRemoteID(remoteID string) (*catalog.Channel, error) {
	return orchestrator.CatalogStore.GetChannelWithRemoteID(orchestrator.db.GetSqlxDb(), remoteID)
}

func (orchestrator *dataOrchestrator) ListChannels() ([]*catalog.Channel, error) {
	return orchestrator.CatalogStore.ListChannels(orchestrator.db.GetSqlxDb())
}

// CreateChannelWithPlaylists transactionally saves a newly discovered
// channel along with its discovered playlists; a failure saving any
// playlist rolls back the channel too.
func (orchestrator *dataOrchestrator) CreateChannelWithPlaylists(channel *catalog.Channel, playlists []*catalog.Playlist) error {
	return orchestrator.db.WrapTx(func(tx *sqlx.Tx) error {
		if err := orchestrator.CatalogStore.CreateChannel(tx, channel); err != nil {
			return err
		}

		for _, playlist := range playlists {
			if err := orchestrator.CatalogStore.CreatePlaylist(tx, playlist); err != nil {
				return err
			}
		}

		return nil
	})
}

// DeleteChannel removes a channel; playlists, audiobooks and notes beneath
// it go with it via the schema's cascading deletes.
func (orchestrator *dataOrchestrator) DeleteChannel(id uuid.UUID) error {
	return orchestrator.CatalogStore.DeleteChannel(orchestrator.db.GetSqlxDb(), id)
}

// -- Playlists --

func (orchestrator *dataOrchestrator) GetPlaylist(id uuid.UUID) (*catalog.Playlist, error) {
	return orchestrator.CatalogStore.GetPlaylist(orchestrator.db.GetSqlxDb(), id)
}

func (orchestrator *dataOrchestrator) ListPlaylists() ([]*catalog.Playlist, error) {
	return orchestrator.CatalogStore.ListPlaylists(orchestrator.db.GetSqlxDb())
}

func (orchestrator *dataOrchestrator) ListPlaylistsForChannel(channelID uuid.UUID) ([]*catalog.Playlist, error) {
	return orchestrator.CatalogStore.ListPlaylistsForChannel(orchestrator.db.GetSqlxDb(), channelID)
}

// CreatePlaylists transactionally saves a batch of newly discovered
// playlists; a failure saving any of them rolls the whole batch back.
func (orchestrator *dataOrchestrator) CreatePlaylists(playlists []*catalog.Playlist) error {
	if len(playlists) == 0 {
		return nil
	}

	return orchestrator.db.WrapTx(func(tx *sqlx.Tx) error {
		for _, playlist := range playlists {
			if err := orchestrator.CatalogStore.CreatePlaylist(tx, playlist); err != nil {
				return err
			}
		}

		return nil
	})
}

func (orchestrator *dataOrchestrator) SetPlaylistAuthor(id uuid.UUID, author string) error {
	return orchestrator.CatalogStore.SetPlaylistAuthor(orchestrator.db.GetSqlxDb(), id, author)
}

func (orchestrator *dataOrchestrator) DeletePlaylist(id uuid.UUID) error {
	return orchestrator.CatalogStore.DeletePlaylist(orchestrator.db.GetSqlxDb(), id)
}

// -- Audiobooks --

func (orchestrator *dataOrchestrator) GetAudiobook(id uuid.UUID) (*catalog.Audiobook, error) {
	return orchestrator.CatalogStore.GetAudiobook(orchestrator.db.GetSqlxDb(), id)
}

func (orchestrator *dataOrchestrator) ListAudiobooks() ([]*catalog.Audiobook, error) {
	return orchestrator.CatalogStore.ListAudiobooks(orchestrator.db.GetSqlxDb())
}

func (orchestrator *dataOrchestrator) ListAudiobooksForPlaylist(playlistID uuid.UUID) ([]*catalog.Audiobook, error) {
	return orchestrator.CatalogStore.ListAudiobooksForPlaylist(orchestrator.db.GetSqlxDb(), playlistID)
}

func (orchestrator *dataOrchestrator) ListAudiobooksMissingSummary() ([]*catalog.Audiobook, error) {
	return orchestrator.CatalogStore.ListAudiobooksMissingSummary(orchestrator.db.GetSqlxDb())
}

// CreateAudiobooks transactionally saves a batch of newly discovered
// audiobooks; a failure saving any of them rolls the whole batch back.
func (orchestrator *dataOrchestrator) CreateAudiobooks(audiobooks []*catalog.Audiobook) error {
	if len(audiobooks) == 0 {
		return nil
	}

	return orchestrator.db.WrapTx(func(tx *sqlx.Tx) error {
		for _, audiobook := range audiobooks {
			if err := orchestrator.CatalogStore.CreateAudiobook(tx, audiobook); err != nil {
				return err
			}
		}

		return nil
	})
}

func (orchestrator *dataOrchestrator) SetAudiobookSummary(id uuid.UUID, summary string) error {
	return orchestrator.CatalogStore.SetAudiobookSummary(orchestrator.db.GetSqlxDb(), id, summary)
}

func (orchestrator *dataOrchestrator) RecordMaterializationRequested(id uuid.UUID) (bool, error) {
	return orchestrator.CatalogStore.RecordMaterializationRequested(orchestrator.db.GetSqlxDb(), id)
}

func (orchestrator *dataOrchestrator) RecordMaterializationProgress(id uuid.UUID, percent float64) error {
	return orchestrator.CatalogStore.RecordMaterializationProgress(orchestrator.db.GetSqlxDb(), id, percent)
}

func (orchestrator *dataOrchestrator) RecordMaterialized(id uuid.UUID, localPath string, durationSeconds float64, fileSizeBytes int64) error {
	return orchestrator.CatalogStore.RecordMaterialized(orchestrator.db.GetSqlxDb(), id, localPath, durationSeconds, fileSizeBytes)
}

func (orchestrator *dataOrchestrator) RecordMaterializationFailure(id uuid.UUID) error {
	return orchestrator.CatalogStore.RecordMaterializationFailure(orchestrator.db.GetSqlxDb(), id)
}

func (orchestrator *dataOrchestrator) DeleteAudiobook(id uuid.UUID) error {
	return orchestrator.CatalogStore.DeleteAudiobook(orchestrator.db.GetSqlxDb(), id)
}

// -- Notes --

func (orchestrator *dataOrchestrator) GetNote(id uuid.UUID) (*catalog.Note, error) {
	return orchestrator.CatalogStore.GetNote(orchestrator.db.GetSqlxDb(), id)
}

func (orchestrator *dataOrchestrator) ListNotes() ([]*catalog.Note, error) {
	return orchestrator.CatalogStore.ListNotes(orchestrator.db.GetSqlxDb())
}

func (orchestrator *dataOrchestrator) ListNotesForAudiobook(audiobookID uuid.UUID) ([]*catalog.Note, error) {
	return orchestrator.CatalogStore.ListNotesForAudiobook(orchestrator.db.GetSqlxDb(), audiobookID)
}

func (orchestrator *dataOrchestrator) CreateNote(note *catalog.Note) error {
	return orchestrator.CatalogStore.CreateNote(orchestrator.db.GetSqlxDb(), note)
}

func (orchestrator *dataOrchestrator) UpdateNote(note *catalog.Note) error {
	return orchestrator.CatalogStore.UpdateNote(orchestrator.db.GetSqlxDb(), note)
}

func (orchestrator *dataOrchestrator) SaveNoteDiscussion(id uuid.UUID, transcript catalog.Transcript) error {
	return orchestrator.CatalogStore.SaveNoteDiscussion(orchestrator.db.GetSqlxDb(), id, transcript)
}

func (orchestrator *dataOrchestrator) DeleteNote(id uuid.UUID) error {
	return orchestrator.CatalogStore.DeleteNote(orchestrator.db.GetSqlxDb(), id)
}
