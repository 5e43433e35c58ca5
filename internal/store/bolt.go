package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/rodrigogml/rfwgo/internal/openai"
)

var transcriptsBucket = []byte("transcripts")

// maxTranscriptMessages caps how much of a conversation is archived;
// older messages are dropped, most recent kept.
const maxTranscriptMessages = 200

// Transcript is an archived conversation snapshot, captured from the
// chat client's History(). The client itself keeps nothing across
// restarts — archiving is a caller concern, and this is the caller.
type Transcript struct {
	ID       string           `json:"id"`
	Model    string           `json:"model"`
	Messages []openai.Message `json:"messages"`
	SavedAt  time.Time        `json:"saved_at"`
}

type Store interface {
	SaveTranscript(tr Transcript) error
	GetTranscript(id string) (*Transcript, error)
	ListTranscripts() ([]Transcript, error)
	DeleteTranscript(id string) error
	Close() error
}

type BoltStore struct {
	db *bolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(transcriptsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating transcripts bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) SaveTranscript(tr Transcript) error {
	if tr.ID == "" {
		return fmt.Errorf("transcript has no ID")
	}
	if len(tr.Messages) > maxTranscriptMessages {
		tr.Messages = tr.Messages[len(tr.Messages)-maxTranscriptMessages:]
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(tr)
		if err != nil {
			return err
		}
		return tx.Bucket(transcriptsBucket).Put([]byte(tr.ID), data)
	})
}

func (s *BoltStore) GetTranscript(id string) (*Transcript, error) {
	var tr Transcript
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(transcriptsBucket).Get([]byte(id))
		if v == nil {
			return nil
		}
		return json.Unmarshal(v, &tr)
	})
	if err != nil {
		return nil, err
	}
	if tr.ID == "" {
		return nil, nil
	}
	return &tr, nil
}

func (s *BoltStore) ListTranscripts() ([]Transcript, error) {
	var out []Transcript
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(transcriptsBucket).ForEach(func(_, v []byte) error {
			var tr Transcript
			if err := json.Unmarshal(v, &tr); err != nil {
				return err
			}
			out = append(out, tr)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SavedAt.After(out[j].SavedAt) })
	return out, nil
}

func (s *BoltStore) DeleteTranscript(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(transcriptsBucket).Delete([]byte(id))
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
