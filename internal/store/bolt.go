package store

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var chatsBucket = []byte("chats")

// Chat holds usage counters for one conversation. No message content is kept.
type Chat struct {
	ID        string    `json:"id"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
	Questions int       `json:"questions"`
	// Outcomes counts questions by how they were resolved, e.g. "answered".
	Outcomes map[string]int `json:"outcomes"`
}

type Store interface {
	RecordOutcome(chatID, outcome string) error
	GetChat(chatID string) (*Chat, error)
	ListChats() ([]Chat, error)
	DeleteChat(chatID string) error
	Close() error
}

type BoltStore struct {
	db  *bolt.DB
	now func() time.Time
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(chatsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating chats bucket: %w", err)
	}

	return &BoltStore{db: db, now: time.Now}, nil
}

// RecordOutcome counts one question for the chat, creating it on first use.
func (s *BoltStore) RecordOutcome(chatID, outcome string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(chatsBucket)
		now := s.now().UTC()

		c := Chat{ID: chatID, FirstSeen: now}
		if v := b.Get([]byte(chatID)); v != nil {
			if err := json.Unmarshal(v, &c); err != nil {
				return fmt.Errorf("decoding chat %s: %w", chatID, err)
			}
		}
		if c.Outcomes == nil {
			c.Outcomes = make(map[string]int)
		}
		c.LastSeen = now
		c.Questions++
		c.Outcomes[outcome]++

		data, err := json.Marshal(c)
		if err != nil {
			return err
		}
		return b.Put([]byte(chatID), data)
	})
}

// GetChat returns nil, nil for an unknown chat.
func (s *BoltStore) GetChat(chatID string) (*Chat, error) {
	var c *Chat
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(chatsBucket).Get([]byte(chatID))
		if v == nil {
			return nil
		}
		c = &Chat{}
		return json.Unmarshal(v, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListChats returns every chat ordered by id.
func (s *BoltStore) ListChats() ([]Chat, error) {
	chats := []Chat{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(chatsBucket).ForEach(func(k, v []byte) error {
			var c Chat
			if err := json.Unmarshal(v, &c); err != nil {
				return fmt.Errorf("decoding chat %s: %w", k, err)
			}
			chats = append(chats, c)
			return nil
		})
	})
	return chats, err
}

func (s *BoltStore) DeleteChat(chatID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(chatsBucket).Delete([]byte(chatID))
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
