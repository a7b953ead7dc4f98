package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nerdscourt/canon-core/internal/model"
)

// DefaultRedisPrefix namespaces the archive keys.
const DefaultRedisPrefix = "nerdbible"

// RedisStore implements Store on Redis. An INCR counter hands out sequence
// numbers; entries are kept as JSON in a list for ordering and a hash for
// lookup by id.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore pings the server and writes the default scripture core if
// none is stored yet.
func NewRedisStore(ctx context.Context, client *redis.Client, prefix string) (*RedisStore, error) {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	s := &RedisStore{client: client, prefix: prefix, now: time.Now}

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	core, err := json.Marshal(model.DefaultScriptureCore())
	if err != nil {
		return nil, err
	}
	if err := client.SetNX(ctx, s.key("core"), core, 0).Err(); err != nil {
		return nil, fmt.Errorf("bootstrap scripture core: %w", err)
	}
	return s, nil
}

// OpenRedisStore dials url (redis://...) and returns a store owning the client.
func OpenRedisStore(ctx context.Context, url, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	s, err := NewRedisStore(ctx, client, prefix)
	if err != nil {
		client.Close()
		return nil, err
	}
	return s, nil
}

func (s *RedisStore) key(name string) string {
	return s.prefix + ":" + name
}

func (s *RedisStore) Document(ctx context.Context) (*model.BibleDocument, error) {
	raw, err := s.client.Get(ctx, s.key("core")).Bytes()
	if err != nil {
		return nil, fmt.Errorf("read scripture core: %w", err)
	}
	doc := model.BibleDocument{}
	if err := json.Unmarshal(raw, &doc.ScriptureCore); err != nil {
		return nil, fmt.Errorf("parse scripture core: %w", err)
	}
	entries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	doc.Entries = entries
	return &doc, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*model.LoreEntry, error) {
	raw, err := s.client.HGet(ctx, s.key("byid"), id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	var e model.LoreEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("parse entry %s: %w", id, err)
	}
	return &e, nil
}

func (s *RedisStore) Append(ctx context.Context, p AppendParams) (*model.LoreEntry, error) {
	seq, err := s.client.Incr(ctx, s.key("seq")).Result()
	if err != nil {
		return nil, fmt.Errorf("next sequence: %w", err)
	}

	entry := model.LoreEntry{
		ID:        FormatID(seq),
		Theme:     p.Theme,
		Quote:     p.Quote,
		Source:    p.Source,
		Character: p.Character,
		Tier:      p.Tier,
		CreatedAt: model.Timestamp(s.now()),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, s.key("entries"), data)
		pipe.HSet(ctx, s.key("byid"), entry.ID, data)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store entry: %w", err)
	}
	return &entry, nil
}

func (s *RedisStore) List(ctx context.Context) ([]model.LoreEntry, error) {
	items, err := s.client.LRange(ctx, s.key("entries"), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]model.LoreEntry, 0, len(items))
	for _, item := range items {
		var e model.LoreEntry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("parse entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *RedisStore) Query(ctx context.Context, pred Predicate) ([]model.LoreEntry, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return filter(entries, pred), nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
