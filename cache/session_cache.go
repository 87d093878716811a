// Package cache keeps ephemeral playback sessions in redis so they survive
// a restart without being written to the database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"Atlas/core/playlist"
	"Atlas/model"

	"github.com/redis/go-redis/v9"
)

// DefaultSessionTTL 会话默认保留时长
const DefaultSessionTTL = 7 * 24 * time.Hour

const recentKey = "atlas:session:recent"

// SessionCache 会话缓存：曲目队列存 ZSET（分数为位置），游标等状态存 HASH
type SessionCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewSessionCache(client redis.Cmdable, ttl time.Duration) *SessionCache {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionCache{client: client, ttl: ttl}
}

func queueKey(id model.ID) string { return fmt.Sprintf("atlas:session:%s:queue", id) }
func stateKey(id model.ID) string { return fmt.Sprintf("atlas:session:%s:state", id) }

// Save replaces the stored session for s.ID and refreshes its TTL.
func (c *SessionCache) Save(ctx context.Context, s playlist.Snapshot) error {
	shuffle, err := json.Marshal(s.ShuffleOrder)
	if err != nil {
		return fmt.Errorf("failed to marshal shuffle order: %w", err)
	}
	current := ""
	if s.Current != model.NilID {
		current = s.Current.String()
	}

	members := make([]redis.Z, 0, len(s.Queue))
	for i, id := range s.Queue {
		members = append(members, redis.Z{Score: float64(i), Member: id.String()})
	}

	qk, sk := queueKey(s.ID), stateKey(s.ID)
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, qk)
		if len(members) > 0 {
			pipe.ZAdd(ctx, qk, members...)
			pipe.Expire(ctx, qk, c.ttl)
		}
		pipe.HSet(ctx, sk,
			"name", s.Name,
			"artPath", s.ArtPath,
			"current", current,
			"cursor", s.Cursor,
			"model", string(s.Model),
			"repeat", s.Repeat,
			"shuffle", s.Shuffle,
			"shuffleOrder", string(shuffle),
		)
		pipe.Expire(ctx, sk, c.ttl)
		pipe.ZAdd(ctx, recentKey, redis.Z{Score: float64(time.Now().UnixMilli()), Member: s.ID.String()})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", s.ID, err)
	}
	return nil
}

// Load returns the stored session, or model.ErrNotFound once it expired.
func (c *SessionCache) Load(ctx context.Context, id model.ID) (playlist.Snapshot, error) {
	state, err := c.client.HGetAll(ctx, stateKey(id)).Result()
	if err != nil {
		return playlist.Snapshot{}, fmt.Errorf("failed to load session %s: %w", id, err)
	}
	if len(state) == 0 {
		return playlist.Snapshot{}, fmt.Errorf("session %s: %w", id, model.ErrNotFound)
	}

	// 按分数升序即队列顺序
	raw, err := c.client.ZRange(ctx, queueKey(id), 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return playlist.Snapshot{}, fmt.Errorf("failed to load session queue %s: %w", id, err)
	}

	s := playlist.Snapshot{
		ID:        id,
		Name:      state["name"],
		ArtPath:   state["artPath"],
		Ephemeral: true,
		Model:     playlist.SortModel(state["model"]),
		Repeat:    parseBool(state["repeat"]),
		Shuffle:   parseBool(state["shuffle"]),
		Cursor:    -1,
	}
	if n, err := strconv.Atoi(state["cursor"]); err == nil {
		s.Cursor = n
	}
	if cur, err := model.ParseID(state["current"]); err == nil {
		s.Current = cur
	}
	for _, r := range raw {
		if tid, err := model.ParseID(r); err == nil {
			s.Queue = append(s.Queue, tid)
		}
	}
	if order := state["shuffleOrder"]; order != "" && order != "null" {
		if err := json.Unmarshal([]byte(order), &s.ShuffleOrder); err != nil {
			return playlist.Snapshot{}, fmt.Errorf("failed to unmarshal shuffle order: %w", err)
		}
	}
	return s, nil
}

// Latest returns the most recently saved session that has not expired.
func (c *SessionCache) Latest(ctx context.Context) (playlist.Snapshot, error) {
	ids, err := c.client.ZRevRange(ctx, recentKey, 0, -1).Result()
	if err != nil {
		return playlist.Snapshot{}, fmt.Errorf("failed to list sessions: %w", err)
	}
	for _, raw := range ids {
		id, err := model.ParseID(raw)
		if err != nil {
			continue
		}
		s, err := c.Load(ctx, id)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return playlist.Snapshot{}, err
		}
		// 已过期，顺手清理索引
		c.client.ZRem(ctx, recentKey, raw)
	}
	return playlist.Snapshot{}, fmt.Errorf("no stored session: %w", model.ErrNotFound)
}

// Delete 删除会话
func (c *SessionCache) Delete(ctx context.Context, id model.ID) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, queueKey(id), stateKey(id))
		pipe.ZRem(ctx, recentKey, id.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	return nil
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}
