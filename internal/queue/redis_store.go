package queue

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"

	"github.com/lshigami/quizsync/internal/model"
	"github.com/redis/go-redis/v9"
)

// Key layout, per lane:
//
//	<prefix>seq:<lane>       last sequence number handed out
//	<prefix>entries:<lane>   zset of pending sequence numbers
//	<prefix>data:<lane>      hash seq -> mutation record
//	<prefix>keys:<lane>      hash seq -> coalesce key
//	<prefix>coalesce:<lane>  hash coalesce key -> seq
//
// <prefix>lanes is the set of lanes with pending mutations.

var appendScript = redis.NewScript(`
local seq = redis.call('INCR', KEYS[2])
if ARGV[2] ~= '' then
  local old = redis.call('HGET', KEYS[6], ARGV[2])
  if old then
    redis.call('ZREM', KEYS[3], old)
    redis.call('HDEL', KEYS[4], old)
    redis.call('HDEL', KEYS[5], old)
  end
  redis.call('HSET', KEYS[6], ARGV[2], seq)
  redis.call('HSET', KEYS[5], seq, ARGV[2])
end
redis.call('ZADD', KEYS[3], seq, seq)
redis.call('HSET', KEYS[4], seq, ARGV[3])
redis.call('SADD', KEYS[1], ARGV[1])
return seq
`)

var deleteScript = redis.NewScript(`
local removed = redis.call('ZREM', KEYS[2], ARGV[2])
redis.call('HDEL', KEYS[3], ARGV[2])
local ck = redis.call('HGET', KEYS[4], ARGV[2])
if ck then
  redis.call('HDEL', KEYS[4], ARGV[2])
  if redis.call('HGET', KEYS[5], ck) == ARGV[2] then
    redis.call('HDEL', KEYS[5], ck)
  end
end
if redis.call('ZCARD', KEYS[2]) == 0 then
  redis.call('SREM', KEYS[1], ARGV[1])
end
return removed
`)

type redisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore keeps the queue in Redis under prefix.
func NewRedisStore(client *redis.Client, prefix string) Store {
	return &redisStore{client: client, prefix: prefix}
}

func (s *redisStore) lanesKey() string { return s.prefix + "lanes" }
func (s *redisStore) seqKey(lane string) string { return s.prefix + "seq:" + lane }
func (s *redisStore) entriesKey(lane string) string { return s.prefix + "entries:" + lane }
func (s *redisStore) dataKey(lane string) string { return s.prefix + "data:" + lane }
func (s *redisStore) keysKey(lane string) string { return s.prefix + "keys:" + lane }
func (s *redisStore) coalesceKey(lane string) string { return s.prefix + "coalesce:" + lane }

func (s *redisStore) Append(ctx context.Context, m *model.PendingMutation) error {
	m.SequenceNumber = 0
	record, err := json.Marshal(m)
	if err != nil {
		return err
	}
	keys := []string{
		s.lanesKey(),
		s.seqKey(m.Lane),
		s.entriesKey(m.Lane),
		s.dataKey(m.Lane),
		s.keysKey(m.Lane),
		s.coalesceKey(m.Lane),
	}
	seq, err := appendScript.Run(ctx, s.client, keys, m.Lane, m.CoalesceKey, string(record)).Int64()
	if err != nil {
		return err
	}
	m.SequenceNumber = uint64(seq)
	return nil
}

// decodeRecord never fails: an unreadable record comes back with an empty
// intent type and the raw bytes as payload so the queue can drop it.
func decodeRecord(lane string, seq uint64, raw interface{}) model.PendingMutation {
	text, _ := raw.(string)
	var m model.PendingMutation
	if err := json.Unmarshal([]byte(text), &m); err != nil {
		m = model.PendingMutation{Payload: text}
	}
	m.Lane = lane
	m.SequenceNumber = seq
	return m
}

func (s *redisStore) List(ctx context.Context, lane string) ([]model.PendingMutation, error) {
	seqs, err := s.client.ZRange(ctx, s.entriesKey(lane), 0, -1).Result()
	if err != nil || len(seqs) == 0 {
		return nil, err
	}
	raws, err := s.client.HMGet(ctx, s.dataKey(lane), seqs...).Result()
	if err != nil {
		return nil, err
	}
	mutations := make([]model.PendingMutation, 0, len(seqs))
	for i, field := range seqs {
		seq, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			continue
		}
		mutations = append(mutations, decodeRecord(lane, seq, raws[i]))
	}
	return mutations, nil
}

func (s *redisStore) Delete(ctx context.Context, lane string, seq uint64) (bool, error) {
	keys := []string{
		s.lanesKey(),
		s.entriesKey(lane),
		s.dataKey(lane),
		s.keysKey(lane),
		s.coalesceKey(lane),
	}
	removed, err := deleteScript.Run(ctx, s.client, keys, lane, strconv.FormatUint(seq, 10)).Int64()
	return removed > 0, err
}

func (s *redisStore) Lanes(ctx context.Context) ([]string, error) {
	lanes, err := s.client.SMembers(ctx, s.lanesKey()).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(lanes)
	return lanes, nil
}

func (s *redisStore) Count(ctx context.Context) (int64, error) {
	lanes, err := s.Lanes(ctx)
	if err != nil || len(lanes) == 0 {
		return 0, err
	}
	cmds := make([]*redis.IntCmd, len(lanes))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, lane := range lanes {
			cmds[i] = pipe.ZCard(ctx, s.entriesKey(lane))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	var total int64
	for _, cmd := range cmds {
		total += cmd.Val()
	}
	return total, nil
}

func (s *redisStore) MoveLane(ctx context.Context, from, to string, rewrite func(string) string) (int, error) {
	moved := 0
	txf := func(tx *redis.Tx) error {
		seqs, err := tx.ZRange(ctx, s.entriesKey(from), 0, -1).Result()
		if err != nil || len(seqs) == 0 {
			return err
		}
		raws, err := tx.HMGet(ctx, s.dataKey(from), seqs...).Result()
		if err != nil {
			return err
		}
		targetKeys, err := tx.HGetAll(ctx, s.coalesceKey(to)).Result()
		if err != nil {
			return err
		}
		last, err := tx.IncrBy(ctx, s.seqKey(to), int64(len(seqs))).Result()
		if err != nil {
			return err
		}
		first := uint64(last) - uint64(len(seqs)) + 1

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for i := range seqs {
				m := decodeRecord(to, first+uint64(i), raws[i])
				record := raws[i]
				if m.IntentType != "" {
					if rewrite != nil {
						m.Payload = rewrite(m.Payload)
					}
					m.SequenceNumber = 0
					b, err := json.Marshal(m)
					if err != nil {
						return err
					}
					record = string(b)
				}
				seq := first + uint64(i)
				if m.CoalesceKey != "" {
					if old, ok := targetKeys[m.CoalesceKey]; ok {
						pipe.ZRem(ctx, s.entriesKey(to), old)
						pipe.HDel(ctx, s.dataKey(to), old)
						pipe.HDel(ctx, s.keysKey(to), old)
					}
					pipe.HSet(ctx, s.coalesceKey(to), m.CoalesceKey, seq)
					pipe.HSet(ctx, s.keysKey(to), seq, m.CoalesceKey)
				}
				pipe.ZAdd(ctx, s.entriesKey(to), redis.Z{Score: float64(seq), Member: seq})
				pipe.HSet(ctx, s.dataKey(to), seq, record)
			}
			pipe.Del(ctx, s.entriesKey(from), s.dataKey(from), s.keysKey(from), s.coalesceKey(from))
			pipe.SAdd(ctx, s.lanesKey(), to)
			pipe.SRem(ctx, s.lanesKey(), from)
			return nil
		})
		if err == nil {
			moved = len(seqs)
		}
		return err
	}
	err := s.client.Watch(ctx, txf, s.entriesKey(from), s.dataKey(from), s.entriesKey(to), s.coalesceKey(to))
	return moved, err
}
