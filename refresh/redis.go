package refresh

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const recordVersionV1 = 1

// RedisRecordStore persists refresh records in Redis, keyed by token
// identifier, expiring with the token's own lifetime. Revoke rewrites the
// record under WATCH so concurrent revokes cannot resurrect a revoked flag.
type RedisRecordStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisRecordStore creates a store using the given key prefix
// (default "art").
func NewRedisRecordStore(redisClient redis.UniversalClient, prefix string) *RedisRecordStore {
	if prefix == "" {
		prefix = "art"
	}
	return &RedisRecordStore{redis: redisClient, prefix: prefix}
}

func (s *RedisRecordStore) key(id string) string {
	return s.prefix + ":" + id
}

// Save persists record under its identifier with the given TTL.
func (s *RedisRecordStore) Save(ctx context.Context, record *Record, ttl time.Duration) error {
	encoded, err := encodeRecord(record)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(record.ID), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Get returns the record for id, or [ErrNotFound].
func (s *RedisRecordStore) Get(ctx context.Context, id string) (*Record, error) {
	data, err := s.redis.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	record, err := decodeRecord(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return record, nil
}

// Revoke marks the record for id as revoked. Already-revoked records are
// left untouched and the call succeeds.
func (s *RedisRecordStore) Revoke(ctx context.Context, id string) error {
	const maxRetries = 4
	key := s.key(id)

	for i := 0; i < maxRetries; i++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			record, err := decodeRecord(data)
			if err != nil {
				return err
			}
			if record.Revoked {
				return nil
			}

			record.Revoked = true
			encoded, err := encodeRecord(record)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, redis.KeepTTL)
				return nil
			})
			return err
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil
	}

	return fmt.Errorf("%w: revoke retries exhausted", ErrUnavailable)
}

func encodeRecord(record *Record) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(recordVersionV1)
	if record.Revoked {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}

	for _, stamp := range []int64{record.IssuedAt, record.ExpiresAt} {
		if err := binary.Write(&buf, binary.BigEndian, stamp); err != nil {
			return nil, err
		}
	}

	for _, field := range []string{record.ID, record.AccountID} {
		if len(field) > 65535 {
			return nil, errors.New("refresh record field too long")
		}
		if err := binary.Write(&buf, binary.BigEndian, uint16(len(field))); err != nil {
			return nil, err
		}
		buf.WriteString(field)
	}

	return buf.Bytes(), nil
}

func decodeRecord(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != recordVersionV1 {
		return nil, errors.New("invalid refresh record version")
	}

	revoked, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}

	record := &Record{Revoked: revoked == 1}

	for _, stamp := range []*int64{&record.IssuedAt, &record.ExpiresAt} {
		if err := binary.Read(reader, binary.BigEndian, stamp); err != nil {
			return nil, err
		}
	}

	for _, field := range []*string{&record.ID, &record.AccountID} {
		var length uint16
		if err := binary.Read(reader, binary.BigEndian, &length); err != nil {
			return nil, err
		}
		raw := make([]byte, length)
		if _, err := io.ReadFull(reader, raw); err != nil {
			return nil, err
		}
		*field = string(raw)
	}

	return record, nil
}
