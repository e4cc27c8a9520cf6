package onetime

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

// RedisRecordStore persists one-time records in Redis with a TTL.
// Consume runs under WATCH so the lookup-and-delete is atomic; contention
// is retried a bounded number of times.
type RedisRecordStore struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisRecordStore creates a store using the given key prefix
// (default "aot").
func NewRedisRecordStore(redisClient redis.UniversalClient, prefix string) *RedisRecordStore {
	if prefix == "" {
		prefix = "aot"
	}
	return &RedisRecordStore{
		redis:  redisClient,
		prefix: prefix,
		now:    time.Now,
	}
}

func (s *RedisRecordStore) key(token string) string {
	return s.prefix + ":" + token
}

// Save persists a record under the token key with the given TTL.
func (s *RedisRecordStore) Save(ctx context.Context, token string, record *Record, ttl time.Duration) error {
	encoded, err := encodeRecord(record)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, s.key(token), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Consume atomically reads, checks, and deletes the record for token.
func (s *RedisRecordStore) Consume(ctx context.Context, token string, expected Purpose) (*Record, error) {
	const maxRetries = 4
	key := s.key(token)

	for i := 0; i < maxRetries; i++ {
		var matched *Record

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			record, err := decodeRecord(data)
			if err != nil {
				return err
			}

			deleteIt := func() error {
				_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				return err
			}

			if s.now().Unix() > record.ExpiresAt {
				if err := deleteIt(); err != nil {
					return err
				}
				return ErrInvalid
			}
			if record.Purpose != expected {
				// Purpose mismatch burns the token: a token leaked into the
				// wrong flow must not stay redeemable in the right one.
				if err := deleteIt(); err != nil {
					return err
				}
				return ErrInvalid
			}

			if err := deleteIt(); err != nil {
				return err
			}
			matched = record
			return nil
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, redis.Nil), errors.Is(err, ErrInvalid):
				return nil, ErrInvalid
			default:
				return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
		}

		return matched, nil
	}

	return nil, ErrInvalid
}

func encodeRecord(record *Record) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(recordVersionV1)
	buf.WriteByte(byte(record.Purpose))

	if err := binary.Write(&buf, binary.BigEndian, record.ExpiresAt); err != nil {
		return nil, err
	}

	for _, field := range []string{record.ID, record.AccountID} {
		if len(field) > 65535 {
			return nil, errors.New("one-time record field too long")
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
		return nil, errors.New("invalid one-time record version")
	}

	purpose, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}

	record := &Record{Purpose: Purpose(purpose)}

	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return nil, err
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
