// Package redisstore persists cash cards in Redis.
//
// Layout, under a configurable prefix:
//
//	<prefix>:seq            INCR counter for ids
//	<prefix>:card:<id>      hash {amount, owner}
//	<prefix>:owner:<owner>  set of card ids
//
// Scoped updates and deletes run as Lua scripts so the ownership check and the
// write are atomic. Scripts touch several keys, so a single node (or a
// cluster-aware prefix) is assumed.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/cashcard/internal/cashcard"
)

const (
	fieldAmount = "amount"
	fieldOwner  = "owner"
)

var updateScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'owner') == ARGV[1] then
  redis.call('HSET', KEYS[1], 'amount', ARGV[2])
  return 1
end
return 0
`)

var deleteScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'owner') == ARGV[1] then
  redis.call('DEL', KEYS[1])
  redis.call('SREM', KEYS[2], ARGV[2])
  return 1
end
return 0
`)

// Store implements cashcard.Store on a Redis client.
type Store struct {
	client redis.UniversalClient
	prefix string
}

// New returns a Store using prefix as key namespace. An empty prefix becomes
// "cashcard".
func New(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "cashcard"
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) seqKey() string { return s.prefix + ":seq" }

func (s *Store) cardKey(id int64) string {
	return s.prefix + ":card:" + strconv.FormatInt(id, 10)
}

func (s *Store) ownerKey(owner cashcard.Owner) string {
	return s.prefix + ":owner:" + string(owner)
}

func (s *Store) Get(ctx context.Context, owner cashcard.Owner, id int64) (cashcard.CashCard, error) {
	vals, err := s.client.HMGet(ctx, s.cardKey(id), fieldAmount, fieldOwner).Result()
	if err != nil {
		return cashcard.CashCard{}, fmt.Errorf("redisstore: get %d: %w", id, err)
	}
	card, ok, err := decodeCard(id, vals)
	if err != nil {
		return cashcard.CashCard{}, err
	}
	if !ok || !card.OwnedBy(owner) {
		return cashcard.CashCard{}, cashcard.ErrNotFound
	}
	return card, nil
}

func (s *Store) Exists(ctx context.Context, owner cashcard.Owner, id int64) (bool, error) {
	stored, err := s.client.HGet(ctx, s.cardKey(id), fieldOwner).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redisstore: exists %d: %w", id, err)
	}
	return stored == string(owner), nil
}

func (s *Store) List(ctx context.Context, owner cashcard.Owner, page cashcard.PageRequest) ([]cashcard.CashCard, error) {
	members, err := s.client.SMembers(ctx, s.ownerKey(owner)).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: list members: %w", err)
	}

	ids := make([]int64, 0, len(members))
	cmds := make([]*redis.SliceCmd, 0, len(members))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, m := range members {
			id, err := strconv.ParseInt(m, 10, 64)
			if err != nil {
				return fmt.Errorf("redisstore: bad member %q: %w", m, err)
			}
			ids = append(ids, id)
			cmds = append(cmds, pipe.HMGet(ctx, s.cardKey(id), fieldAmount, fieldOwner))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redisstore: list cards: %w", err)
	}

	cards := make([]cashcard.CashCard, 0, len(cmds))
	for i, cmd := range cmds {
		card, ok, err := decodeCard(ids[i], cmd.Val())
		if err != nil {
			return nil, err
		}
		if ok && card.OwnedBy(owner) {
			cards = append(cards, card)
		}
	}

	cashcard.SortCards(cards, page.Orders())
	return cashcard.PageOf(cards, page), nil
}

func (s *Store) Create(ctx context.Context, owner cashcard.Owner, amount decimal.Decimal) (cashcard.CashCard, error) {
	id, err := s.client.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return cashcard.CashCard{}, fmt.Errorf("redisstore: next id: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.cardKey(id), fieldAmount, amount.String(), fieldOwner, string(owner))
		pipe.SAdd(ctx, s.ownerKey(owner), id)
		return nil
	})
	if err != nil {
		return cashcard.CashCard{}, fmt.Errorf("redisstore: create: %w", err)
	}
	return cashcard.CashCard{ID: id, Amount: amount, Owner: string(owner)}, nil
}

func (s *Store) Update(ctx context.Context, owner cashcard.Owner, card cashcard.CashCard) error {
	n, err := updateScript.Run(ctx, s.client, []string{s.cardKey(card.ID)}, string(owner), card.Amount.String()).Int()
	if err != nil {
		return fmt.Errorf("redisstore: update %d: %w", card.ID, err)
	}
	if n == 0 {
		return cashcard.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, owner cashcard.Owner, id int64) error {
	keys := []string{s.cardKey(id), s.ownerKey(owner)}
	n, err := deleteScript.Run(ctx, s.client, keys, string(owner), id).Int()
	if err != nil {
		return fmt.Errorf("redisstore: delete %d: %w", id, err)
	}
	if n == 0 {
		return cashcard.ErrNotFound
	}
	return nil
}

// Seed writes cards with their given ids and moves the id counter past the
// highest one.
func (s *Store) Seed(ctx context.Context, cards ...cashcard.CashCard) error {
	var maxID int64
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, c := range cards {
			pipe.HSet(ctx, s.cardKey(c.ID), fieldAmount, c.Amount.String(), fieldOwner, c.Owner)
			pipe.SAdd(ctx, s.ownerKey(cashcard.Owner(c.Owner)), c.ID)
			maxID = max(maxID, c.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redisstore: seed: %w", err)
	}
	current, err := s.client.Get(ctx, s.seqKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redisstore: seed read seq: %w", err)
	}
	if maxID > current {
		if err := s.client.Set(ctx, s.seqKey(), maxID, 0).Err(); err != nil {
			return fmt.Errorf("redisstore: seed seq: %w", err)
		}
	}
	return nil
}

func decodeCard(id int64, vals []interface{}) (cashcard.CashCard, bool, error) {
	if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		return cashcard.CashCard{}, false, nil
	}
	rawAmount, _ := vals[0].(string)
	owner, _ := vals[1].(string)
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return cashcard.CashCard{}, false, fmt.Errorf("redisstore: card %d amount %q: %w", id, rawAmount, err)
	}
	return cashcard.CashCard{ID: id, Amount: amount, Owner: owner}, true, nil
}

var _ cashcard.Store = (*Store)(nil)
