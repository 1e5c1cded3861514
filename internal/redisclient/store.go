package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mohit83k/radius-bridge/internal/model"
	"github.com/redis/go-redis/v9"
)

// Key layout shared with the admin application.
const (
	CustomerKeyPrefix   = "radius:customer:"
	PackageKeyPrefix    = "radius:package:"
	VoucherKeyPrefix    = "radius:voucher:"
	AccountingKeyPrefix = "radius:acct:"

	OnlineCustomersKey = "radius:idx:customers:online"
	InUseVouchersKey   = "radius:idx:vouchers:in_use"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a document kept changing underneath an
// update for maxUpdateAttempts attempts.
var ErrConflict = errors.New("concurrent modification")

const maxUpdateAttempts = 5

// Store defines the subscriber database operations the bridge needs.
type Store interface {
	GetCustomer(ctx context.Context, username string) (*model.Customer, error)
	SaveCustomer(ctx context.Context, customer *model.Customer) error
	UpdateCustomer(ctx context.Context, username string, fn func(*model.Customer) error) error
	GetPackage(ctx context.Context, id string) (*model.Package, error)
	GetVoucher(ctx context.Context, code string) (*model.Voucher, error)
	SaveVoucher(ctx context.Context, voucher *model.Voucher) error
	UpdateVoucher(ctx context.Context, code string, fn func(*model.Voucher) error) error
	GetAccounting(ctx context.Context, username string) (*model.AccountingRecord, error)
	SaveAccounting(ctx context.Context, record model.AccountingRecord) error
	OnlineCustomers(ctx context.Context) ([]string, error)
	InUseVouchers(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

// RedisStore implements the Store interface using go-redis. Every document
// is a JSON string under its own key.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore returns a new RedisStore with auto-reconnect and retry.
func NewRedisStore(addr, password string, db int) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:            addr,
		Password:        password,
		DB:              db,
		MaxRetries:      5,
		MinRetryBackoff: 100 * time.Millisecond,
		MaxRetryBackoff: 1 * time.Second,
	})
	return &RedisStore{client: client}
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Client exposes the underlying client, e.g. for keyspace subscriptions.
func (r *RedisStore) Client() *redis.Client {
	return r.client
}

// Close releases the connection pool.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Ping checks connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStore) GetCustomer(ctx context.Context, username string) (*model.Customer, error) {
	var c model.Customer
	if err := getJSON(ctx, r.client, CustomerKeyPrefix+username, &c); err != nil {
		return nil, fmt.Errorf("customer %q: %w", username, err)
	}
	return &c, nil
}

// SaveCustomer writes the customer and keeps the online index in step, in a
// single transaction.
func (r *RedisStore) SaveCustomer(ctx context.Context, customer *model.Customer) error {
	value, err := json.Marshal(customer)
	if err != nil {
		return fmt.Errorf("failed to marshal customer: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		queueCustomer(ctx, pipe, customer, value)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save customer in redis: %w", err)
	}
	return nil
}

// UpdateCustomer applies fn to the stored customer and writes the result
// back under WATCH. If the document changes in between, fn is rerun on the
// fresh copy. An error from fn aborts without writing.
func (r *RedisStore) UpdateCustomer(ctx context.Context, username string, fn func(*model.Customer) error) error {
	key := CustomerKeyPrefix + username
	err := r.update(ctx, key, func(tx *redis.Tx) error {
		var c model.Customer
		if err := getJSON(ctx, tx, key, &c); err != nil {
			return err
		}
		if err := fn(&c); err != nil {
			return err
		}
		value, err := json.Marshal(&c)
		if err != nil {
			return fmt.Errorf("failed to marshal customer: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			queueCustomer(ctx, pipe, &c, value)
			return nil
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("customer %q: %w", username, err)
	}
	return nil
}

func queueCustomer(ctx context.Context, pipe redis.Pipeliner, customer *model.Customer, value []byte) {
	pipe.Set(ctx, CustomerKeyPrefix+customer.Username, string(value), 0)
	if customer.Online {
		pipe.SAdd(ctx, OnlineCustomersKey, customer.Username)
	} else {
		pipe.SRem(ctx, OnlineCustomersKey, customer.Username)
	}
}

func (r *RedisStore) GetPackage(ctx context.Context, id string) (*model.Package, error) {
	var p model.Package
	if err := getJSON(ctx, r.client, PackageKeyPrefix+id, &p); err != nil {
		return nil, fmt.Errorf("package %q: %w", id, err)
	}
	return &p, nil
}

func (r *RedisStore) GetVoucher(ctx context.Context, code string) (*model.Voucher, error) {
	var v model.Voucher
	if err := getJSON(ctx, r.client, VoucherKeyPrefix+code, &v); err != nil {
		return nil, fmt.Errorf("voucher %q: %w", code, err)
	}
	return &v, nil
}

// SaveVoucher writes the voucher and keeps the in-use index in step.
func (r *RedisStore) SaveVoucher(ctx context.Context, voucher *model.Voucher) error {
	value, err := json.Marshal(voucher)
	if err != nil {
		return fmt.Errorf("failed to marshal voucher: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		queueVoucher(ctx, pipe, voucher, value)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save voucher in redis: %w", err)
	}
	return nil
}

// UpdateVoucher is UpdateCustomer for vouchers.
func (r *RedisStore) UpdateVoucher(ctx context.Context, code string, fn func(*model.Voucher) error) error {
	key := VoucherKeyPrefix + code
	err := r.update(ctx, key, func(tx *redis.Tx) error {
		var v model.Voucher
		if err := getJSON(ctx, tx, key, &v); err != nil {
			return err
		}
		if err := fn(&v); err != nil {
			return err
		}
		value, err := json.Marshal(&v)
		if err != nil {
			return fmt.Errorf("failed to marshal voucher: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			queueVoucher(ctx, pipe, &v, value)
			return nil
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("voucher %q: %w", code, err)
	}
	return nil
}

func queueVoucher(ctx context.Context, pipe redis.Pipeliner, voucher *model.Voucher, value []byte) {
	pipe.Set(ctx, VoucherKeyPrefix+voucher.Code, string(value), 0)
	if voucher.Status == model.VoucherInUse {
		pipe.SAdd(ctx, InUseVouchersKey, voucher.Code)
	} else {
		pipe.SRem(ctx, InUseVouchersKey, voucher.Code)
	}
}

// update runs txf under WATCH key, retrying while the key is modified
// concurrently.
func (r *RedisStore) update(ctx context.Context, key string, txf func(*redis.Tx) error) error {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return ErrConflict
}

func (r *RedisStore) GetAccounting(ctx context.Context, username string) (*model.AccountingRecord, error) {
	var rec model.AccountingRecord
	if err := getJSON(ctx, r.client, AccountingKeyPrefix+username, &rec); err != nil {
		return nil, fmt.Errorf("accounting %q: %w", username, err)
	}
	return &rec, nil
}

// SaveAccounting overwrites the live accounting document for the subscriber.
func (r *RedisStore) SaveAccounting(ctx context.Context, record model.AccountingRecord) error {
	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	err = r.client.Set(ctx, AccountingKeyPrefix+record.Username, string(value), 0).Err()
	if err != nil {
		return fmt.Errorf("failed to save record in redis: %w", err)
	}

	return nil
}

func (r *RedisStore) OnlineCustomers(ctx context.Context) ([]string, error) {
	members, err := r.client.SMembers(ctx, OnlineCustomersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list online customers: %w", err)
	}
	return members, nil
}

func (r *RedisStore) InUseVouchers(ctx context.Context) ([]string, error) {
	members, err := r.client.SMembers(ctx, InUseVouchersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list in-use vouchers: %w", err)
	}
	return members, nil
}

// getter is the part of *redis.Client and *redis.Tx that getJSON needs.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getJSON(ctx context.Context, c getter, key string, dst any) error {
	raw, err := c.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// IsAccountingKey reports whether a keyspace event refers to an accounting
// document under the given prefix.
func IsAccountingKey(key, prefix string) bool {
	return len(key) > len(prefix) && strings.HasPrefix(key, prefix)
}
