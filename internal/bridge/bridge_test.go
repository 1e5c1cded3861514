package bridge

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/mohit83k/radius-bridge/internal/logger"
	"github.com/mohit83k/radius-bridge/internal/model"
	"github.com/mohit83k/radius-bridge/internal/redisclient"
	"github.com/mohit83k/radius-bridge/internal/reply"
	"github.com/mohit83k/radius-bridge/internal/session"
)

var epoch = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	bridge *Bridge
	store  *redisclient.RedisStore
	mr     *miniredis.Miniredis
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	f := &fixture{
		store: redisclient.NewRedisStoreFromClient(client),
		mr:    mr,
		now:   epoch,
	}
	f.bridge = New(f.store, session.NewRegistry(), logger.Nop())
	f.bridge.SetClock(func() time.Time { return f.now })

	if err := mr.Set("radius:package:home-10", `{"id":"home-10","downloadSpeed":10,"uploadSpeed":2,"serviceType":"pppoe","addressPool":"pppoe-pool"}`); err != nil {
		t.Fatal(err)
	}
	if err := mr.Set("radius:package:hotspot-1h", `{"id":"hotspot-1h","downloadSpeed":5,"uploadSpeed":1,"serviceType":"Hotspot","sessionTimeout":999,"idleTimeout":300}`); err != nil {
		t.Fatal(err)
	}
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) customer(t *testing.T, c *model.Customer) {
	t.Helper()
	if c.PackageID == "" {
		c.PackageID = "home-10"
	}
	if err := f.store.SaveCustomer(context.Background(), c); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) voucher(t *testing.T, v *model.Voucher) {
	t.Helper()
	if v.PackageID == "" {
		v.PackageID = "hotspot-1h"
	}
	if err := f.store.SaveVoucher(context.Background(), v); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) loadCustomer(t *testing.T, username string) *model.Customer {
	t.Helper()
	c, err := f.store.GetCustomer(context.Background(), username)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func (f *fixture) loadVoucher(t *testing.T, code string) *model.Voucher {
	t.Helper()
	v, err := f.store.GetVoucher(context.Background(), code)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func valueOf(m reply.Map, key string) string {
	v, ok := m[key]
	if !ok || len(v.Value) == 0 {
		return ""
	}
	return v.Value[0]
}

func hotspotReq(code string) model.RadiusRequest {
	return model.RadiusRequest{UserName: code, ServiceType: "Login-User", NASPortType: "Wireless-802.11"}
}

func ptr(t time.Time) *time.Time { return &t }

// editingStore simulates the admin application writing a document right
// after the bridge has read it. Each hook fires once.
type editingStore struct {
	*redisclient.RedisStore
	afterGetCustomer func(model.Customer)
	afterGetVoucher  func(model.Voucher)
}

func (s *editingStore) GetCustomer(ctx context.Context, username string) (*model.Customer, error) {
	c, err := s.RedisStore.GetCustomer(ctx, username)
	if err == nil && s.afterGetCustomer != nil {
		hook := s.afterGetCustomer
		s.afterGetCustomer = nil
		hook(*c)
	}
	return c, err
}

func (s *editingStore) GetVoucher(ctx context.Context, code string) (*model.Voucher, error) {
	v, err := s.RedisStore.GetVoucher(ctx, code)
	if err == nil && s.afterGetVoucher != nil {
		hook := s.afterGetVoucher
		s.afterGetVoucher = nil
		hook(*v)
	}
	return v, err
}

// withStore returns a bridge over store sharing the fixture's clock.
func (f *fixture) withStore(store Store) *Bridge {
	b := New(store, session.NewRegistry(), logger.Nop())
	b.SetClock(func() time.Time { return f.now })
	return b
}
