package subscriber

import (
	"context"
	"errors"
	"testing"

	"github.com/mohit83k/radius-bridge/internal/model"
	"github.com/mohit83k/radius-bridge/internal/redisclient"
)

type mockSource struct {
	customers   map[string]*model.Customer
	vouchers    map[string]*model.Voucher
	customerErr error
	voucherErr  error
}

func (m *mockSource) GetCustomer(_ context.Context, username string) (*model.Customer, error) {
	if m.customerErr != nil {
		return nil, m.customerErr
	}
	if c, ok := m.customers[username]; ok {
		return c, nil
	}
	return nil, redisclient.ErrNotFound
}

func (m *mockSource) GetVoucher(_ context.Context, code string) (*model.Voucher, error) {
	if m.voucherErr != nil {
		return nil, m.voucherErr
	}
	if v, ok := m.vouchers[code]; ok {
		return v, nil
	}
	return nil, redisclient.ErrNotFound
}

func TestResolve(t *testing.T) {
	src := &mockSource{
		customers: map[string]*model.Customer{"alice": {Username: "alice"}},
		vouchers:  map[string]*model.Voucher{"ABC123": {Code: "ABC123"}},
	}
	l := NewLookup(src)
	ctx := context.Background()

	sub, err := l.Resolve(ctx, "alice")
	if err != nil {
		t.Fatalf("expected customer, got error %v", err)
	}
	if _, ok := sub.(*model.Customer); !ok {
		t.Errorf("expected *model.Customer, got %T", sub)
	}

	sub, err = l.Resolve(ctx, "ABC123")
	if err != nil {
		t.Fatalf("expected voucher, got error %v", err)
	}
	if v, ok := sub.(*model.Voucher); !ok || v.Code != "ABC123" {
		t.Errorf("expected voucher ABC123, got %#v", sub)
	}

	if _, err := l.Resolve(ctx, "nobody"); !errors.Is(err, ErrUnknownSubscriber) {
		t.Errorf("expected ErrUnknownSubscriber, got %v", err)
	}
	if _, err := l.Resolve(ctx, ""); !errors.Is(err, ErrUnknownSubscriber) {
		t.Errorf("expected ErrUnknownSubscriber for empty name, got %v", err)
	}
}

func TestResolve_StoreFailure(t *testing.T) {
	l := NewLookup(&mockSource{customerErr: errors.New("redis is down")})

	_, err := l.Resolve(context.Background(), "alice")
	if err == nil || errors.Is(err, ErrUnknownSubscriber) {
		t.Errorf("expected store failure to surface, got %v", err)
	}

	l = NewLookup(&mockSource{voucherErr: errors.New("redis is down")})
	_, err = l.Resolve(context.Background(), "ABC123")
	if err == nil || errors.Is(err, ErrUnknownSubscriber) {
		t.Errorf("expected store failure to surface, got %v", err)
	}
}
