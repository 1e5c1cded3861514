package model

// Kind tells the two subscriber populations apart.
type Kind string

const (
	KindCustomer Kind = "customer"
	KindVoucher  Kind = "voucher"
)

// Subscriber is either a *Customer or a *Voucher. The identifier namespace is
// shared: a customer's username and a voucher's code never collide.
type Subscriber interface {
	Identifier() string
	Kind() Kind
	isSubscriber()
}

func (c *Customer) Identifier() string { return c.Username }
func (c *Customer) Kind() Kind         { return KindCustomer }
func (*Customer) isSubscriber()        {}

func (v *Voucher) Identifier() string { return v.Code }
func (v *Voucher) Kind() Kind         { return KindVoucher }
func (*Voucher) isSubscriber()        {}
