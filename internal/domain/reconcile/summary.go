package reconcile

import (
	"github.com/erp/reconcile/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Summary is the financial snapshot of a reconciled order. All figures
// are derived from the lines and the audit trail at the moment of the
// call; nothing is cached between calls.
type Summary struct {
	OriginalTotal      valueobject.Money
	CurrentNetTotal    valueobject.Money
	TotalReturnedValue valueobject.Money
	TotalReplacedValue valueobject.Money
	DebitMemoTotal     valueobject.Money
	Locked             bool
}

// Summarize computes the financial summary for the order.
// Complimentary lines contribute zero to every total regardless of the
// product's nominal price. For locked orders DebitMemoTotal is the frozen
// amount captured at lock time; before locking it previews the amount a
// lock would capture now.
func (o *Order) Summarize() Summary {
	original := decimal.Zero
	net := decimal.Zero
	for idx := range o.Lines {
		line := &o.Lines[idx]
		price := line.EffectiveUnitPrice()
		if line.IsRoot() {
			original = original.Add(line.OriginalQuantity.Mul(price))
		}
		net = net.Add(line.NetQuantity.Mul(price))
	}

	memo := o.DebitMemoTotal
	if !o.Locked {
		memo = o.TotalReturnedValue()
	}

	return Summary{
		OriginalTotal:      o.money(original),
		CurrentNetTotal:    o.money(net),
		TotalReturnedValue: o.money(o.TotalReturnedValue()),
		TotalReplacedValue: o.money(o.TotalReplacedValue()),
		DebitMemoTotal:     o.money(memo),
		Locked:             o.Locked,
	}
}

func (o *Order) money(amount decimal.Decimal) valueobject.Money {
	m, err := valueobject.NewMoney(amount, o.Currency)
	if err != nil {
		return valueobject.Zero(o.Currency)
	}
	return m
}
