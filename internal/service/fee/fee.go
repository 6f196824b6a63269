package fee

import (
	"github.com/shopspring/decimal"

	"github.com/kiplagat/pesaledger/internal/apperrors"
	"github.com/kiplagat/pesaledger/internal/models"
)

// Policy computes the platform fee for a movement. Pure and deterministic:
// same type and gross amount always produce the same fee.
//
// Split types (p2p, purchase, bill_payment) pay a flat percentage of the
// gross amount. Platform-directed types (subscription, publication) carry no
// fee: the full gross is credited to the counterparty, which for those flows
// is the platform wallet itself.
type Policy struct {
	rate decimal.Decimal
}

// Default charges the flat 1% used by every existing flow
var Default = NewPolicy(decimal.New(1, -2))

func NewPolicy(rate decimal.Decimal) *Policy {
	return &Policy{rate: rate}
}

// FromBasisPoints builds a policy from a fee expressed in basis points,
// e.g. 100 -> 1%
func FromBasisPoints(bps int64) *Policy {
	return NewPolicy(decimal.New(bps, -4))
}

func (p *Policy) Compute(txType string, gross decimal.Decimal) (decimal.Decimal, error) {
	switch txType {
	case models.TypeP2P, models.TypePurchase, models.TypeBillPayment:
		return gross.Mul(p.rate).Round(2), nil
	case models.TypeSubscription, models.TypePublication:
		return decimal.Zero, nil
	default:
		return decimal.Zero, apperrors.ErrUnsupportedType
	}
}
