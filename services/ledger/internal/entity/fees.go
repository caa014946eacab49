package entity

import "github.com/shopspring/decimal"

// FeeSplit is the division of a TOA transaction's dollar value between
// the technician and the platform. Payout + PlatformFee always equals the
// original value exactly: the fee is rounded to the cent and the payout is
// defined as the remainder, so rounding never leaks a cent.
type FeeSplit struct {
	TechnicianPayout decimal.Decimal `json:"technician_payout"`
	PlatformFee      decimal.Decimal `json:"platform_fee"`
}

// SplitFee applies the percentage split (85/15 at the default policy).
func (p ConversionPolicy) SplitFee(dollarValue decimal.Decimal) FeeSplit {
	fee := dollarValue.Mul(decimal.NewFromInt(p.PlatformFeePercent)).Div(decimal.NewFromInt(100)).Round(2)
	return FeeSplit{
		TechnicianPayout: dollarValue.Sub(fee),
		PlatformFee:      fee,
	}
}

// SplitSettlement layers the flat processing fee under the percentage
// split: gross payment -> flat processing fee -> remainder split 85/15.
// The platform retains processing fee plus its percentage share, so the
// two parts still sum to the gross exactly. A gross at or below the flat
// fee goes entirely to the platform.
func (p ConversionPolicy) SplitSettlement(gross decimal.Decimal) FeeSplit {
	if gross.LessThanOrEqual(p.ProcessingFee) {
		return FeeSplit{TechnicianPayout: decimal.Zero, PlatformFee: gross}
	}
	split := p.SplitFee(gross.Sub(p.ProcessingFee))
	return FeeSplit{
		TechnicianPayout: split.TechnicianPayout,
		PlatformFee:      gross.Sub(split.TechnicianPayout),
	}
}
