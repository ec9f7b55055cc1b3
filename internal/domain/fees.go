package domain

// FeeDenominator converts parts-per-thousand rates to amounts.
const FeeDenominator int64 = 1000

// FeeConfig is the process-wide fee configuration. Operations capture
// a snapshot at transaction start; later changes do not affect
// in-flight transactions.
type FeeConfig struct {
	BuyerFeePpt  int64 // buyer-side fee, parts-per-thousand, deducted from paid amount
	SellerFeePpt int64 // seller-side fee, parts-per-thousand, deducted from proceeds
	FeeRecipient Identity
}

// BuyerFee returns the buyer-side fee withheld from a paid amount.
func (f FeeConfig) BuyerFee(paid int64) int64 {
	return paid * f.BuyerFeePpt / FeeDenominator
}

// SellerFee returns the seller-side fee on an amount of proceeds.
func (f FeeConfig) SellerFee(amount int64) int64 {
	return amount * f.SellerFeePpt / FeeDenominator
}
