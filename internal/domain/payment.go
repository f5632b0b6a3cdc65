package domain

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentUPIQR          PaymentMethod = "upi_qr"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCashOnDelivery, PaymentUPIQR:
		return true
	default:
		return false
	}
}
