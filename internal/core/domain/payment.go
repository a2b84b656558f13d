package domain

import "fmt"

// Charge is an opened instant-payment session. The QR image is base64 PNG
// as returned by the processor.
type Charge struct {
	QRText        string
	QRImageBase64 string
}

// PaymentError is a failure reported by the payment processor. It is never
// fatal to an already-committed sale; the user retries payment only.
type PaymentError struct {
	Status  int
	Message string
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment: processor returned %d: %s", e.Status, e.Message)
}
