package wizard

import (
	"encoding/base64"
	"fmt"

	"github.com/skip2/go-qrcode"
)

const qrSize = 200

// Total is the sum of fee times team size over the selected events.
func (f *Form) Total() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.total()
}

func (f *Form) total() int {
	total := 0
	for _, e := range f.agg.Events {
		if event, ok := f.catalogue.Lookup(e.Slug); ok {
			total += event.Fee() * e.TeamSize
		}
	}
	return total
}

func (f *Form) UPIURI() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return UPIURI(f.payee, f.total())
}

// PaymentQR returns a PNG data URL encoding the UPI URI for the current
// total, or "" when nothing is payable. The image is cached per total.
func (f *Form) PaymentQR() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	total := f.total()
	if f.qr != nil && f.qr.total == total {
		return f.qr.dataURL, nil
	}

	dataURL, err := PaymentQR(f.payee, total)
	if err != nil {
		return "", err
	}
	f.qr = &qrMemo{total: total, dataURL: dataURL}

	return dataURL, nil
}

func UPIURI(payee string, total int) string {
	return fmt.Sprintf("upi://pay?pa=%s&am=%.2f", payee, float64(total))
}

func PaymentQR(payee string, total int) (string, error) {
	if total <= 0 {
		return "", nil
	}

	png, err := qrcode.Encode(UPIURI(payee, total), qrcode.Medium, qrSize)
	if err != nil {
		return "", fmt.Errorf("qrcode.Encode -> %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
