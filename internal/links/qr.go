package links

import (
	"strings"

	"github.com/mrlokans/shortlinks/internal/entities"
)

const (
	qrSlot1 = "1"
	qrSlot2 = "2"
)

// QRCode is one configured image shown on the info page.
type QRCode struct {
	Slot string `json:"slot"`
	Data string `json:"data"`
}

// OrderedQRCodes returns the configured QR images of m in display order.
// Unset slots are skipped. Without a valid qrOrder slot 1 comes first.
func OrderedQRCodes(m *entities.Mapping) []QRCode {
	bySlot := map[string]*string{
		qrSlot1: m.QRCodeData1,
		qrSlot2: m.QRCodeData2,
	}

	order := []string{qrSlot1, qrSlot2}
	if m.QROrder != nil {
		if parts := strings.Split(*m.QROrder, ","); len(parts) == 2 && parts[0] == qrSlot2 && parts[1] == qrSlot1 {
			order = []string{qrSlot2, qrSlot1}
		}
	}

	codes := make([]QRCode, 0, len(order))
	for _, slot := range order {
		data := bySlot[slot]
		if data == nil || *data == "" {
			continue
		}
		codes = append(codes, QRCode{Slot: slot, Data: *data})
	}
	return codes
}
