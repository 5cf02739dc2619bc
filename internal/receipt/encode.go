package receipt

import (
	"encoding/json"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/mmeshcher/inventory-orders/internal/model"
)

// DefaultQRSize задаёт сторону изображения QR-кода в пикселях.
const DefaultQRSize = 256

type encodedLine struct {
	ProductID          int64       `json:"productId"`
	ProductQtyOrder    int64       `json:"productQtyOrder"`
	ProductQtyReceived int64       `json:"productQtyReceived"`
	ProductPrice       json.Number `json:"productPrice"`
}

type encodedPayload struct {
	OrderNo          int64         `json:"orderNo"`
	ReceivedProducts []encodedLine `json:"receivedProducts"`
}

// Encode формирует квитанцию о полной поставке заказа в формате, который принимает Decode.
// Полученное количество каждой позиции равно заказанному.
func Encode(o model.Order) ([]byte, error) {
	p := encodedPayload{
		OrderNo:          o.Number,
		ReceivedProducts: make([]encodedLine, 0, len(o.Lines)),
	}
	for _, l := range o.Lines {
		p.ReceivedProducts = append(p.ReceivedProducts, encodedLine{
			ProductID:          l.ProductID,
			ProductQtyOrder:    l.QuantityOrdered,
			ProductQtyReceived: l.QuantityOrdered,
			ProductPrice:       json.Number(l.UnitPrice.String()),
		})
	}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode receipt: %w", err)
	}
	return data, nil
}

// QRCode кодирует квитанцию заказа в PNG-изображение QR-кода со стороной size пикселей.
func QRCode(o model.Order, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}

	data, err := Encode(o)
	if err != nil {
		return nil, err
	}

	png, err := qrcode.Encode(string(data), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}
