// Package receipt разбирает квитанцию о приёмке заказа, полученную из QR-кода или введённую вручную.
package receipt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/inventory-orders/internal/model"
	"github.com/mmeshcher/inventory-orders/internal/validation"
)

type payload struct {
	OrderNo          *int64 `mapstructure:"orderNo" validate:"required"`
	ReceivedProducts []line `mapstructure:"receivedProducts" validate:"required,min=1,dive"`
}

type line struct {
	ProductID          *int64          `mapstructure:"productId" validate:"required"`
	ProductQtyOrder    int64           `mapstructure:"productQtyOrder"`
	ProductQtyReceived *int64          `mapstructure:"productQtyReceived" validate:"required"`
	ProductPrice       decimal.Decimal `mapstructure:"productPrice"`
}

var (
	decimalType = reflect.TypeOf(decimal.Decimal{})
	validate    = newValidator()
)

func newValidator() *validator.Validate {
	v := validation.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("mapstructure")
	})
	return v
}

// Decode разбирает квитанцию вида
// {"orderNo": 3, "receivedProducts": [{"productId": 1, "productQtyOrder": 60, "productQtyReceived": 60, "productPrice": 10}]}.
//
// Возвращает model.ErrDecode, если данные не являются JSON-объектом, и
// model.ErrMalformedPayload, если обязательные поля отсутствуют или не числовые.
func Decode(data []byte) (model.Receipt, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return model.Receipt{}, fmt.Errorf("%w: %w", model.ErrDecode, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return model.Receipt{}, fmt.Errorf("%w: trailing data after payload", model.ErrDecode)
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return model.Receipt{}, fmt.Errorf("%w: payload is not an object", model.ErrDecode)
	}

	var p payload
	md, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: decimalHook,
		Result:     &p,
	})
	if err != nil {
		return model.Receipt{}, fmt.Errorf("create decoder: %w", err)
	}
	if err := md.Decode(obj); err != nil {
		return model.Receipt{}, fmt.Errorf("%w: %w", model.ErrMalformedPayload, err)
	}

	if err := validate.Struct(p); err != nil {
		return model.Receipt{}, fmt.Errorf("%w: %s", model.ErrMalformedPayload, describe(err))
	}

	r := model.Receipt{
		OrderNumber: *p.OrderNo,
		Lines:       make([]model.ReceivedLine, 0, len(p.ReceivedProducts)),
	}
	for _, l := range p.ReceivedProducts {
		r.Lines = append(r.Lines, model.ReceivedLine{
			ProductID:        *l.ProductID,
			QuantityOrdered:  l.ProductQtyOrder,
			QuantityReceived: *l.ProductQtyReceived,
			UnitPrice:        l.ProductPrice,
		})
	}

	return r, nil
}

func decimalHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != decimalType {
		return data, nil
	}

	switch v := data.(type) {
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return nil, fmt.Errorf("parse decimal %q: %w", v.String(), err)
		}
		return d, nil
	case decimal.Decimal:
		return v, nil
	default:
		return nil, fmt.Errorf("expected number, got %T", data)
	}
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		// payload.receivedProducts[0].productId -> receivedProducts[0].productId
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}
