package model

import (
	"errors"
	"fmt"
)

// ErrFetch возвращается, если внешний источник каталога недоступен или вернул некорректные данные.
var (
	ErrFetch = errors.New("catalog fetch failed")
	// ErrInvalidSupplier возвращается, если поставщик отсутствует в каталоге.
	ErrInvalidSupplier = errors.New("invalid supplier")
	// ErrInvalidSelection возвращается при выборе неизвестного товара или неположительного количества.
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrEmptySelection возвращается, если не выбран ни один товар.
	ErrEmptySelection = errors.New("empty selection")
	// ErrSubmission возвращается при сбое хранилища заказов.
	ErrSubmission = errors.New("order store submission failed")
	// ErrSubmissionInFlight возвращается, если предыдущая отправка заказа этой сессии ещё не завершена.
	ErrSubmissionInFlight = errors.New("order submission already in flight")
	// ErrOrderNotFound возвращается, если заказ не найден.
	ErrOrderNotFound = errors.New("order not found")
	// ErrAlreadyReceived возвращается при повторной приёмке заказа.
	ErrAlreadyReceived = errors.New("order already received")
	// ErrLineMismatch возвращается, если товар из квитанции отсутствует в заказе.
	ErrLineMismatch = errors.New("receipt line does not match order")
	// ErrInvalidQuantity возвращается при отрицательном полученном количестве.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrMalformedPayload возвращается, если в квитанции нет обязательных полей или они не числовые.
	ErrMalformedPayload = errors.New("malformed receipt payload")
	// ErrDecode возвращается, если квитанцию не удалось разобрать.
	ErrDecode = errors.New("receipt decode failed")
	// ErrProductNotFound возвращается, если товар не найден в хранилище.
	ErrProductNotFound = errors.New("product not found")
	// ErrSupplierNotFound возвращается, если поставщик не найден в хранилище.
	ErrSupplierNotFound = errors.New("supplier not found")
	// ErrBankAccountNotFound возвращается, если у заказчика нет указанного счёта.
	ErrBankAccountNotFound = errors.New("bank account not found")
	// ErrInvalidBankAccount возвращается при пустом названии банка или номере счёта и отрицательном остатке.
	ErrInvalidBankAccount = errors.New("invalid bank account")
	// ErrOrderNotReceived возвращается при попытке оплатить ещё не принятый заказ.
	ErrOrderNotReceived = errors.New("order not received")
	// ErrAlreadyPaid возвращается при повторной оплате заказа.
	ErrAlreadyPaid = errors.New("order already paid")
	// ErrInsufficientFunds возвращается, если на счёте меньше суммы заказа.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// SelectionError указывает товар, из-за которого выбор признан некорректным.
type SelectionError struct {
	ProductID int64
	Reason    string
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("%s: product %d: %s", ErrInvalidSelection, e.ProductID, e.Reason)
}

func (e *SelectionError) Unwrap() error {
	return ErrInvalidSelection
}
