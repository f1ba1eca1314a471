package checkout

import "errors"

var (
	// ErrCartNotFound возвращается, когда у пользователя нет корзины.
	ErrCartNotFound = errors.New("cart not found")

	// ErrCartEmpty возвращается, когда в корзине нет ни одной позиции.
	ErrCartEmpty = errors.New("cart is empty")

	// ErrInvalidSelection возвращается, когда ни один из выбранных id
	// не соответствует позиции корзины.
	ErrInvalidSelection = errors.New("no cart items match the selection")

	// ErrSignatureInvalid возвращается при несовпадении подписи коллбэка.
	// Состояние хранилища при этом не меняется.
	ErrSignatureInvalid = errors.New("payment signature verification failed")

	// ErrPaymentNotFound возвращается, когда платеж не найден или
	// принадлежит другому пользователю.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrBookingNotFound возвращается, когда бронирование не найдено или
	// принадлежит другому пользователю.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrNotRefundable возвращается при попытке вернуть платеж не в
	// статусе completed.
	ErrNotRefundable = errors.New("only completed payments can be refunded")
)
