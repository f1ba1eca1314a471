package service

import "errors"

var (
	// ErrHotelNotFound возвращается, когда отеля нет в каталоге.
	ErrHotelNotFound = errors.New("hotel not found")

	// ErrRoomNotFound возвращается, когда у отеля нет такого номера.
	ErrRoomNotFound = errors.New("room not found")

	// ErrInvalidDates возвращается при некорректном интервале дат.
	ErrInvalidDates = errors.New("invalid check-in/check-out dates")

	// ErrNoAvailability возвращается, когда свободных номеров не хватает.
	ErrNoAvailability = errors.New("not enough rooms available")

	// ErrOverCapacity возвращается, когда гостей больше вместимости.
	ErrOverCapacity = errors.New("guest count exceeds room capacity")

	// ErrItemNotFound возвращается, когда позиции нет в корзине.
	ErrItemNotFound = errors.New("cart item not found")

	// ErrBookingNotFound возвращается, когда бронирование не найдено
	// или принадлежит другому пользователю.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrNotCancellable возвращается при попытке отменить бронирование
	// в терминальном статусе.
	ErrNotCancellable = errors.New("booking cannot be cancelled")
)
