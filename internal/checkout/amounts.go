package checkout

import (
	"math"

	"stayhub/internal/models"
)

// DeclaredTotals — блок сумм, присланный клиентом вместе с запросом
// на оформление. TotalAmount уже включает налог.
type DeclaredTotals struct {
	TotalAmount float64
	Subtotal    float64
	Taxes       float64
	Discount    float64
}

// Amounts — результат расчета сумм по выбранным позициям корзины.
// FinalTotal — итог с налогом, ровно та сумма, которую спишет шлюз.
// Multiplier распределяет налог по позициям пропорционально их цене.
type Amounts struct {
	FinalTotal    float64
	ItemsSubtotal float64
	Multiplier    float64
}

// CalculateAmounts вычисляет итоговую сумму и множитель распределения.
// Ненулевой declared.TotalAmount доверяется как окончательный итог с
// налогом; иначе к сумме позиций применяется ставка GST. Функция чистая.
func CalculateAmounts(items []models.CartItem, declared DeclaredTotals) Amounts {
	var subtotal float64
	for _, item := range items {
		subtotal += item.TotalPrice
	}

	var final float64
	if declared.TotalAmount > 0 {
		final = declared.TotalAmount
	} else {
		final = Round2(subtotal * (1 + models.GSTRate))
	}

	// Деление на ноль невозможно: при нулевом субтотале множитель
	// фиксируется на ставке налога.
	multiplier := 1 + models.GSTRate
	if subtotal > 0 {
		multiplier = final / subtotal
	}

	return Amounts{
		FinalTotal:    final,
		ItemsSubtotal: subtotal,
		Multiplier:    multiplier,
	}
}

// ItemShare возвращает налоговключенную долю позиции, округленную до
// двух знаков. Сумма долей может отличаться от FinalTotal не более чем
// на одну минорную единицу на позицию; итог по заказу всегда FinalTotal.
func (a Amounts) ItemShare(item models.CartItem) float64 {
	return Round2(item.TotalPrice * a.Multiplier)
}

// Round2 округляет до двух знаков, половина — от нуля.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ToMinorUnits переводит сумму в минорные единицы валюты (пайсы для INR).
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromMinorUnits переводит минорные единицы обратно в основную валюту.
func FromMinorUnits(minor int64) float64 {
	return float64(minor) / 100
}
