package pricing

import (
	"math"

	"printshop/internal/models"
)

// Тарифы за грамм по типу пластика, фунты стерлингов.
var materialRates = map[string]float64{
	"pla":  0.015,
	"pbse": 0.03,
	"abs":  0.05,
}

// fallbackRate применяется для неизвестного типа пластика: исторически заказ
// с опечаткой в материале получал ставку abs вместо отказа. Поведение
// сохранено намеренно, константа вынесена на границу таблицы.
const fallbackRate = 0.05

// Надбавки за способ доставки.
var deliverySurcharges = map[string]float64{
	"standard": 0,
	"fast":     2,
	"express":  3.5,
}

// Надбавки за зону доставки.
var shippingSurcharges = map[string]float64{
	"Barrow":    0,
	"Roose":     1.5,
	"Askam":     4,
	"Dalton":    4.6,
	"Ulverston": 6,
}

// MaterialRate возвращает ставку за грамм; для неизвестного материала
// действует fallbackRate.
func MaterialRate(material string) float64 {
	if rate, ok := materialRates[material]; ok {
		return rate
	}
	return fallbackRate
}

// KnownMaterial сообщает, есть ли материал в таблице тарифов.
func KnownMaterial(material string) bool {
	_, ok := materialRates[material]
	return ok
}

// DeliverySurcharge возвращает надбавку за способ доставки, 0 для неизвестного.
func DeliverySurcharge(method string) float64 {
	return deliverySurcharges[method]
}

// KnownDeliveryMethod сообщает, есть ли способ доставки в таблице.
func KnownDeliveryMethod(method string) bool {
	_, ok := deliverySurcharges[method]
	return ok
}

// ShippingSurcharge возвращает надбавку за зону, 0 для неизвестной.
func ShippingSurcharge(location string) float64 {
	return shippingSurcharges[location]
}

// KnownShippingLocation сообщает, есть ли зона в таблице.
func KnownShippingLocation(location string) bool {
	_, ok := shippingSurcharges[location]
	return ok
}

// ComputeBaseCost считает стоимость заказа до скидки.
//
// Самовывоз исключает надбавки за доставку и зону; режим "оператор сам
// определит вес" исключает весовую составляющую. Оба флага одновременно
// дают нулевую стоимость.
func ComputeBaseCost(material string, weightGrams int, deliveryMethod string, fulfillment models.FulfillmentMode, shippingLocation string, delegateSizing bool) float64 {
	if weightGrams < 0 {
		weightGrams = 0
	}

	collection := fulfillment == models.FulfillmentCollection

	switch {
	case delegateSizing && collection:
		return 0
	case collection:
		return float64(weightGrams) * MaterialRate(material)
	case delegateSizing:
		return DeliverySurcharge(deliveryMethod) + ShippingSurcharge(shippingLocation)
	default:
		return float64(weightGrams)*MaterialRate(material) +
			DeliverySurcharge(deliveryMethod) + ShippingSurcharge(shippingLocation)
	}
}

// ApplyDiscount применяет скидку к базовой стоимости.
// Возвращает размер скидки и итог, ограниченный снизу нулём.
func ApplyDiscount(baseCost float64, code *models.DiscountCode) (discountApplied, finalAmount float64) {
	if code == nil {
		return 0, Round2(baseCost)
	}

	switch code.DiscountType {
	case models.DiscountTypePercent:
		discountApplied = Round2(baseCost * code.DiscountValue / 100)
	case models.DiscountTypeFixed:
		discountApplied = Round2(code.DiscountValue)
	default:
		discountApplied = 0
	}

	finalAmount = Round2(math.Max(0, baseCost-discountApplied))
	return discountApplied, finalAmount
}

// Round2 округляет до 2 знаков (половина — от нуля). Единственное правило
// округления: и предварительный расчет, и оформление заказа используют его.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
