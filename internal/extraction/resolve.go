package extraction

import "math"

// Resolve fills Price_per_Gallon from Total / Gallons, rounded to 3 decimal
// places, when it was not printed legibly. Zero gallons, or a quotient too
// large to represent, leave it Absent.
// All other fields pass through unchanged.
func Resolve(r Record) Record {
	if r.Get(FieldPricePerGallon).Present() {
		return r
	}
	total, ok := r.Get(FieldTotal).AsFloat()
	if !ok {
		return r
	}
	gallons, ok := r.Get(FieldGallons).AsFloat()
	if !ok || gallons <= 0 {
		return r
	}
	price := total / gallons
	if math.IsInf(price, 0) || math.IsNaN(price) {
		return r
	}
	return r.with(FieldPricePerGallon, FloatValue(roundTo(price, 3)), true)
}

// ExtractAndResolve is the full pipeline from OCR text to a finished record
func ExtractAndResolve(text string) Record {
	return Resolve(Extract(text))
}

// roundTo rounds f to the given decimal places. Values too large to scale
// are already integral and come back unchanged.
func roundTo(f float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	scaled := f * scale
	if math.IsInf(scaled, 0) || math.IsNaN(scaled) {
		return f
	}
	return math.Round(scaled) / scale
}
