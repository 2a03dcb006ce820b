package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field names a receipt attribute. The string is also its JSON key.
type Field string

const (
	FieldDate           Field = "Date"
	FieldTime           Field = "Time"
	FieldTotal          Field = "Total"
	FieldGallons        Field = "Gallons"
	FieldPricePerGallon Field = "Price_per_Gallon"
	FieldInvoiceNumber  Field = "Invoice_Number"
	FieldAddress        Field = "Address"
	FieldOdometer       Field = "Odometer"
)

// fieldOrder is the declared display order
var fieldOrder = []Field{
	FieldDate,
	FieldTime,
	FieldTotal,
	FieldGallons,
	FieldPricePerGallon,
	FieldInvoiceNumber,
	FieldAddress,
	FieldOdometer,
}

var fieldKinds = map[Field]Kind{
	FieldDate:           KindString,
	FieldTime:           KindString,
	FieldTotal:          KindFloat,
	FieldGallons:        KindFloat,
	FieldPricePerGallon: KindFloat,
	FieldInvoiceNumber:  KindString,
	FieldAddress:        KindString,
	FieldOdometer:       KindInt,
}

// Fields returns every declared field in display order
func Fields() []Field {
	out := make([]Field, len(fieldOrder))
	copy(out, fieldOrder)
	return out
}

// KindOf returns the declared type of a field, or 0 for an unknown field
func (f Field) KindOf() Kind {
	return fieldKinds[f]
}

// Record holds one value per declared field. Records are never modified in
// place; Resolve returns a new Record.
type Record struct {
	values  map[Field]Value
	derived map[Field]bool
}

func newRecord() Record {
	values := make(map[Field]Value, len(fieldOrder))
	for _, f := range fieldOrder {
		values[f] = Absent()
	}
	return Record{values: values}
}

// Get returns the value for a field. Unknown fields are Absent.
func (r Record) Get(f Field) Value {
	return r.values[f]
}

// Derived reports whether the field was computed from other fields
func (r Record) Derived(f Field) bool {
	return r.derived[f]
}

// DerivedFields returns the derived fields in display order
func (r Record) DerivedFields() []Field {
	var out []Field
	for _, f := range fieldOrder {
		if r.derived[f] {
			out = append(out, f)
		}
	}
	return out
}

// Present counts the fields holding a value
func (r Record) Present() int {
	count := 0
	for _, f := range fieldOrder {
		if r.values[f].Present() {
			count++
		}
	}
	return count
}

// Missing returns the Absent fields in display order
func (r Record) Missing() []Field {
	var out []Field
	for _, f := range fieldOrder {
		if !r.values[f].Present() {
			out = append(out, f)
		}
	}
	return out
}

// with returns a copy of r with f set to v
func (r Record) with(f Field, v Value, derived bool) Record {
	values := make(map[Field]Value, len(fieldOrder))
	for _, name := range fieldOrder {
		values[name] = r.values[name]
	}
	values[f] = v

	var marks map[Field]bool
	if derived || len(r.derived) > 0 {
		marks = make(map[Field]bool, len(r.derived)+1)
		for name, ok := range r.derived {
			marks[name] = ok
		}
		if derived {
			marks[f] = true
		} else {
			delete(marks, f)
		}
	}
	return Record{values: values, derived: marks}
}

// MarshalJSON writes every declared field in display order, Absent as null
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fieldOrder {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(f))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := r.values[f].MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("marshaling %s: %w", f, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the shape written by MarshalJSON, typing each value by
// its field's declared kind. Unknown keys are ignored.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshaling record: %w", err)
	}

	rec := newRecord()
	for _, f := range fieldOrder {
		v, err := decodeValue(fieldKinds[f], raw[string(f)])
		if err != nil {
			return fmt.Errorf("unmarshaling %s: %w", f, err)
		}
		rec.values[f] = v
	}
	*r = rec
	return nil
}
