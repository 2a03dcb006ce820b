package extraction

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Rule locates one field in OCR text and converts the captured substring.
// Pattern must have exactly one capture group. Convert returns Absent when
// the substring cannot be typed.
type Rule struct {
	Field   Field
	Pattern *regexp.Regexp
	Convert func(string) Value
}

// Labels must start on a word boundary so that "Subtotal" never reads as "Total".
// Separators after a label are any mix of colons, hashes and whitespace.
var rules = []Rule{
	{
		Field:   FieldDate,
		Pattern: regexp.MustCompile(`(?i)\bdate\b[:\s]*(\d{1,2}[/-]\d{1,2}[/-](?:\d{4}|\d{2}))\b`),
		Convert: toString,
	},
	{
		Field:   FieldTime,
		Pattern: regexp.MustCompile(`(?i)\btime\b[:\s]*(\d{1,2}:\d{2}(?:\s*[ap]m)?)\b`),
		Convert: toString,
	},
	{
		// "Total Sale" and "Amount Due" come first so the alternation consumes the whole label.
		Field:   FieldTotal,
		Pattern: regexp.MustCompile(`(?i)\b(?:total\s+sale|amount\s+due|total)\b[:\s]*[$€£]?\s*(\d+\.\d{2})\b`),
		Convert: toFloat,
	},
	{
		// One optional qualifier word: "Gallons Pumped 12.5", "Gallons (US): 12.5".
		Field:   FieldGallons,
		Pattern: regexp.MustCompile(`(?i)\bgallons\b(?:\s*\(?[a-z]+\)?\.?)?[:\s]*(\d+(?:\.\d+)?|\.\d+)`),
		Convert: toFloat,
	},
	{
		Field:   FieldPricePerGallon,
		Pattern: regexp.MustCompile(`(?i)\bprice(?:\s*(?:per\s*|/\s*)gal(?:lon)?s?\b\.?)?[:\s]*[$€£]?\s*(\d+(?:\.\d+)?|\.\d+)`),
		Convert: toFloat,
	},
	{
		// OCR regularly reads the v as u and the i as l or 1.
		Field:   FieldInvoiceNumber,
		Pattern: regexp.MustCompile(`(?i)\bin[uv]o[il1]ce\b[:#\s]*(?:(?:no|num|number)\b\.?)?[:#\s]*([a-z]*\d[a-z0-9]*)`),
		Convert: toString,
	},
	{
		Field:   FieldAddress,
		Pattern: regexp.MustCompile(`(?i)\baddress\b[:\s]*([\w \t,.\-]*)`),
		Convert: toAddress,
	},
	{
		Field:   FieldOdometer,
		Pattern: regexp.MustCompile(`(?i)\b[o0]dometer\b[:\s]*(\d+)`),
		Convert: toInt,
	},
}

// nextLabelRE finds where a single-line OCR blob moves on to another field
var nextLabelRE = regexp.MustCompile(`(?i)\b(?:date|time|total|amount\s+due|gallons|price|in[uv]o[il1]ce|[o0]dometer|address)\b`)

// postalTailRE keeps an address up to the last 5-digit postal code that follows address words
var postalTailRE = regexp.MustCompile(`(?i)^(.*[a-z].*?\b\d{5})\b`)

func init() {
	if err := validateRules(rules); err != nil {
		panic(err)
	}
}

// validateRules checks the table covers every declared field exactly once
func validateRules(table []Rule) error {
	seen := make(map[Field]bool, len(table))
	for _, rule := range table {
		if _, ok := fieldKinds[rule.Field]; !ok {
			return fmt.Errorf("rule for undeclared field %q", rule.Field)
		}
		if seen[rule.Field] {
			return fmt.Errorf("duplicate rule for field %q", rule.Field)
		}
		seen[rule.Field] = true
		if rule.Pattern == nil || rule.Convert == nil {
			return fmt.Errorf("incomplete rule for field %q", rule.Field)
		}
		if n := rule.Pattern.NumSubexp(); n != 1 {
			return fmt.Errorf("rule for field %q has %d capture groups, want 1", rule.Field, n)
		}
	}
	for _, f := range fieldOrder {
		if !seen[f] {
			return fmt.Errorf("no rule for field %q", f)
		}
	}
	return nil
}

// apply returns the converted first match of the rule in text
func (r Rule) apply(text string) Value {
	m := r.Pattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return Absent()
	}
	return r.Convert(m[1])
}

// Extract runs every rule against the full text. Fields that cannot be
// matched or converted are Absent.
func Extract(text string) Record {
	rec := newRecord()
	for _, rule := range rules {
		rec.values[rule.Field] = rule.apply(text)
	}
	return rec
}

func toString(s string) Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return Absent()
	}
	return StringValue(s)
}

func toFloat(s string) Value {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Absent()
	}
	return FloatValue(f)
}

func toInt(s string) Value {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return Absent()
	}
	return IntValue(n)
}

func toAddress(s string) Value {
	if loc := nextLabelRE.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	if m := postalTailRE.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	return toString(s)
}
