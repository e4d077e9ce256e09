package valueobject

import "strings"

var (
	onesWords = [...]string{
		"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
		"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
		"Seventeen", "Eighteen", "Nineteen",
	}
	tensWords = [...]string{
		"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
	}
)

const (
	thousand = 1_000
	lakh     = 1_00_000
	crore    = 1_00_00_000
)

// NumberToWords spells n using the Indian numbering scale (Thousand, Lakh,
// Crore). Amounts of a hundred crore and above repeat the crore grouping,
// e.g. 1,00,00,00,000 is "One Hundred Crore".
//
//	NumberToWords(123456) == "One Lakh Twenty Three Thousand Four Hundred Fifty Six"
func NumberToWords(n int64) string {
	if n == 0 {
		return "Zero"
	}
	if n < 0 {
		// uint64 conversion keeps MinInt64 representable
		return "Minus " + strings.Join(indianGroups(uint64(-(n+1))+1), " ")
	}
	return strings.Join(indianGroups(uint64(n)), " ")
}

func indianGroups(n uint64) []string {
	var parts []string
	if n >= crore {
		parts = append(parts, indianGroups(n/crore)...)
		parts = append(parts, "Crore")
		n %= crore
	}
	if n >= lakh {
		parts = append(parts, belowHundred(n/lakh), "Lakh")
		n %= lakh
	}
	if n >= thousand {
		parts = append(parts, belowHundred(n/thousand), "Thousand")
		n %= thousand
	}
	if n >= 100 {
		parts = append(parts, onesWords[n/100], "Hundred")
		n %= 100
	}
	if n > 0 {
		parts = append(parts, belowHundred(n))
	}
	return parts
}

// belowHundred spells 1..99
func belowHundred(n uint64) string {
	if n < 20 {
		return onesWords[n]
	}
	if n%10 == 0 {
		return tensWords[n/10]
	}
	return tensWords[n/10] + " " + onesWords[n%10]
}

// AmountInWords renders an amount for a receipt, e.g.
// "One Thousand Two Hundred Rupees and Fifty Paise Only".
func AmountInWords(m Money) string {
	units, minor := m.SplitUnits()

	var b strings.Builder
	if m.IsNegative() {
		b.WriteString("Minus ")
	}
	b.WriteString(NumberToWords(units))
	b.WriteString(" Rupees")
	if minor > 0 {
		b.WriteString(" and ")
		b.WriteString(NumberToWords(minor))
		b.WriteString(" Paise")
	}
	b.WriteString(" Only")
	return b.String()
}
