package display

import "strconv"

// FormatNumber renders a reading with the shortest exact decimal form,
// so 20 prints as "20" and 19.9 as "19.9".
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
