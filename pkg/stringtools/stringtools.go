package stringtools

import "unicode/utf8"

const shortAddressLen = 8

// ShortAddress abbreviates an address for log lines, e.g. "0x33fd42…".
func ShortAddress(addr string) string {
	if utf8.RuneCountInString(addr) <= shortAddressLen {
		return addr
	}
	runes := []rune(addr)
	return string(runes[:shortAddressLen]) + "…"
}
