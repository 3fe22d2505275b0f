package models

import "strings"

// NormalizePhone turns a transport address such as "whatsapp:+55 (11) 98765-4321"
// into the identity key "+5511987654321".
func NormalizePhone(address string) string {
	address = strings.TrimSpace(address)
	if i := strings.LastIndex(address, ":"); i >= 0 {
		address = address[i+1:]
	}

	var b strings.Builder
	for i, r := range address {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
