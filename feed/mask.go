package feed

import (
	"fmt"
	"math/rand"
	"strings"
)

// GuestName is the final display-name fallback when no identity at all
// can be derived from a spin event.
const GuestName = "Guest"

// MaskPhone renders a phone number as "+7 771 *** 3738": country code,
// operator prefix, masked middle, last four digits. Numbers too short to
// mask meaningfully are hidden entirely.
func MaskPhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) < 10 {
		return RandomMaskedPhone()
	}
	// normalize 10-digit local numbers to the 7-prefixed form
	if len(d) == 10 {
		d = "7" + d
	}
	return fmt.Sprintf("+%s %s *** %s", d[:len(d)-10], d[len(d)-10:len(d)-7], d[len(d)-4:])
}

// RandomMaskedPhone fabricates a masked phone placeholder for fully
// anonymous winners, indistinguishable in shape from a real masked number.
func RandomMaskedPhone() string {
	return fmt.Sprintf("+7 7%02d *** %04d", rand.Intn(100), rand.Intn(10000))
}
