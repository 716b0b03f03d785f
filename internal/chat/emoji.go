package chat

import "strconv"

const keycapSuffix = "️⃣"

const keycapTen = "\U0001F51F"

// KeycapEmoji returns the keycap emoji for n in [1, 10], or an empty
// string outside that range.
func KeycapEmoji(n int) string {
	switch {
	case n >= 1 && n <= 9:
		return strconv.Itoa(n) + keycapSuffix
	case n == 10:
		return keycapTen
	default:
		return ""
	}
}

// KeycapToInt returns the number a keycap emoji stands for, or zero
// when the emoji is not a keycap.
func KeycapToInt(emoji string) int {
	if emoji == keycapTen {
		return 10
	}
	for n := 1; n <= 9; n++ {
		if emoji == strconv.Itoa(n)+keycapSuffix {
			return n
		}
	}
	return 0
}
