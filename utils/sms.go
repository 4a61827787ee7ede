package utils

// MaxSMSLength is the single-segment GSM limit; longer bodies are split and
// sent as a multipart message.
const MaxSMSLength = 160

// multipartReserve is the room left for the "(i/n) " counter the sender
// prepends to each part of a multipart message, sized for "(99/99) ".
const multipartReserve = 8

// SplitSMS divides a message into segments, preferring to break on
// whitespace so words stay intact. A body that fits in one SMS comes back
// whole; longer bodies are cut short enough that each part still fits in a
// single SMS after the part counter is prepended.
func SplitSMS(body string) []string {
	runes := []rune(body)
	if len(runes) <= MaxSMSLength {
		return []string{body}
	}

	limit := MaxSMSLength - multipartReserve

	var parts []string
	for len(runes) > 0 {
		if len(runes) <= limit {
			parts = append(parts, string(runes))
			break
		}

		cut := limit
		// Walk back to the last space inside the segment, if any is
		// reasonably close to the limit.
		for i := limit - 1; i > limit-40 && i > 0; i-- {
			if runes[i] == ' ' {
				cut = i
				break
			}
		}

		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
		// Drop the leading space consumed by the break.
		if len(runes) > 0 && runes[0] == ' ' {
			runes = runes[1:]
		}
	}
	return parts
}
