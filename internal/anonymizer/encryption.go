package anonymizer

import (
	"strings"
)

// Polyalphabetic substitution cipher (Vigenere style). Reversible strategies
// use it so anonymized values keep the shape of the original.

const (
	numbersWithoutZero = "123456789"
	numbers            = "1234567890"
	lettersOnly        = "abcdefghijklmnopqrstuvwxyz"
	lettersUpper       = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lettersAll         = lettersOnly + lettersUpper

	// allChars is printable ASCII in code point order.
	allChars = ` !"#$%&'()*+,-./0123456789:;<=>?@ABCDEFGHIJKLMNOPQRSTUVWXYZ[\]^_` + "`" + `abcdefghijklmnopqrstuvwxyz{|}~`
	// jsonSafeChars avoids quotes and backslash so translated strings stay
	// valid inside JSON documents.
	jsonSafeChars = " !#$%&()*+,-./0123456789:;<=>?@ABCDEFGHIJKLMNOPQRSTUVWXYZ[]^_`abcdefghijklmnopqrstuvwxyz{|}~"

	// Email local part restricted to chars every mail provider accepts
	// (RFC5322 allows more, some providers do not).
	restrictedEmailLocalChars = lettersOnly + numbers + "_-"
	domainChars               = lettersOnly + numbers // RFC952 + RFC1123
)

// translateText shifts every character of text that occurs in alphabet by
// the corresponding key character, wrapping around the alphabet. Characters
// outside the alphabet pass through without consuming key material, so
// separators and punctuation survive in place.
func translateText(key, text string, encrypt bool, alphabet string) string {
	var b strings.Builder
	b.Grow(len(text))
	keyRunes := []rune(key)
	ki := 0
	for _, ch := range text {
		idx := strings.IndexRune(alphabet, ch)
		if idx < 0 {
			b.WriteRune(ch)
			continue
		}
		shift := strings.IndexRune(alphabet, keyRunes[ki])
		if !encrypt {
			shift = -shift
		}
		n := len(alphabet)
		idx = ((idx+shift)%n + n) % n
		b.WriteByte(alphabet[idx])
		ki++
		if ki == len(keyRunes) {
			ki = 0
		}
	}
	return b.String()
}

func encryptText(key, text string) string { return translateText(key, text, true, allChars) }
func decryptText(key, text string) string { return translateText(key, text, false, allChars) }

// translateEmail translates the local part and domain while preserving the
// TLD (kept clear for statistical purposes) and overall address validity.
// The input is expected to be a well-formed address; anything without an "@"
// or a dotted domain is translated as plain text.
func translateEmail(key, email string, encrypt bool) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return translateText(key, email, encrypt, restrictedEmailLocalChars)
	}
	local, domainTLD := email[:at], email[at+1:]
	dot := strings.LastIndex(domainTLD, ".")
	if dot < 0 {
		return translateText(key, local, encrypt, restrictedEmailLocalChars) + "@" +
			translateText(key, domainTLD, encrypt, domainChars)
	}
	domain, tld := domainTLD[:dot], domainTLD[dot+1:]
	return translateText(key, local, encrypt, restrictedEmailLocalChars) + "@" +
		translateText(key, domain, encrypt, domainChars) + "." + tld
}

// translateTypeMatch translates text while retaining each character's class:
// digits map to digits, letters to letters, anything else passes through.
func translateTypeMatch(key, text string, encrypt bool, alphabet string) string {
	var b strings.Builder
	b.Grow(len(text))
	ki := 0
	for _, ch := range text {
		var charset string
		var charKey string
		if strings.ContainsRune(numbers, ch) {
			charset = numbers
			// A digit key for a digit position, derived from the key byte.
			charKey = string(rune('0' + key[ki%len(key)]%10))
		} else {
			charset = alphabet
			charKey = string(key[ki%len(key)])
		}
		idx := strings.IndexRune(charset, ch)
		if idx < 0 {
			b.WriteRune(ch)
			continue
		}
		shift := strings.Index(charset, charKey)
		if !encrypt {
			shift = -shift
		}
		n := len(charset)
		idx = ((idx+shift)%n + n) % n
		b.WriteByte(charset[idx])
		ki++
	}
	return b.String()
}

// translateIBAN keeps the two-letter country code and translates the rest
// with type matching, so the output still looks like an IBAN. Checksum
// validity is intentionally not preserved.
func translateIBAN(key, iban string, encrypt bool) string {
	if len(iban) < 2 {
		return iban
	}
	upper := strings.ToUpper(iban)
	return upper[:2] + translateTypeMatch(key, upper[2:], encrypt, lettersUpper)
}

// numerizeKeyMod folds a string key into a number below mod. The same key
// always folds to the same number, which gives the numeric strategies their
// reversibility.
func numerizeKeyMod(key string, mod uint64) uint64 {
	if mod <= 1 {
		return 0
	}
	var sum uint64
	pow := 42 % mod
	for i := 0; i < len(key); i++ {
		sum = (sum + uint64(key[i])%mod*pow) % mod
		pow = pow * 42 % mod
	}
	return sum
}
