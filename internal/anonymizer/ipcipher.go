package anonymizer

import (
	"crypto/aes"
	"crypto/sha1"
	"fmt"
	"net/netip"

	"golang.org/x/crypto/pbkdf2"
)

// ipcipher (https://github.com/PowerDNS/ipcipher): format-preserving IP
// address encryption. IPv4 uses the ipcrypt 4-byte permutation, IPv6 a
// single AES-ECB block over the packed address.

const ipcipherSalt = "ipcipheripcipher"

// deriveIPKey derives the 16-byte ipcipher key from a passphrase.
func deriveIPKey(key string) []byte {
	return pbkdf2.Key([]byte(key), []byte(ipcipherSalt), 50000, 16, sha1.New)
}

func rotl(b byte, r uint) byte {
	return (b << r) | (b >> (8 - r))
}

func permuteFwd(s *[4]byte) {
	s[0] += s[1]
	s[2] += s[3]
	s[1] = rotl(s[1], 2)
	s[3] = rotl(s[3], 5)
	s[1] ^= s[0]
	s[3] ^= s[2]
	s[0] = rotl(s[0], 4)
	s[0] += s[3]
	s[2] += s[1]
	s[1] = rotl(s[1], 3)
	s[3] = rotl(s[3], 7)
	s[1] ^= s[2]
	s[3] ^= s[0]
	s[2] = rotl(s[2], 4)
}

func permuteBwd(s *[4]byte) {
	s[2] = rotl(s[2], 4)
	s[1] ^= s[2]
	s[3] ^= s[0]
	s[1] = rotl(s[1], 5)
	s[3] = rotl(s[3], 1)
	s[0] -= s[3]
	s[2] -= s[1]
	s[0] = rotl(s[0], 4)
	s[1] ^= s[0]
	s[3] ^= s[2]
	s[1] = rotl(s[1], 6)
	s[3] = rotl(s[3], 3)
	s[0] -= s[1]
	s[2] -= s[3]
}

func xor4(s *[4]byte, k []byte) {
	for i := 0; i < 4; i++ {
		s[i] ^= k[i]
	}
}

func encryptIPv4(key []byte, addr netip.Addr) netip.Addr {
	state := addr.As4()
	xor4(&state, key[0:4])
	permuteFwd(&state)
	xor4(&state, key[4:8])
	permuteFwd(&state)
	xor4(&state, key[8:12])
	permuteFwd(&state)
	xor4(&state, key[12:16])
	return netip.AddrFrom4(state)
}

func decryptIPv4(key []byte, addr netip.Addr) netip.Addr {
	state := addr.As4()
	xor4(&state, key[12:16])
	permuteBwd(&state)
	xor4(&state, key[8:12])
	permuteBwd(&state)
	xor4(&state, key[4:8])
	permuteBwd(&state)
	xor4(&state, key[0:4])
	return netip.AddrFrom4(state)
}

func cryptIPv6(key []byte, addr netip.Addr, encrypt bool) (netip.Addr, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return netip.Addr{}, err
	}
	in := addr.As16()
	var out [16]byte
	if encrypt {
		block.Encrypt(out[:], in[:])
	} else {
		block.Decrypt(out[:], in[:])
	}
	return netip.AddrFrom16(out), nil
}

// encryptIP encrypts an IPv4 or IPv6 address string, returning an address of
// the same family in canonical form.
func encryptIP(key, ip string) (string, error) {
	return cryptIP(key, ip, true)
}

// decryptIP reverses encryptIP under the same key.
func decryptIP(key, ip string) (string, error) {
	return cryptIP(key, ip, false)
}

func cryptIP(key, ip string, encrypt bool) (string, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "", fmt.Errorf("parse ip address: %w", err)
	}
	derived := deriveIPKey(key)
	if addr.Is4() {
		if encrypt {
			return encryptIPv4(derived, addr).String(), nil
		}
		return decryptIPv4(derived, addr).String(), nil
	}
	out, err := cryptIPv6(derived, addr, encrypt)
	if err != nil {
		return "", err
	}
	return out.String(), nil
}
