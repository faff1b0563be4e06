// Package mask hides client addresses in on-screen output. It is a display
// transform only: stored records, clipboard copies and exports keep the
// original address.
package mask

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/vedsharma/pingforge/internal/model"
)

type Policy string

const (
	PolicyPartial   Policy = "partial"
	PolicyLastOctet Policy = "last_octet"
	PolicyFull      Policy = "full"
	PolicyHash      Policy = "hash"
)

// Policies lists every policy in display order.
var Policies = []Policy{PolicyPartial, PolicyLastOctet, PolicyFull, PolicyHash}

func ParsePolicy(s string) (Policy, error) {
	p := Policy(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Policies {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown masking policy %q (valid: partial, last_octet, full, hash)", s)
}

const (
	fullMask    = "***.***.***.**"
	octetMask   = "***"
	otherMask   = "***masked***"
	ipv6Suffix  = ":****:****:****"
	hashPrefix  = "hash-"
	hashHexSize = 6
)

// Mask renders ip under policy. Disabled masking, empty input and the
// "unknown" sentinel pass through unchanged.
func Mask(ip string, policy Policy, enabled bool) string {
	if !enabled || ip == "" || ip == model.UnknownIP {
		return ip
	}

	switch policy {
	case PolicyFull:
		return fullMask
	case PolicyPartial:
		if octets := strings.Split(ip, "."); len(octets) == 4 {
			return octets[0] + "." + octetMask + "." + octetMask + "." + octetMask
		}
		if strings.Contains(ip, ":") {
			return prefix(ip, 4) + ipv6Suffix
		}
		return otherMask
	case PolicyLastOctet:
		if octets := strings.Split(ip, "."); len(octets) == 4 {
			return octets[0] + "." + octets[1] + "." + octets[2] + "." + octetMask
		}
		return ip
	case PolicyHash:
		return hashPrefix + Hash(ip)
	}
	return ip
}

// Hash is a 32-bit multiplicative string hash over UTF-16 code units rendered
// as up to six hex digits. It is stable across processes and not meant to
// resist reversal.
func Hash(s string) string {
	var h int32
	for _, unit := range utf16.Encode([]rune(s)) {
		h = h<<5 - h + int32(unit)
	}
	abs := int64(h)
	if abs < 0 {
		abs = -abs
	}
	hex := strconv.FormatInt(abs, 16)
	if len(hex) > hashHexSize {
		hex = hex[:hashHexSize]
	}
	return hex
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
