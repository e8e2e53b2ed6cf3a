package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

const (
	paramSecureHash     = "vnp_SecureHash"
	paramSecureHashType = "vnp_SecureHashType"
)

// Signer tạo chữ ký HMAC-SHA512 theo đúng cách VNPAY chuẩn hoá tham số.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// Sign returns the lowercase hex HMAC-SHA512 of data.
func (s *Signer) Sign(data string) string {
	mac := hmac.New(sha512.New, s.secret)
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares in constant time, ignoring the case of the provided hash.
func (s *Signer) Verify(data, provided string) bool {
	expected := s.Sign(data)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(provided)))
}

// CanonicalQuery encodes every key and value, sorts by encoded key and joins
// key=value pairs with '&'. Only the first value of each key is used.
// The result is both the signing payload and the query string sent to VNPAY.
func CanonicalQuery(params url.Values) string {
	type pair struct{ k, v string }

	pairs := make([]pair, 0, len(params))
	for k, vs := range params {
		v := ""
		if len(vs) > 0 {
			v = vs[0]
		}
		pairs = append(pairs, pair{k: encodeComponent(k), v: encodeComponent(v)})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].k < pairs[j].k })

	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.k)
		b.WriteByte('=')
		b.WriteString(p.v)
	}
	return b.String()
}

// encodeComponent percent-encodes s like JavaScript's encodeURIComponent,
// then writes spaces as '+'. VNPAY's reference integration signs exactly this form.
func encodeComponent(s string) string {
	const upperhex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == ' ':
			b.WriteByte('+')
		case isUnreserved(c):
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&15])
		}
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
