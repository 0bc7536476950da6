package link

import (
	"crypto/rand"
	"fmt"
)

// base62Alphabet は生成コードに使用する文字集合。
const base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// DefaultCodeLength は生成コードの既定長。
const DefaultCodeLength = 8

// maxUnbiasedByte は62の倍数のうち256未満で最大の値。これ以上のバイトは捨てて偏りを防ぐ。
const maxUnbiasedByte = 256 - (256 % len(base62Alphabet))

// GenerateCode はcrypto/randを使ってlength文字のbase62コードを生成する。
func GenerateCode(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid code length: %d", length)
	}

	out := make([]byte, 0, length)
	buf := make([]byte, length*2)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= maxUnbiasedByte {
				continue
			}
			out = append(out, base62Alphabet[int(b)%len(base62Alphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
