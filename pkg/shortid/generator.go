package shortid

import (
	"crypto/rand"
	"errors"
	"fmt"
)

// Alphabet 生成短码使用的字符集（60 个字符）
// 去掉了易混淆字符 0 1 O o I l，补充 RFC 3986 中无需转义的 - _ . ~
const Alphabet = "23456789abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ-_.~"

// DefaultLength 默认短码长度
const DefaultLength = 7

// 256 以内 len(Alphabet) 的最大整数倍，超出部分丢弃以避免取模偏差
const acceptBelow = 256 - 256%len(Alphabet)

var ErrInvalidLength = errors.New("shortid: length must be positive")

// Generator 基于 crypto/rand 的随机短码生成器，不做唯一性校验
type Generator struct {
	length int
}

func New(length int) *Generator {
	if length <= 0 {
		length = DefaultLength
	}
	return &Generator{length: length}
}

// Generate 生成一个短码
func (g *Generator) Generate() (string, error) {
	return Generate(g.length)
}

// Generate 生成指定长度的短码
func Generate(length int) (string, error) {
	if length <= 0 {
		return "", ErrInvalidLength
	}

	out := make([]byte, 0, length)
	buf := make([]byte, length*2)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("shortid: read random: %w", err)
		}
		for _, b := range buf {
			if int(b) >= acceptBelow {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}

// Valid 判断 s 是否完全由 Alphabet 中的字符组成
func Valid(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !inAlphabet(s[i]) {
			return false
		}
	}
	return true
}

func inAlphabet(c byte) bool {
	for i := 0; i < len(Alphabet); i++ {
		if Alphabet[i] == c {
			return true
		}
	}
	return false
}
