package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

const (
	MaxTargetURLLength = 2048
	MinSlugLength      = 3
	MaxSlugLength      = 32
)

// 自定义短码只允许 RFC 3986 中无需转义的字符
var shortCodePattern = regexp.MustCompile(`^[a-zA-Z0-9_.~-]+$`)

// ReservedSlugs 与路由前缀冲突的短码
var ReservedSlugs = map[string]struct{}{
	"urls":        {},
	"analytics":   {},
	"auth":        {},
	"healthz":     {},
	"favicon.ico": {},
}

// ValidateShortCode 校验 ShortCode 是否合法
func ValidateShortCode(shortCode string) error {
	if shortCode == "" {
		return fmt.Errorf("error.shortcode_required")
	}

	if ContainsWhitespace(shortCode) {
		return fmt.Errorf("error.shortcode_cannot_contain_spaces")
	}

	if len(shortCode) > MaxSlugLength {
		return fmt.Errorf("error.shortcode_invalid")
	}

	if !shortCodePattern.MatchString(shortCode) {
		return fmt.Errorf("error.shortcode_invalid")
	}

	return nil
}

// ValidateCustomSlug 在 ValidateShortCode 基础上额外限制最小长度和保留字
func ValidateCustomSlug(slug string) error {
	if err := ValidateShortCode(slug); err != nil {
		return err
	}
	if len(slug) < MinSlugLength || strings.Trim(slug, ".") == "" {
		return fmt.Errorf("error.shortcode_invalid")
	}
	if _, ok := ReservedSlugs[strings.ToLower(slug)]; ok {
		return fmt.Errorf("error.shortcode_reserved")
	}
	return nil
}

// ValidateTargetURL 校验目标 URL 的合法性（必须是带 host 的绝对地址）
func ValidateTargetURL(targetURL string) error {
	// 1. 检查目标 URL 是否为空
	if targetURL == "" {
		return fmt.Errorf("error.target_url_required")
	}

	// 2. URL 长度限制
	if len(targetURL) > MaxTargetURLLength {
		return fmt.Errorf("error.target_url_max_length")
	}

	// 3. URL 格式校验
	u, err := url.ParseRequestURI(targetURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("error.target_url_invalid")
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("error.target_url_invalid")
	}
	return nil
}

func ContainsWhitespace(s string) bool {
	for _, r := range s {
		if unicode.IsSpace(r) {
			return true
		}
	}
	return false
}
