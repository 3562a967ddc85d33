package utils

import (
	"strings"

	"github.com/mssola/useragent"
)

const Unknown = "unknown"

// Device types
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
)

// UserAgentInfo 从 User-Agent 中解析出的设备信息
type UserAgentInfo struct {
	Browser        string
	BrowserVersion string
	OS             string
	DeviceType     string
}

// ParseUserAgent 解析 User-Agent，无法识别的字段为 "unknown"
func ParseUserAgent(raw string) UserAgentInfo {
	if strings.TrimSpace(raw) == "" {
		return UserAgentInfo{
			Browser:        Unknown,
			BrowserVersion: Unknown,
			OS:             Unknown,
			DeviceType:     Unknown,
		}
	}

	ua := useragent.New(raw)
	name, version := ua.Browser()

	info := UserAgentInfo{
		Browser:        orUnknown(name),
		BrowserVersion: orUnknown(version),
		OS:             orUnknown(ua.OSInfo().Name),
		DeviceType:     DeviceDesktop,
	}

	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "ipad") || strings.Contains(lower, "tablet") ||
		(strings.Contains(lower, "android") && !strings.Contains(lower, "mobile")):
		info.DeviceType = DeviceTablet
	case ua.Mobile():
		info.DeviceType = DeviceMobile
	case ua.OS() == "" && ua.Platform() == "":
		info.DeviceType = Unknown
	}
	return info
}

func orUnknown(s string) string {
	if s == "" {
		return Unknown
	}
	return s
}
