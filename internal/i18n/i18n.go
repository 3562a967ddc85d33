package i18n

import (
	"context"
	"embed"
	"fmt"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var localeFS embed.FS

type localizerKey struct{}

// Translator 持有消息包与支持的语言列表
type Translator struct {
	bundle    *i18n.Bundle
	languages []language.Tag
	matcher   language.Matcher
}

// New 加载内置的语言文件（locales/<lang>.toml），defaultLang 为兜底语言
func New(defaultLang string) (*Translator, error) {
	defaultTag, err := language.Parse(defaultLang)
	if err != nil {
		return nil, fmt.Errorf("parse default language %q: %w", defaultLang, err)
	}

	bundle := i18n.NewBundle(defaultTag)
	// 注册 TOML 解析器
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, err
	}

	// 默认语言放在第一位，language.Matcher 匹配失败时返回第一个
	languages := []language.Tag{defaultTag}
	for _, entry := range entries {
		filePath := path.Join("locales", entry.Name())
		data, err := localeFS.ReadFile(filePath)
		if err != nil {
			return nil, err
		}
		file, err := bundle.ParseMessageFileBytes(data, filePath)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", filePath, err)
		}
		if file.Tag != defaultTag {
			languages = append(languages, file.Tag)
		}
	}

	return &Translator{
		bundle:    bundle,
		languages: languages,
		matcher:   language.NewMatcher(languages),
	}, nil
}

// Languages 支持的语言
func (t *Translator) Languages() []string {
	out := make([]string, 0, len(t.languages))
	for _, tag := range t.languages {
		out = append(out, tag.String())
	}
	return out
}

// Localizer 按 Accept-Language 协商语言
func (t *Translator) Localizer(acceptLanguage string) *i18n.Localizer {
	tags, _, _ := language.ParseAcceptLanguage(acceptLanguage)
	_, idx, _ := t.matcher.Match(tags...)
	return i18n.NewLocalizer(t.bundle, t.languages[idx].String())
}

func WithLocalizer(ctx context.Context, localizer *i18n.Localizer) context.Context {
	return context.WithValue(ctx, localizerKey{}, localizer)
}

func LocalizerFrom(ctx context.Context) *i18n.Localizer {
	localizer, _ := ctx.Value(localizerKey{}).(*i18n.Localizer)
	return localizer
}

// T 翻译消息；没有 Localizer 或找不到消息时返回消息 ID 本身
func T(ctx context.Context, key string, data map[string]interface{}) string {
	localizer := LocalizerFrom(ctx)
	if localizer == nil || !strings.Contains(key, ".") {
		return key
	}
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil || msg == "" {
		return key
	}
	return msg
}
