package service

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"linkpulse/internal/apperrors"
	"linkpulse/internal/model"
)

// emailSourceParam 追加在短链上的来源标记，重定向时据此记录 source=email
const emailSourceParam = "src"

type RewriteInput struct {
	HTML      string
	BaseURL   string
	Source    string
	CreatorID *uint
}

type RewriteResult struct {
	HTML           string
	OriginalLinks  int // 输入中不同的 http(s) 链接数
	ProcessedLinks int // 成功改写的不同链接数
}

type linkShortener interface {
	Shorten(ctx context.Context, in ShortenInput) (*model.ShortLink, bool, error)
}

// HTMLRewriter 把 HTML 中所有 <a href> 绝对链接替换为可追踪的短链
type HTMLRewriter struct {
	shortener linkShortener
	logger    *zap.Logger
}

func NewHTMLRewriter(shortener linkShortener, logger *zap.Logger) *HTMLRewriter {
	return &HTMLRewriter{shortener: shortener, logger: logger}
}

func (r *HTMLRewriter) Rewrite(ctx context.Context, in RewriteInput) (*RewriteResult, error) {
	if strings.TrimSpace(in.HTML) == "" {
		return nil, apperrors.InvalidRequestError("error.html_required")
	}
	baseURL := strings.TrimRight(in.BaseURL, "/")

	nodes, document, err := parseHTML(in.HTML)
	if err != nil {
		return nil, apperrors.InvalidRequestError("error.html_invalid")
	}

	original := map[string]struct{}{}
	rewritten := map[string]string{} // 原始 URL -> 短链，同一链接只缩短一次
	for _, n := range nodes {
		walkAnchors(n, func(a *html.Node) {
			href := attr(a, "href")
			if !isAbsoluteHTTP(href) || strings.HasPrefix(href, baseURL+"/") {
				return
			}
			original[href] = struct{}{}

			target, ok := rewritten[href]
			if !ok {
				link, _, err := r.shortener.Shorten(ctx, ShortenInput{OriginalURL: href, CreatorID: in.CreatorID})
				if err != nil {
					r.logger.Warn("Failed to shorten link in html, leaving it untouched",
						zap.String("href", href),
						zap.Error(err))
					return
				}
				target = baseURL + "/" + link.ShortID
				if in.Source == model.SourceEmail {
					target += "?" + emailSourceParam + "=" + model.SourceEmail
				}
				rewritten[href] = target
			}
			setAttr(a, "href", target)
			setAttr(a, "data-original-url", href)
		})
	}

	var buf bytes.Buffer
	if document {
		err = html.Render(&buf, nodes[0])
	} else {
		for _, n := range nodes {
			if err = html.Render(&buf, n); err != nil {
				break
			}
		}
	}
	if err != nil {
		return nil, apperrors.SystemError(err)
	}

	return &RewriteResult{
		HTML:           buf.String(),
		OriginalLinks:  len(original),
		ProcessedLinks: len(rewritten),
	}, nil
}

// parseHTML 完整文档按文档解析；片段按 <body> 上下文解析，避免输出多出 html/head/body
func parseHTML(s string) ([]*html.Node, bool, error) {
	lower := strings.ToLower(s)
	if strings.Contains(lower, "<html") || strings.Contains(lower, "<!doctype") {
		doc, err := html.Parse(strings.NewReader(s))
		if err != nil {
			return nil, false, err
		}
		return []*html.Node{doc}, true, nil
	}

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(s), body)
	return nodes, false, err
}

func walkAnchors(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode && n.DataAtom == atom.A {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkAnchors(c, fn)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func isAbsoluteHTTP(href string) bool {
	if href == "" {
		return false
	}
	u, err := url.Parse(href)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
