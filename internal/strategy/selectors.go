package strategy

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FirstText 按顺序尝试选择器列表，返回第一个非空文本
// 单个选择器未命中不算失败，继续尝试下一个候选
func FirstText(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text != "" {
			return text
		}
	}
	return ""
}

// EachText 按顺序尝试选择器列表，对每个命中的非空文本调用accept
// accept 返回true时停止尝试
func EachText(doc *goquery.Document, selectors []string, accept func(text string) bool) {
	for _, selector := range selectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text == "" {
			continue
		}
		if accept(text) {
			return
		}
	}
}

// FirstAttr 按顺序尝试选择器列表，返回第一个非空的属性值
// attrs 按给定顺序逐个尝试（如 src 优先于 data-src）
func FirstAttr(doc *goquery.Document, selectors []string, attrs ...string) string {
	value := ""
	EachAttr(doc, selectors, attrs, func(v string) bool {
		value = v
		return true
	})
	return value
}

// EachAttr 按顺序尝试选择器列表，对每个命中的非空属性值调用accept
func EachAttr(doc *goquery.Document, selectors []string, attrs []string, accept func(value string) bool) {
	for _, selector := range selectors {
		sel := doc.Find(selector).First()
		for _, attr := range attrs {
			value, exists := sel.Attr(attr)
			if !exists || strings.TrimSpace(value) == "" {
				continue
			}
			if accept(strings.TrimSpace(value)) {
				return
			}
		}
	}
}
