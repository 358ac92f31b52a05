package fetcher

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page 一次抓取得到的页面
// 同时持有原始HTML和解析后的文档，策略按需取用
type Page struct {
	URL  string // 页面地址
	HTML string // 原始HTML
	doc  *goquery.Document
}

// NewPage 从HTML构造页面对象
func NewPage(url, html string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return &Page{URL: url, HTML: html, doc: doc}, nil
}

// Document 返回解析后的文档
func (p *Page) Document() *goquery.Document {
	return p.doc
}

// Text 返回页面的全部可见文本
func (p *Page) Text() string {
	return p.doc.Text()
}
