// Package myntra 实现Myntra商品页的抽取策略
package myntra

import (
	"strings"
	"unicode"

	"price_tracker/internal/model"
	"price_tracker/internal/strategy"
	"price_tracker/pkg/fetcher"
	"price_tracker/pkg/price"
)

// 名称选择器，按优先级排列
var nameSelectors = []string{
	"h1.pdp-name",
	".pdp-name",
	"h1",
}

// 价格选择器，按优先级排列
var priceSelectors = []string{
	".pdp-price strong",
	".pdp-price .pdp-price-info",
	"span.pdp-price",
	".price-info .price",
}

// 图片选择器，按优先级排列
var imageSelectors = []string{
	"img.image-grid-image",
	".image-grid-container img",
	".pdp-image img",
	`img[src*="assets.myntassets.com"]`,
	`img[data-src*="assets.myntassets.com"]`,
	".image-grid img",
}

// Spider Myntra抽取策略
type Spider struct{}

// New 创建Myntra抽取策略
func New() *Spider {
	return &Spider{}
}

// Platform 返回所属平台
func (s *Spider) Platform() model.Platform {
	return model.PlatformMyntra
}

// FetchMode Myntra页面由脚本渲染，需要渲染模式
func (s *Spider) FetchMode() fetcher.Mode {
	return fetcher.ModeRendered
}

// WaitSelector 页面就绪条件：商品名出现
func (s *Spider) WaitSelector() string {
	return "h1, .pdp-name"
}

// Extract 从Myntra商品页抽取快照
func (s *Spider) Extract(page *fetcher.Page) (*model.ProductSnapshot, error) {
	doc := page.Document()

	snapshot := &model.ProductSnapshot{
		Seller:   "Myntra",
		Platform: model.PlatformMyntra,
	}

	snapshot.Name = model.TruncateName(strategy.FirstText(doc, nameSelectors))

	// Myntra价格有时带货币符号，有时是纯数字
	strategy.EachText(doc, priceSelectors, func(text string) bool {
		var value float64
		var err error
		if price.HasCurrencyMark(text) {
			value, err = price.ExtractPrice(text)
		} else if isNumericText(text) {
			value, err = price.ParseNumeric(text)
		} else {
			return false
		}
		if err != nil {
			return false
		}
		snapshot.Price = value
		return true
	})

	// 图片必须来自Myntra的图床
	strategy.EachAttr(doc, imageSelectors, []string{"src", "data-src"}, func(src string) bool {
		if !strings.Contains(src, "myntassets.com") {
			return false
		}
		snapshot.ImageURL = src
		return true
	})

	return snapshot, nil
}

// isNumericText 判断文本去掉分隔符后是否为纯数字
func isNumericText(text string) bool {
	cleaned := strings.NewReplacer(",", "", ".", "", " ", "").Replace(text)
	if cleaned == "" {
		return false
	}
	for _, r := range cleaned {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
