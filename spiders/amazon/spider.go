// Package amazon 实现Amazon商品页的抽取策略
// Amazon的价格标记频繁改版，价格按四级回退链解析：
// 价格区块选择器 -> 无障碍文本节点 -> JSON-LD结构化数据 -> 页面源码正则
package amazon

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"price_tracker/internal/model"
	"price_tracker/internal/strategy"
	"price_tracker/pkg/fetcher"
	"price_tracker/pkg/price"

	"github.com/PuerkitoBio/goquery"
)

// 价格区块选择器，按优先级排列
var priceSelectors = []string{
	".a-price.priceToPay .a-price-whole",
	".a-price.reinventPricePriceToPayMargin .a-price-whole",
	"span.a-price-whole",
	"#apex_desktop .a-price .a-price-whole",
	".a-section .a-price .a-price-whole",
	"#priceblock_dealprice",
	"#priceblock_ourprice",
}

// 图片选择器，按优先级排列
var imageSelectors = []string{
	"#landingImage",
	".a-dynamic-image",
	"#imgTagWrapperId img",
}

// 页面源码中的价格模式，作为最后的回退手段
var sourcePricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`"price":\s*"([0-9,]+(?:\.[0-9]{2})?)"`),
	regexp.MustCompile(`"displayPrice":\s*"[^"]*?([0-9,]+(?:\.[0-9]{2})?)"`),
	regexp.MustCompile(`priceToPay[^>]*>.*?₹([0-9,]+)`),
	regexp.MustCompile(`a-price-whole[^>]*>([0-9,]+)`),
}

// 源码正则提取的价格只在该区间内才被接受
// 过滤掉页面里评分、件数之类的无关数字
const (
	plausibleMin = 100
	plausibleMax = 1000000
)

// Spider Amazon抽取策略
type Spider struct{}

// New 创建Amazon抽取策略
func New() *Spider {
	return &Spider{}
}

// Platform 返回所属平台
func (s *Spider) Platform() model.Platform {
	return model.PlatformAmazon
}

// FetchMode Amazon页面价格由脚本填充，需要渲染模式
func (s *Spider) FetchMode() fetcher.Mode {
	return fetcher.ModeRendered
}

// WaitSelector 页面就绪条件：标题元素出现
func (s *Spider) WaitSelector() string {
	return "#productTitle"
}

// Extract 从Amazon商品页抽取快照
func (s *Spider) Extract(page *fetcher.Page) (*model.ProductSnapshot, error) {
	doc := page.Document()

	snapshot := &model.ProductSnapshot{
		Seller:   "Amazon",
		Platform: model.PlatformAmazon,
	}

	snapshot.Name = model.TruncateName(doc.Find("#productTitle").First().Text())

	// 回退链1：价格区块选择器
	strategy.EachText(doc, priceSelectors, func(text string) bool {
		value, err := price.ParseNumeric(text)
		if err != nil {
			return false
		}
		snapshot.Price = value
		return true
	})

	// 回退链2：无障碍文本节点
	if snapshot.Price == 0 {
		offscreen := strings.TrimSpace(doc.Find(".a-price .a-offscreen").First().Text())
		if value, err := price.ParseNumeric(offscreen); err == nil {
			snapshot.Price = value
		}
	}

	// 回退链3：JSON-LD结构化数据
	if snapshot.Price == 0 {
		var scripts []string
		doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
			scripts = append(scripts, sel.Text())
		})
		snapshot.Price = structuredDataPrice(scripts)
	}

	// 回退链4：页面源码正则
	if snapshot.Price == 0 {
		snapshot.Price = sourcePrice(page.HTML)
	}

	snapshot.ImageURL = strategy.FirstAttr(doc, imageSelectors, "src")

	return snapshot, nil
}

// structuredDataPrice 从JSON-LD脚本中解析 offers.price
func structuredDataPrice(scripts []string) float64 {
	for _, raw := range scripts {
		var data interface{}
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			continue
		}

		// JSON-LD 可能是对象，也可能是对象数组
		if list, ok := data.([]interface{}); ok {
			if len(list) == 0 {
				continue
			}
			data = list[0]
		}

		obj, ok := data.(map[string]interface{})
		if !ok {
			continue
		}
		offers, ok := obj["offers"].(map[string]interface{})
		if !ok {
			continue
		}

		switch v := offers["price"].(type) {
		case float64:
			if v > 0 {
				return v
			}
		case string:
			if value, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64); err == nil && value > 0 {
				return value
			}
		}
	}
	return 0
}

// sourcePrice 在页面源码中正则搜索价格
// 只接受落在合理区间内的值，避免把无关数字当成价格
func sourcePrice(html string) float64 {
	for _, pattern := range sourcePricePatterns {
		matches := pattern.FindStringSubmatch(html)
		if matches == nil {
			continue
		}
		value, err := strconv.ParseFloat(strings.ReplaceAll(matches[1], ",", ""), 64)
		if err != nil {
			continue
		}
		if value > plausibleMin && value < plausibleMax {
			return value
		}
	}
	return 0
}
