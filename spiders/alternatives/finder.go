// Package alternatives 在其他平台的搜索页上查找同类商品
// 用商品名的前几个词做检索词，每个平台最多取前两个结果
package alternatives

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"price_tracker/controllers"
	"price_tracker/internal/model"
	"price_tracker/pkg/fetcher"
	"price_tracker/pkg/price"

	"github.com/PuerkitoBio/goquery"
)

// PageFetcher 页面抓取能力
type PageFetcher interface {
	Fetch(ctx context.Context, url string, mode fetcher.Mode, waitSelector string) (*fetcher.Page, error)
}

// Pauser 两次搜索之间的退避延迟
type Pauser interface {
	Pause(ctx context.Context) error
}

// resultLimit 每个平台最多返回的同类商品数
const resultLimit = 2

// Finder 同类商品搜索器
type Finder struct {
	fetcher PageFetcher
	pauser  Pauser
	logger  *controllers.LoggerManager
}

// NewFinder 创建同类商品搜索器
func NewFinder(pageFetcher PageFetcher, pauser Pauser, logger *controllers.LoggerManager) *Finder {
	return &Finder{
		fetcher: pageFetcher,
		pauser:  pauser,
		logger:  logger,
	}
}

// Find 在商品所属平台之外的平台上搜索同类商品
// 单个平台搜索失败只记日志，不影响其余平台的结果
func (f *Finder) Find(ctx context.Context, productName string, platform model.Platform) []model.Alternative {
	query := searchTerms(productName)
	if query == "" {
		return nil
	}

	var alternatives []model.Alternative

	if platform != model.PlatformAmazon {
		alternatives = append(alternatives, f.searchAmazon(ctx, query)...)
		f.pause(ctx)
	}
	if platform != model.PlatformFlipkart {
		alternatives = append(alternatives, f.searchFlipkart(ctx, query)...)
		f.pause(ctx)
	}

	return alternatives
}

// searchTerms 取商品名的前三个词作为检索词
func searchTerms(productName string) string {
	fields := strings.Fields(productName)
	if len(fields) > 3 {
		fields = fields[:3]
	}
	return strings.Join(fields, " ")
}

// searchAmazon 在Amazon搜索页上查找商品
func (f *Finder) searchAmazon(ctx context.Context, query string) []model.Alternative {
	searchURL := "https://www.amazon.in/s?k=" + url.QueryEscape(query)

	page, err := f.fetcher.Fetch(ctx, searchURL, fetcher.ModeStatic, "")
	if err != nil {
		f.log("WARN", fmt.Sprintf("Amazon搜索失败: %v", err))
		return nil
	}

	var results []model.Alternative
	page.Document().Find(`div[data-component-type="s-search-result"]`).EachWithBreak(func(_ int, item *goquery.Selection) bool {
		name := strings.TrimSpace(item.Find("h2 .a-size-mini").First().Text())
		if name == "" {
			name = strings.TrimSpace(item.Find("span.a-size-medium").First().Text())
		}

		priceText := strings.TrimSpace(item.Find("span.a-price-whole").First().Text())
		if priceText == "" {
			priceText = strings.TrimSpace(item.Find("span.a-offscreen").First().Text())
		}

		value, err := price.ParseNumeric(priceText)
		if name == "" || err != nil {
			return true
		}

		alt := model.Alternative{
			Name:     model.TruncateName(name),
			Price:    value,
			Platform: model.PlatformAmazon,
			URL:      "#",
		}
		if href, exists := item.Find("h2 a").First().Attr("href"); exists {
			alt.URL = "https://www.amazon.in" + href
		}
		if src, exists := item.Find("img.s-image").First().Attr("src"); exists {
			alt.ImageURL = src
		}

		results = append(results, alt)
		return len(results) < resultLimit
	})

	return results
}

// searchFlipkart 在Flipkart搜索页上查找商品
func (f *Finder) searchFlipkart(ctx context.Context, query string) []model.Alternative {
	searchURL := "https://www.flipkart.com/search?q=" + url.QueryEscape(query)

	page, err := f.fetcher.Fetch(ctx, searchURL, fetcher.ModeStatic, "")
	if err != nil {
		f.log("WARN", fmt.Sprintf("Flipkart搜索失败: %v", err))
		return nil
	}

	var results []model.Alternative
	page.Document().Find("div._1AtVbE").EachWithBreak(func(_ int, item *goquery.Selection) bool {
		name := strings.TrimSpace(item.Find("div._4rR01T").First().Text())
		priceText := strings.TrimSpace(item.Find("div._30jeq3").First().Text())

		value, err := price.ParseNumeric(priceText)
		if name == "" || err != nil {
			return true
		}

		alt := model.Alternative{
			Name:     model.TruncateName(name),
			Price:    value,
			Platform: model.PlatformFlipkart,
			URL:      "#",
		}
		if href, exists := item.Find("a._1fQZEK").First().Attr("href"); exists {
			alt.URL = "https://www.flipkart.com" + href
		}
		if src, exists := item.Find("img._396cs4").First().Attr("src"); exists {
			alt.ImageURL = src
		}

		results = append(results, alt)
		return len(results) < resultLimit
	})

	return results
}

// pause 平台之间插入退避延迟
func (f *Finder) pause(ctx context.Context) {
	if f.pauser != nil {
		_ = f.pauser.Pause(ctx)
	}
}

// log 带空指针保护的日志输出
func (f *Finder) log(level, message string) {
	if f.logger != nil {
		f.logger.Log(level, message)
	}
}
