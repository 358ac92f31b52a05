// Package flipkart 实现Flipkart商品页的抽取策略
// Flipkart使用混淆过的class名，选择器列表覆盖近几次改版的写法
package flipkart

import (
	"strings"

	"price_tracker/internal/model"
	"price_tracker/internal/strategy"
	"price_tracker/pkg/fetcher"
	"price_tracker/pkg/price"
)

// 名称选择器，按优先级排列
var nameSelectors = []string{
	"h1 span",
	".B_NuCI",
	"._35KyD6",
	".VU-ZEz",
}

// 价格选择器，按优先级排列
var priceSelectors = []string{
	".Nx9bqj.CxhGGd",
	"._30jeq3._16Jk6d",
	"._1_WHN1",
	".CEmiEU .Nx9bqj",
	"._16Jk6d",
}

// 图片选择器，按优先级排列
var imageSelectors = []string{
	"._4WELSP img",
	".DByuf4.IZexXJ.jLEJ7H",
	"._396cs4._2amPTt._3qGmMb",
	`img[src*="rukminim"]`,
	`img[data-src*="rukminim"]`,
	".vU5WPQ img",
	"._8id3KM img",
}

// Spider Flipkart抽取策略
type Spider struct{}

// New 创建Flipkart抽取策略
func New() *Spider {
	return &Spider{}
}

// Platform 返回所属平台
func (s *Spider) Platform() model.Platform {
	return model.PlatformFlipkart
}

// FetchMode Flipkart页面由脚本渲染，需要渲染模式
func (s *Spider) FetchMode() fetcher.Mode {
	return fetcher.ModeRendered
}

// WaitSelector 页面就绪条件：标题出现
func (s *Spider) WaitSelector() string {
	return "h1, .B_NuCI"
}

// Extract 从Flipkart商品页抽取快照
func (s *Spider) Extract(page *fetcher.Page) (*model.ProductSnapshot, error) {
	doc := page.Document()

	snapshot := &model.ProductSnapshot{
		Seller:   "Flipkart",
		Platform: model.PlatformFlipkart,
	}

	snapshot.Name = model.TruncateName(strategy.FirstText(doc, nameSelectors))

	// 价格文本必须带货币符号，过滤掉折扣百分比之类的纯数字节点
	strategy.EachText(doc, priceSelectors, func(text string) bool {
		if !price.HasCurrencyMark(text) {
			return false
		}
		value, err := price.ExtractPrice(text)
		if err != nil {
			return false
		}
		snapshot.Price = value
		return true
	})

	// 图片必须来自Flipkart的图床，占位图和推荐位图片一律拒绝
	strategy.EachAttr(doc, imageSelectors, []string{"src", "data-src"}, func(src string) bool {
		if !strings.Contains(src, "rukminim") && !strings.Contains(src, "flixcart.com") {
			return false
		}
		snapshot.ImageURL = upgradeResolution(src)
		return true
	})

	return snapshot, nil
}

// upgradeResolution 把低分辨率图片地址换成高分辨率版本
// Flipkart在图片路径中编码分辨率，直接替换路径片段即可
func upgradeResolution(src string) string {
	if strings.Contains(src, "rukminim") && strings.Contains(src, "128/128") {
		return strings.ReplaceAll(src, "128/128", "416/416")
	}
	return src
}
