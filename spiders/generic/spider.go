// Package generic 实现无结构假设的通用抽取策略
// 未识别的平台走这里：名称取页面标题，价格在可见文本中正则搜索
package generic

import (
	"price_tracker/internal/model"
	"price_tracker/pkg/fetcher"
	"price_tracker/pkg/price"
)

// Spider 通用抽取策略
type Spider struct{}

// New 创建通用抽取策略
func New() *Spider {
	return &Spider{}
}

// Platform 返回所属平台
func (s *Spider) Platform() model.Platform {
	return model.PlatformOther
}

// FetchMode 未知站点不做渲染，静态请求即可
func (s *Spider) FetchMode() fetcher.Mode {
	return fetcher.ModeStatic
}

// WaitSelector 静态模式下没有就绪条件
func (s *Spider) WaitSelector() string {
	return ""
}

// Extract 从任意页面抽取快照
// 名称为页面标题（截断），价格取第一个带货币标记的数字，图片不做猜测
func (s *Spider) Extract(page *fetcher.Page) (*model.ProductSnapshot, error) {
	doc := page.Document()

	snapshot := &model.ProductSnapshot{
		Seller:   "Unknown",
		Platform: model.PlatformOther,
	}

	snapshot.Name = model.TruncateName(doc.Find("title").First().Text())

	if value, err := price.ExtractPrice(page.Text()); err == nil {
		snapshot.Price = value
	}

	return snapshot, nil
}
