// Package strategy 定义平台抽取策略的接口
// 每个平台一个策略实现，负责把抓到的页面转换成商品快照
package strategy

import (
	"price_tracker/internal/model"
	"price_tracker/pkg/fetcher"
)

// Strategy 定义抽取策略接口
// 所有具体的平台策略都需要满足这个接口
type Strategy interface {
	// Platform 返回策略所属的平台
	Platform() model.Platform

	// FetchMode 返回该平台需要的抓取模式
	// 反爬严格的平台需要渲染模式，普通页面静态请求即可
	FetchMode() fetcher.Mode

	// WaitSelector 返回渲染模式下的页面就绪条件
	// 静态模式下忽略
	WaitSelector() string

	// Extract 从页面中抽取商品快照
	// 单个字段缺失不算失败：名称和图片缺失置空，价格缺失时快照价格为0
	Extract(page *fetcher.Page) (*model.ProductSnapshot, error)
}
