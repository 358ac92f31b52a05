// Package extractor 编排平台分发和抽取流程
// 对上层只有一个约定：返回快照或nil，任何内部失败都不会越过这层边界
package extractor

import (
	"context"
	"fmt"

	"price_tracker/controllers"
	"price_tracker/internal/model"
	"price_tracker/internal/strategy"
	"price_tracker/pkg/fetcher"
	"price_tracker/spiders/amazon"
	"price_tracker/spiders/flipkart"
	"price_tracker/spiders/generic"
	"price_tracker/spiders/myntra"
)

// PageFetcher 页面抓取能力
type PageFetcher interface {
	Fetch(ctx context.Context, url string, mode fetcher.Mode, waitSelector string) (*fetcher.Page, error)
}

// Extractor 商品信息抽取器
type Extractor struct {
	fetcher  PageFetcher
	registry *strategy.Registry
	logger   *controllers.LoggerManager
}

// New 创建抽取器
// registry 为空时使用内置的全平台策略注册表
func New(pageFetcher PageFetcher, registry *strategy.Registry, logger *controllers.LoggerManager) *Extractor {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Extractor{
		fetcher:  pageFetcher,
		registry: registry,
		logger:   logger,
	}
}

// DefaultRegistry 注册所有内置平台策略
func DefaultRegistry() *strategy.Registry {
	registry := strategy.NewRegistry()
	registry.Register(amazon.New())
	registry.Register(flipkart.New())
	registry.Register(myntra.New())
	registry.Register(generic.New())
	return registry
}

// ScrapeProduct 抓取并抽取一个商品页面
// 返回nil表示本次抓取失败，调用方应视为"暂时未知"而不是商品状态变化
func (e *Extractor) ScrapeProduct(ctx context.Context, url string) (snapshot *model.ProductSnapshot) {
	// 策略实现的任何异常都不允许打断调用方的循环
	defer func() {
		if r := recover(); r != nil {
			e.log("ERROR", fmt.Sprintf("抽取 %s 时发生异常: %v", url, r))
			snapshot = nil
		}
	}()

	st, ok := e.registry.Dispatch(url)
	if !ok {
		e.log("ERROR", "没有可用的抽取策略: "+url)
		return nil
	}

	page, err := e.fetcher.Fetch(ctx, url, st.FetchMode(), st.WaitSelector())
	if err != nil {
		e.log("WARN", fmt.Sprintf("抓取 %s 失败: %v", url, err))
		return nil
	}

	snapshot, err = st.Extract(page)
	if err != nil {
		e.log("WARN", fmt.Sprintf("抽取 %s 失败: %v", url, err))
		return nil
	}

	return snapshot
}

// log 带空指针保护的日志输出
func (e *Extractor) log(level, message string) {
	if e.logger != nil {
		e.logger.Log(level, message)
	}
}
