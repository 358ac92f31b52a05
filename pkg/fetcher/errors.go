package fetcher

import "errors"

// 抓取错误分类
// 上层据此区分超时、网络故障和被目标站点拦截三种失败
var (
	ErrTimeout = errors.New("页面加载超时")
	ErrNetwork = errors.New("网络请求失败")
	ErrBlocked = errors.New("请求被目标站点拦截")
)
