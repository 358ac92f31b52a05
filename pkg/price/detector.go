package price

import "math"

// DefaultSignificanceThreshold 价格显著变动的默认阈值（相对变化超过1%）
// 定时检查和按需检查必须共用这一个常量，不允许在调用点各写一份
const DefaultSignificanceThreshold = 0.01

// Detector 价格变动判定器
type Detector struct {
	threshold float64 // 相对变化阈值
}

// NewDetector 创建价格变动判定器
// threshold 不合法时回退到默认阈值
func NewDetector(threshold float64) *Detector {
	if threshold <= 0 {
		threshold = DefaultSignificanceThreshold
	}
	return &Detector{threshold: threshold}
}

// IsSignificant 判断新旧价格之间是否发生显著变动
// 规则：旧价格大于0且相对变化超过阈值
// 旧价格为0时视为首次观察，不算显著变动，同时避免除零
func (d *Detector) IsSignificant(oldPrice, newPrice float64) bool {
	if oldPrice <= 0 {
		return false
	}
	return math.Abs(newPrice-oldPrice)/oldPrice > d.threshold
}

// Threshold 返回当前使用的阈值
func (d *Detector) Threshold() float64 {
	return d.threshold
}
