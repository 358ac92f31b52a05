// Package model 定义价格监控系统的核心数据结构
package model

import (
	"strings"
	"time"
)

// Platform 电商平台枚举
type Platform string

const (
	PlatformAmazon   Platform = "Amazon"
	PlatformFlipkart Platform = "Flipkart"
	PlatformMyntra   Platform = "Myntra"
	PlatformOther    Platform = "Other"
)

// MaxNameLength 商品名称的最大长度，超出部分会被截断
const MaxNameLength = 200

// DetectPlatform 根据URL识别所属平台
// 匹配规则：URL中包含平台域名关键字（不区分大小写），都不匹配时返回 PlatformOther
func DetectPlatform(url string) Platform {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "amazon"):
		return PlatformAmazon
	case strings.Contains(lower, "flipkart"):
		return PlatformFlipkart
	case strings.Contains(lower, "myntra"):
		return PlatformMyntra
	default:
		return PlatformOther
	}
}

// ProductSnapshot 单次抓取得到的商品快照
// 产生后不可修改；Price 为 0 表示本次未能提取到价格
type ProductSnapshot struct {
	Name     string   `json:"name"`      // 商品名称，最长200字符
	Price    float64  `json:"price"`     // 商品价格，0表示缺失
	ImageURL string   `json:"image_url"` // 商品主图地址
	Seller   string   `json:"seller"`    // 卖家名称
	Platform Platform `json:"platform"`  // 所属平台
}

// HasPrice 判断快照是否带有有效价格
func (s *ProductSnapshot) HasPrice() bool {
	return s != nil && s.Price > 0
}

// TruncateName 截断商品名称到允许的最大长度
func TruncateName(name string) string {
	name = strings.TrimSpace(name)
	runes := []rune(name)
	if len(runes) > MaxNameLength {
		return string(runes[:MaxNameLength])
	}
	return name
}

// TrackedProduct 用户跟踪中的商品
// 由外部存储层持有，本引擎只在监控周期内更新 CurrentPrice 和 LastCheckedAt
type TrackedProduct struct {
	ID            string    `json:"id" bson:"_id"`                        // 商品唯一标识
	UserID        string    `json:"user_id" bson:"user_id"`               // 所属用户
	ProductURL    string    `json:"product_url" bson:"product_url"`       // 商品页面地址
	ProductName   string    `json:"product_name" bson:"product_name"`     // 商品名称
	CurrentPrice  float64   `json:"current_price" bson:"current_price"`   // 最近一次接受的价格
	OriginalPrice float64   `json:"original_price" bson:"original_price"` // 开始跟踪时的价格
	ImageURL      string    `json:"image_url" bson:"image_url"`           // 商品主图
	Seller        string    `json:"seller" bson:"seller"`                 // 卖家
	Platform      Platform  `json:"platform" bson:"platform"`             // 所属平台
	IsActive      bool      `json:"is_active" bson:"is_active"`           // 是否处于跟踪状态
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`         // 开始跟踪时间
	LastCheckedAt time.Time `json:"last_checked_at" bson:"last_checked_at"` // 最近一次检查时间
}

// PriceHistoryEntry 价格历史记录，只追加不修改
type PriceHistoryEntry struct {
	ProductID string    `json:"product_id" bson:"product_id"` // 商品标识
	Price     float64   `json:"price" bson:"price"`           // 记录时的价格
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`   // 记录时间
}

// AlertEvent 价格显著变动事件，发送给外部通知器，不做持久化
type AlertEvent struct {
	ID          string   `json:"id"`           // 事件标识
	ProductID   string   `json:"product_id"`   // 商品标识
	ProductName string   `json:"product_name"` // 商品名称
	OldPrice    float64  `json:"old_price"`    // 变动前价格
	NewPrice    float64  `json:"new_price"`    // 变动后价格
	URL         string   `json:"url"`          // 商品页面地址
	Platform    Platform `json:"platform"`     // 所属平台
}

// Alternative 其他平台上的同类商品
type Alternative struct {
	Name     string   `json:"name" bson:"name"`           // 商品名称
	Price    float64  `json:"price" bson:"price"`         // 商品价格
	URL      string   `json:"url" bson:"url"`             // 商品页面地址
	Platform Platform `json:"platform" bson:"platform"`   // 所属平台
	ImageURL string   `json:"image_url" bson:"image_url"` // 商品主图
}
