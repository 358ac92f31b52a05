// Package price 提供价格文本解析和价格变动判定
// 所有需要比较价格差异的地方都必须使用本包的同一套阈值规则
package price

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoPrice 表示文本中没有可识别的价格
var ErrNoPrice = errors.New("文本中未找到有效价格")

// 价格匹配模式，按优先级排列
// 覆盖货币符号前置、Rs前缀和货币符号后置三种写法
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`₹\s*([0-9]+(?:\.[0-9]{1,2})?)`),
	regexp.MustCompile(`Rs\.?\s*([0-9]+(?:\.[0-9]{1,2})?)`),
	regexp.MustCompile(`([0-9]+(?:\.[0-9]{1,2})?)\s*₹`),
}

// numericPattern 匹配第一个合理的十进制数字，最多两位小数
var numericPattern = regexp.MustCompile(`[0-9]+(?:\.[0-9]{1,2})?`)

// ExtractPrice 从任意文本中提取带货币标记的价格
// 先去掉千位分隔符，再按模式列表依次匹配，第一个解析成功的非零值胜出
func ExtractPrice(text string) (float64, error) {
	cleaned := strings.ReplaceAll(text, ",", "")
	for _, pattern := range pricePatterns {
		matches := pattern.FindStringSubmatch(cleaned)
		if matches == nil {
			continue
		}
		value, err := strconv.ParseFloat(matches[1], 64)
		if err != nil || value <= 0 {
			continue
		}
		return value, nil
	}
	return 0, ErrNoPrice
}

// ParseNumeric 解析选择器命中的价格文本
// 去掉货币符号和千位分隔符后，取第一个十进制数字片段
func ParseNumeric(text string) (float64, error) {
	cleaned := strings.NewReplacer(",", "", "₹", "", "Rs.", "", "Rs", "").Replace(text)
	cleaned = strings.TrimSpace(cleaned)

	match := numericPattern.FindString(cleaned)
	if match == "" {
		return 0, ErrNoPrice
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil || value <= 0 {
		return 0, ErrNoPrice
	}
	return value, nil
}

// HasCurrencyMark 判断文本是否带有货币标记
// 平台策略在解析价格选择器结果前用它做预过滤
func HasCurrencyMark(text string) bool {
	return strings.Contains(text, "₹") || strings.Contains(text, "Rs")
}
