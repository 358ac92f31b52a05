package price

import "testing"

// TestExtractPrice 测试带货币标记的价格提取
func TestExtractPrice(t *testing.T) {
	cases := []struct {
		text string
		want float64
	}{
		{"₹1,299.00", 1299.00},
		{"₹ 450", 450},
		{"Rs 450", 450},
		{"Rs. 2,999", 2999},
		{"999 ₹", 999},
		{"MRP ₹1,499.50 incl. taxes", 1499.50},
	}

	for _, c := range cases {
		got, err := ExtractPrice(c.text)
		if err != nil {
			t.Errorf("提取 %q 失败: %v", c.text, err)
			continue
		}
		if got != c.want {
			t.Errorf("提取 %q 结果错误: 期望 %v, 实际 %v", c.text, c.want, got)
		}
	}
}

// TestExtractPriceRejects 测试无效文本被拒绝
func TestExtractPriceRejects(t *testing.T) {
	for _, text := range []string{"", "free shipping", "1299", "₹0", "₹ abc"} {
		if got, err := ExtractPrice(text); err == nil {
			t.Errorf("文本 %q 不应提取出价格，实际得到 %v", text, got)
		}
	}
}

// TestParseNumeric 测试选择器文本的数字解析
func TestParseNumeric(t *testing.T) {
	cases := []struct {
		text string
		want float64
	}{
		{"1,299", 1299},
		{"₹1,299.00", 1299.00},
		{"Rs. 450", 450},
		{"  2999  ", 2999},
	}

	for _, c := range cases {
		got, err := ParseNumeric(c.text)
		if err != nil {
			t.Errorf("解析 %q 失败: %v", c.text, err)
			continue
		}
		if got != c.want {
			t.Errorf("解析 %q 结果错误: 期望 %v, 实际 %v", c.text, c.want, got)
		}
	}

	if _, err := ParseNumeric("out of stock"); err == nil {
		t.Error("非数字文本应解析失败")
	}
	if _, err := ParseNumeric("0"); err == nil {
		t.Error("零值应被拒绝")
	}
}

// TestIsSignificant 测试价格显著变动判定
func TestIsSignificant(t *testing.T) {
	d := NewDetector(DefaultSignificanceThreshold)

	// 1000 -> 1015，相对变化1.5%，显著
	if !d.IsSignificant(1000.00, 1015.00) {
		t.Error("1000 -> 1015 应判定为显著变动")
	}

	// 1000 -> 1005，相对变化0.5%，不显著
	if d.IsSignificant(1000.00, 1005.00) {
		t.Error("1000 -> 1005 不应判定为显著变动")
	}

	// 降价同样适用
	if !d.IsSignificant(1000.00, 985.00) {
		t.Error("1000 -> 985 应判定为显著变动")
	}

	// 旧价格为0是首次观察，不算显著变动，也不能除零
	if d.IsSignificant(0, 9999) {
		t.Error("旧价格为0时不应判定为显著变动")
	}

	// 恰好等于阈值不算显著
	if d.IsSignificant(1000.00, 1010.00) {
		t.Error("恰好1%的变化不应判定为显著变动")
	}
}

// TestDetectorFallback 测试非法阈值回退到默认值
func TestDetectorFallback(t *testing.T) {
	d := NewDetector(-1)
	if d.Threshold() != DefaultSignificanceThreshold {
		t.Errorf("非法阈值应回退到默认值，实际为 %v", d.Threshold())
	}
}
