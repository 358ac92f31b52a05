package generic

import (
	"strings"
	"testing"

	"price_tracker/pkg/fetcher"
)

func mustPage(t *testing.T, html string) *fetcher.Page {
	t.Helper()
	page, err := fetcher.NewPage("https://shop.example.com/item/42", html)
	if err != nil {
		t.Fatalf("构造页面失败: %v", err)
	}
	return page
}

// TestExtract 测试标题和正文价格的抽取
func TestExtract(t *testing.T) {
	html := `<html><head><title>Some Gadget - Example Shop</title></head>
		<body><p>Special price today: ₹3,499 only!</p></body></html>`

	snapshot, err := New().Extract(mustPage(t, html))
	if err != nil {
		t.Fatalf("抽取失败: %v", err)
	}

	if snapshot.Name != "Some Gadget - Example Shop" {
		t.Errorf("名称错误: %q", snapshot.Name)
	}
	if snapshot.Price != 3499 {
		t.Errorf("价格错误: 期望 3499, 实际 %v", snapshot.Price)
	}
	if snapshot.ImageURL != "" {
		t.Errorf("通用策略不应猜测图片: %q", snapshot.ImageURL)
	}
}

// TestExtractTruncatesTitle 测试超长标题被截断到200字符
func TestExtractTruncatesTitle(t *testing.T) {
	longTitle := strings.Repeat("a", 250)
	html := "<html><head><title>" + longTitle + "</title></head><body></body></html>"

	snapshot, err := New().Extract(mustPage(t, html))
	if err != nil {
		t.Fatalf("抽取失败: %v", err)
	}
	if len(snapshot.Name) != 200 {
		t.Errorf("标题应截断到200字符，实际 %d", len(snapshot.Name))
	}
}

// TestExtractNoPrice 测试无价格页面返回价格缺失的快照
func TestExtractNoPrice(t *testing.T) {
	snapshot, err := New().Extract(mustPage(t, "<html><head><title>About Us</title></head><body>hello</body></html>"))
	if err != nil {
		t.Fatalf("抽取失败: %v", err)
	}
	if snapshot.HasPrice() {
		t.Errorf("无价格页面不应带价格: %v", snapshot.Price)
	}
}
