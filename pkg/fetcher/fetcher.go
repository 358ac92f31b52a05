// Package fetcher 负责获取商品页面的DOM
// static 模式发起一次普通HTTP请求；rendered 模式驱动无头Chrome执行页面脚本
// 浏览器会话在任何退出路径上都会被完整销毁，不允许泄漏
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"price_tracker/pkg/cookie"
	"price_tracker/pkg/useragent"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Mode 抓取模式
type Mode string

const (
	ModeStatic   Mode = "static"   // 单次HTTP GET
	ModeRendered Mode = "rendered" // 无头浏览器渲染
)

// Config 抓取器配置
type Config struct {
	Timeout    time.Duration // 页面加载超时时间
	ChromePath string        // Chrome浏览器路径，留空使用系统默认
}

// DomainLimiter 域名级请求频率控制
type DomainLimiter interface {
	Allow(ctx context.Context, domain string) error
}

// Fetcher 页面抓取器
type Fetcher struct {
	config     Config
	uaCtrl     *useragent.UserAgentController // UA轮换池
	cookieCtrl *cookie.CookieControl          // Cookie持久化，可为空
	limiter    DomainLimiter                  // 域名限流，可为空
	httpClient *http.Client
}

// NewFetcher 创建页面抓取器
// cookieCtrl 为空时渲染抓取不做Cookie恢复，limiter 为空时不做域名限流
func NewFetcher(cfg Config, uaCtrl *useragent.UserAgentController, cookieCtrl *cookie.CookieControl, limiter DomainLimiter) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if uaCtrl == nil {
		uaCtrl = useragent.NewUserAgentController(nil)
	}

	return &Fetcher{
		config:     cfg,
		uaCtrl:     uaCtrl,
		cookieCtrl: cookieCtrl,
		limiter:    limiter,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Fetch 获取页面DOM
// 先过域名限流，未放行的请求不会发出，当次抓取按失败处理
// waitSelector 是渲染模式下的就绪条件，留空时等待body出现
func (f *Fetcher) Fetch(ctx context.Context, url string, mode Mode, waitSelector string) (*Page, error) {
	if f.limiter != nil {
		if err := f.limiter.Allow(ctx, hostOf(url)); err != nil {
			return nil, fmt.Errorf("域名限流未放行: %w", err)
		}
	}

	switch mode {
	case ModeRendered:
		return f.fetchRendered(ctx, url, waitSelector)
	default:
		return f.fetchStatic(ctx, url)
	}
}

// fetchStatic 发起单次HTTP GET请求
func (f *Fetcher) fetchStatic(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	// 使用真实浏览器的请求头，避免裸请求被直接拒绝
	req.Header.Set("User-Agent", f.uaCtrl.Random())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusForbidden, http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return nil, fmt.Errorf("%w: 状态码 %d", ErrBlocked, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: 状态码 %d", ErrNetwork, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: 读取响应失败: %v", ErrNetwork, err)
	}

	return NewPage(url, string(body))
}

// fetchRendered 驱动无头Chrome渲染页面
// 浏览器指纹做基础伪装：关掉自动化标记、使用真实UA、清除navigator.webdriver
func (f *Fetcher) fetchRendered(ctx context.Context, url, waitSelector string) (*Page, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
		chromedp.UserAgent(f.uaCtrl.Random()),
	)
	if f.config.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(f.config.ChromePath))
	}

	// 会话的三层上下文统一在defer里销毁，超时和异常路径也会走到
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	timeoutCtx, cancelTimeout := context.WithTimeout(browserCtx, f.config.Timeout)
	defer cancelTimeout()

	domain := hostOf(url)

	if waitSelector == "" {
		waitSelector = "body"
	}

	tasks := []chromedp.Action{
		chromedp.ActionFunc(func(ctx context.Context) error {
			return f.restoreCookies(ctx, domain)
		}),
		chromedp.Navigate(url),
		// 清除navigator.webdriver标记
		chromedp.Evaluate(`Object.defineProperty(navigator, 'webdriver', {get: () => undefined})`, nil),
		chromedp.WaitVisible(waitSelector, chromedp.ByQuery),
	}

	var html string
	tasks = append(tasks,
		chromedp.OuterHTML("html", &html),
		chromedp.ActionFunc(func(ctx context.Context) error {
			f.persistCookies(ctx, domain)
			return nil
		}),
	)

	if err := chromedp.Run(timeoutCtx, tasks...); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: 就绪条件 %q 未满足: %v", ErrTimeout, waitSelector, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	if isRobotCheck(html) {
		return nil, fmt.Errorf("%w: 命中机器人验证页", ErrBlocked)
	}

	return NewPage(url, html)
}

// restoreCookies 导航前恢复目标域名的Cookie
func (f *Fetcher) restoreCookies(ctx context.Context, domain string) error {
	if f.cookieCtrl == nil || domain == "" {
		return nil
	}

	cookies, err := f.cookieCtrl.GetDomainCookies(domain)
	if err != nil {
		// 没有历史Cookie不算失败
		return nil
	}

	for _, c := range cookies {
		expr := cdp.TimeSinceEpoch(c.Expires)
		err := network.SetCookie(c.Name, c.Value).
			WithDomain(c.Domain).
			WithPath(c.Path).
			WithSecure(c.Secure).
			WithHTTPOnly(c.HttpOnly).
			WithExpires(&expr).
			Do(ctx)
		if err != nil {
			return fmt.Errorf("恢复Cookie失败: %w", err)
		}
	}

	return nil
}

// persistCookies 抓取结束后回存会话Cookie
func (f *Fetcher) persistCookies(ctx context.Context, domain string) {
	if f.cookieCtrl == nil || domain == "" {
		return
	}

	raw, err := network.GetCookies().Do(ctx)
	if err != nil {
		return
	}

	cookies := make([]cookie.Cookie, 0, len(raw))
	for _, c := range raw {
		cookies = append(cookies, cookie.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  time.Unix(int64(c.Expires), 0),
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		})
	}

	if err := f.cookieCtrl.SaveDomainCookies(domain, cookies); err != nil {
		// Cookie回存失败不影响本次抓取结果
		return
	}
}

// hostOf 提取URL的主机名
func hostOf(rawURL string) string {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// isRobotCheck 判断页面是否为机器人验证页
func isRobotCheck(html string) bool {
	return strings.Contains(html, "Robot Check") ||
		strings.Contains(html, "Type the characters you see in this image")
}
