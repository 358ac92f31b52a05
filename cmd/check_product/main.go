// 按需检查工具：抓取单个商品页并打印快照
// 用法: check_product -url <商品页地址>
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"price_tracker/controllers"
	"price_tracker/internal/extractor"
	"price_tracker/pkg/fetcher"
	"price_tracker/pkg/useragent"
)

func main() {
	url := flag.String("url", "", "商品页面地址")
	timeout := flag.Duration("timeout", 10*time.Second, "页面加载超时时间")
	chromePath := flag.String("chrome", "", "Chrome浏览器路径，留空使用系统默认")
	flag.Parse()

	if *url == "" {
		fmt.Fprintln(os.Stderr, "用法: check_product -url <商品页地址>")
		os.Exit(1)
	}

	logger := controllers.NewLoggerManager()
	defer logger.Close()

	pageFetcher := fetcher.NewFetcher(fetcher.Config{
		Timeout:    *timeout,
		ChromePath: *chromePath,
	}, useragent.NewUserAgentController(nil), nil, nil)

	ext := extractor.New(pageFetcher, nil, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*(*timeout))
	defer cancel()

	snapshot := ext.ScrapeProduct(ctx, *url)
	if snapshot == nil {
		fmt.Fprintln(os.Stderr, "抓取失败")
		os.Exit(1)
	}

	data, _ := json.MarshalIndent(snapshot, "", "  ")
	fmt.Println(string(data))
}
