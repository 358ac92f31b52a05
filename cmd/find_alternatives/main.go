// 同类商品搜索工具：按商品名在其他平台的搜索页上查找同类商品
// 用法: find_alternatives -name <商品名> [-platform Amazon] [-save -product <商品ID>]
// 指定 -save 时结果写入MongoDB，否则只打印到标准输出
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"price_tracker/config"
	"price_tracker/controllers"
	"price_tracker/internal/model"
	"price_tracker/pkg/fetcher"
	"price_tracker/pkg/mongodb"
	"price_tracker/pkg/ratelimit"
	"price_tracker/pkg/useragent"
	"price_tracker/spiders/alternatives"
)

func main() {
	name := flag.String("name", "", "商品名称")
	platform := flag.String("platform", "", "商品所属平台，该平台不参与搜索")
	timeout := flag.Duration("timeout", 10*time.Second, "页面加载超时时间")
	save := flag.Bool("save", false, "将结果保存到MongoDB")
	productID := flag.String("product", "", "关联的跟踪商品ID，-save时必填")
	flag.Parse()

	if *name == "" {
		fmt.Fprintln(os.Stderr, "用法: find_alternatives -name <商品名> [-platform Amazon] [-save -product <商品ID>]")
		os.Exit(1)
	}
	if *save && *productID == "" {
		fmt.Fprintln(os.Stderr, "-save 需要通过 -product 指定关联商品ID")
		os.Exit(1)
	}

	logger := controllers.NewLoggerManager()
	defer logger.Close()

	limiter := ratelimit.NewRateLimitController(nil, ratelimit.Config{DefaultRate: 1, DefaultBurst: 2})
	pageFetcher := fetcher.NewFetcher(fetcher.Config{Timeout: *timeout},
		useragent.NewUserAgentController(nil), nil, limiter)

	finder := alternatives.NewFinder(pageFetcher, limiter, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 6*(*timeout))
	defer cancel()

	alts := finder.Find(ctx, *name, model.Platform(*platform))
	if len(alts) == 0 {
		fmt.Fprintln(os.Stderr, "未找到同类商品")
		os.Exit(1)
	}

	if *save {
		if err := config.LoadConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "配置加载失败: %v\n", err)
			os.Exit(1)
		}
		cfg := &config.GlobalConfig

		mongoClient, err := mongodb.NewMongoClient(&mongodb.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			Timeout:  cfg.Mongo.Timeout.Std(),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "创建MongoDB客户端失败: %v\n", err)
			os.Exit(1)
		}
		defer mongoClient.Close()

		store := mongodb.NewProductStore(mongoClient, cfg.Mongo.Database)
		if err := store.SaveAlternatives(ctx, *productID, alts); err != nil {
			fmt.Fprintf(os.Stderr, "保存同类商品失败: %v\n", err)
			os.Exit(1)
		}
	}

	data, _ := json.MarshalIndent(alts, "", "  ")
	fmt.Println(string(data))
}
