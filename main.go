package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"price_tracker/config"
	"price_tracker/controllers"
	"price_tracker/internal/extractor"
	"price_tracker/internal/monitor"
	"price_tracker/internal/notify"
	"price_tracker/pkg/cookie"
	"price_tracker/pkg/fetcher"
	"price_tracker/pkg/mongodb"
	"price_tracker/pkg/price"
	"price_tracker/pkg/ratelimit"
	"price_tracker/pkg/redis"
	"price_tracker/pkg/useragent"
	"time"
)

func main() {
	// 初始化配置
	if err := config.LoadConfig(); err != nil {
		log.Fatalf("配置初始化失败: %v", err)
	}
	cfg := &config.GlobalConfig

	// 创建并初始化日志管理器
	logger := controllers.NewLoggerManager()
	defer logger.Close() // 确保程序退出时关闭日志文件
	logger.SetLogLevel(cfg.LogLevel)

	// 创建MongoDB客户端
	mongoClient, err := mongodb.NewMongoClient(&mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout.Std(),
	})
	if err != nil {
		log.Fatalf("创建MongoDB客户端失败: %v", err)
	}
	defer mongoClient.Close()

	// 创建Redis客户端，失败时降级为本地限流
	redisClient, err := redis.NewRedisClient(&redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Timeout:  cfg.Redis.Timeout.Std(),
	})
	if err != nil {
		logger.Log("WARN", "Redis不可用，分布式限流和周期锁降级: "+err.Error())
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	// Cookie控制器：渲染抓取复用历史会话
	cookieCtrl := cookie.NewCookieControl(mongoClient, cookie.Config{
		Database:      cfg.Mongo.Database,
		Collection:    "cookies",
		MaxAge:        24 * time.Hour,
		CheckInterval: time.Hour,
	})

	// 限流控制器：商品之间的退避延迟 + 域名限流
	limiter := ratelimit.NewRateLimitController(redisClient, ratelimit.Config{
		RedisKeyPrefix: "price_tracker:ratelimit",
		DefaultRate:    1,
		DefaultBurst:   2,
		WindowSize:     time.Minute,
		WindowLimit:    30,
		DelayMin:       cfg.Monitor.DelayMin.Std(),
		DelayMax:       cfg.Monitor.DelayMax.Std(),
	})

	// 页面抓取器，每次请求前过域名限流
	pageFetcher := fetcher.NewFetcher(fetcher.Config{
		Timeout:    cfg.Fetch.Timeout.Std(),
		ChromePath: cfg.Fetch.ChromePath,
	}, useragent.NewUserAgentController(nil), cookieCtrl, limiter)

	// 抽取器和存储层
	ext := extractor.New(pageFetcher, nil, logger)
	store := mongodb.NewProductStore(mongoClient, cfg.Mongo.Database)

	// 价格监控调度器
	scheduler := monitor.NewScheduler(monitor.Config{
		Interval:     cfg.Monitor.Interval.Std(),
		InitialDelay: cfg.Monitor.InitialDelay.Std(),
	}, store, notify.NewLogNotifier(logger), ext, limiter,
		price.NewDetector(cfg.Monitor.Threshold), redisClient, logger)

	scheduler.Start()
	defer scheduler.Stop()

	// 手动触发的检查周期走任务管理器，最多一个在跑
	taskManager := controllers.NewTaskManager(1)

	// SIGUSR1 立即触发一轮检查，SIGINT/SIGTERM 退出
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1)
	for sig := range sigChan {
		if sig != syscall.SIGUSR1 {
			break
		}
		if _, err := taskManager.StartTask("manual-cycle", func(ctx context.Context) {
			if err := scheduler.RunCycle(ctx); err != nil {
				logger.Log("ERROR", "手动触发的检查周期失败: "+err.Error())
			}
		}); err != nil {
			logger.Log("WARN", "手动检查未启动: "+err.Error())
		}
	}
	logger.Log("INFO", "收到终止信号，开始优雅关闭...")
}
