// Package monitor 驱动所有跟踪商品的周期性价格检查
// 单个后台工作协程串行执行检查周期，周期内商品严格逐个处理
// 任何商品的失败都只影响它自己，本轮其余商品照常检查
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"price_tracker/controllers"
	"price_tracker/internal/model"
	"price_tracker/pkg/price"
	"price_tracker/pkg/redis"

	"github.com/google/uuid"
)

// Storage 外部存储层约定
// 每个商品的读写要求按商品粒度具备事务性
type Storage interface {
	ListActiveTrackedProducts(ctx context.Context) ([]*model.TrackedProduct, error)
	GetTrackedProduct(ctx context.Context, productID string) (*model.TrackedProduct, error)
	UpdateCurrentPrice(ctx context.Context, productID string, price float64, checkedAt time.Time) error
	TouchLastChecked(ctx context.Context, productID string, checkedAt time.Time) error
	AppendHistory(ctx context.Context, entry *model.PriceHistoryEntry) error
}

// Notifier 外部通知器约定
// 通知只尽力而为：发送失败不回滚已经落库的价格和历史
type Notifier interface {
	OnSignificantChange(ctx context.Context, event *model.AlertEvent) error
}

// ProductExtractor 商品抽取能力
type ProductExtractor interface {
	ScrapeProduct(ctx context.Context, url string) *model.ProductSnapshot
}

// Pauser 商品之间的退避延迟
type Pauser interface {
	Pause(ctx context.Context) error
}

// Config 调度器配置
type Config struct {
	Interval     time.Duration // 周期间隔，默认6小时
	InitialDelay time.Duration // 启动后首轮检查的延迟，默认1分钟
	LockTTL      time.Duration // 周期互斥锁的过期时间
}

// cycleLockKey 周期互斥锁的Redis键
const cycleLockKey = "price_tracker:monitor:cycle_lock"

// Scheduler 价格监控调度器
// 显式对象持有自己的生命周期状态，不依赖全局单例
type Scheduler struct {
	storage   Storage
	notifier  Notifier
	extractor ProductExtractor
	pauser    Pauser
	detector  *price.Detector
	logger    *controllers.LoggerManager

	redisClient *redis.RedisClient // 周期互斥锁，可为空
	config      Config

	mu       sync.Mutex // 保护运行状态
	running  bool
	stopChan chan struct{}

	cycleMu sync.Mutex // 本实例内的周期互斥

	productLocks sync.Map // productID -> *sync.Mutex，串行化同一商品的比较和更新
}

// NewScheduler 创建价格监控调度器
func NewScheduler(cfg Config, storage Storage, notifier Notifier, ext ProductExtractor,
	pauser Pauser, detector *price.Detector, redisClient *redis.RedisClient,
	logger *controllers.LoggerManager) *Scheduler {

	if cfg.Interval <= 0 {
		cfg.Interval = 6 * time.Hour
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = time.Minute
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = time.Hour
	}
	if detector == nil {
		detector = price.NewDetector(price.DefaultSignificanceThreshold)
	}

	return &Scheduler{
		storage:     storage,
		notifier:    notifier,
		extractor:   ext,
		pauser:      pauser,
		detector:    detector,
		logger:      logger,
		redisClient: redisClient,
		config:      cfg,
	}
}

// Start 启动调度器，重复调用是空操作
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.stopChan = make(chan struct{})

	go s.run(s.stopChan)
	s.log("INFO", fmt.Sprintf("价格监控调度器已启动，周期间隔 %s", s.config.Interval))
}

// Stop 停止调度器，重复调用是空操作
// 只阻止后续周期启动，不打断正在进行的周期
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.running = false
	close(s.stopChan)
	s.log("INFO", "价格监控调度器已停止")
}

// IsRunning 返回调度器是否在运行
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// run 后台工作协程：启动后先跑一轮加急检查，之后按固定间隔循环
func (s *Scheduler) run(stopChan chan struct{}) {
	initial := time.NewTimer(s.config.InitialDelay)
	defer initial.Stop()

	select {
	case <-stopChan:
		return
	case <-initial.C:
		if err := s.RunCycle(context.Background()); err != nil {
			s.log("ERROR", "首轮价格检查失败: "+err.Error())
		}
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopChan:
			return
		case <-ticker.C:
			if err := s.RunCycle(context.Background()); err != nil {
				s.log("ERROR", "价格检查周期失败: "+err.Error())
			}
		}
	}
}

// RunCycle 执行一轮完整的价格检查
// 可安全地被外部直接调用；同一时刻只允许一轮在跑
func (s *Scheduler) RunCycle(ctx context.Context) error {
	release, acquired := s.acquireCycleLock()
	if !acquired {
		s.log("WARN", "已有检查周期在进行，本轮跳过")
		return nil
	}
	defer release()

	products, err := s.storage.ListActiveTrackedProducts(ctx)
	if err != nil {
		return fmt.Errorf("查询跟踪商品失败: %w", err)
	}

	s.log("INFO", fmt.Sprintf("开始价格检查，共 %d 个跟踪商品", len(products)))

	checked, updated := 0, 0
	for i, product := range products {
		// 商品之间插入随机延迟，这是有意的退避，不是偶然的慢
		if i > 0 && s.pauser != nil {
			if err := s.pauser.Pause(ctx); err != nil {
				s.log("WARN", "周期被取消: "+err.Error())
				break
			}
		}

		changed, err := s.checkProduct(ctx, product.ID)
		if err != nil {
			// 单个商品失败不中断本轮，其余商品照常检查
			s.log("ERROR", fmt.Sprintf("检查商品 %s 失败: %v", product.ID, err))
			continue
		}
		checked++
		if changed {
			updated++
		}
	}

	s.log("INFO", fmt.Sprintf("价格检查完成，成功 %d 个，更新 %d 个", checked, updated))
	return nil
}

// CheckProductNow 对单个商品立即执行一次检查
// 与定时周期共用同一把商品锁和同一套阈值规则
func (s *Scheduler) CheckProductNow(ctx context.Context, productID string) error {
	_, err := s.checkProduct(ctx, productID)
	return err
}

// checkProduct 检查单个商品的价格
// 比较、抓取和更新都在商品锁内完成，定时检查和按需检查不会交错执行
// 比较基准在锁内重读，排队的检查总是基于前一次已提交的价格做判断
// 返回是否发生了显著变动
func (s *Scheduler) checkProduct(ctx context.Context, productID string) (bool, error) {
	lock := s.lockFor(productID)
	lock.Lock()
	defer lock.Unlock()

	product, err := s.storage.GetTrackedProduct(ctx, productID)
	if err != nil {
		return false, fmt.Errorf("查询商品失败: %w", err)
	}

	snapshot := s.extractor.ScrapeProduct(ctx, product.ProductURL)
	if !snapshot.HasPrice() {
		// 抓取失败只跳过本轮，绝不触碰已记录的价格状态
		s.log("WARN", fmt.Sprintf("商品 %s 本轮未取到价格，跳过", product.ID))
		return false, nil
	}

	now := time.Now()

	if !s.detector.IsSignificant(product.CurrentPrice, snapshot.Price) {
		if err := s.storage.TouchLastChecked(ctx, product.ID, now); err != nil {
			return false, fmt.Errorf("更新检查时间失败: %w", err)
		}
		return false, nil
	}

	s.log("INFO", fmt.Sprintf("商品 %s 价格变动: %.2f -> %.2f", product.ID, product.CurrentPrice, snapshot.Price))

	// 先落历史再更新当前价格，保证历史里总能找到已接受的价格
	entry := &model.PriceHistoryEntry{
		ProductID: product.ID,
		Price:     snapshot.Price,
		Timestamp: now,
	}
	if err := s.storage.AppendHistory(ctx, entry); err != nil {
		return false, fmt.Errorf("写入价格历史失败: %w", err)
	}

	if err := s.storage.UpdateCurrentPrice(ctx, product.ID, snapshot.Price, now); err != nil {
		return false, fmt.Errorf("更新当前价格失败: %w", err)
	}

	// 通知失败不回滚已提交的价格和历史
	if s.notifier != nil {
		event := &model.AlertEvent{
			ID:          uuid.NewString(),
			ProductID:   product.ID,
			ProductName: product.ProductName,
			OldPrice:    product.CurrentPrice,
			NewPrice:    snapshot.Price,
			URL:         product.ProductURL,
			Platform:    product.Platform,
		}
		if err := s.notifier.OnSignificantChange(ctx, event); err != nil {
			s.log("WARN", fmt.Sprintf("商品 %s 通知发送失败: %v", product.ID, err))
		}
	}

	return true, nil
}

// lockFor 获取商品对应的互斥锁
func (s *Scheduler) lockFor(productID string) *sync.Mutex {
	actual, _ := s.productLocks.LoadOrStore(productID, &sync.Mutex{})
	return actual.(*sync.Mutex)
}

// acquireCycleLock 获取周期互斥锁
// 本实例内先抢本地锁，Redis可用时再抢跨实例锁
// Redis不可用时退化为本实例内的互斥（商品锁仍然有效）
func (s *Scheduler) acquireCycleLock() (func(), bool) {
	if !s.cycleMu.TryLock() {
		return nil, false
	}

	if s.redisClient == nil {
		return s.cycleMu.Unlock, true
	}

	ok, err := s.redisClient.SetNX(cycleLockKey, time.Now().Unix(), s.config.LockTTL)
	if err != nil {
		s.log("WARN", "获取跨实例周期锁失败，本轮降级为本地互斥: "+err.Error())
		return s.cycleMu.Unlock, true
	}
	if !ok {
		s.cycleMu.Unlock()
		return nil, false
	}

	return func() {
		if err := s.redisClient.Del(cycleLockKey); err != nil {
			s.log("WARN", "释放周期锁失败: "+err.Error())
		}
		s.cycleMu.Unlock()
	}, true
}

// log 带空指针保护的日志输出
func (s *Scheduler) log(level, message string) {
	if s.logger != nil {
		s.logger.Log(level, message)
	}
}
