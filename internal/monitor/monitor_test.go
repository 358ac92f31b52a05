package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"price_tracker/internal/model"
	"price_tracker/pkg/price"
)

// fakeStorage 内存存储，模拟外部存储层
type fakeStorage struct {
	mu       sync.Mutex
	products map[string]*model.TrackedProduct
	history  []*model.PriceHistoryEntry
}

func newFakeStorage(products ...*model.TrackedProduct) *fakeStorage {
	fs := &fakeStorage{products: make(map[string]*model.TrackedProduct)}
	for _, p := range products {
		fs.products[p.ID] = p
	}
	return fs
}

func (fs *fakeStorage) ListActiveTrackedProducts(context.Context) ([]*model.TrackedProduct, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	// 和真实存储一样返回副本，调用方拿不到内部状态的指针
	var list []*model.TrackedProduct
	for _, p := range fs.products {
		if p.IsActive {
			clone := *p
			list = append(list, &clone)
		}
	}
	return list, nil
}

func (fs *fakeStorage) GetTrackedProduct(_ context.Context, id string) (*model.TrackedProduct, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	p, ok := fs.products[id]
	if !ok {
		return nil, errors.New("商品不存在")
	}
	clone := *p
	return &clone, nil
}

func (fs *fakeStorage) UpdateCurrentPrice(_ context.Context, id string, value float64, checkedAt time.Time) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.products[id].CurrentPrice = value
	fs.products[id].LastCheckedAt = checkedAt
	return nil
}

func (fs *fakeStorage) TouchLastChecked(_ context.Context, id string, checkedAt time.Time) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.products[id].LastCheckedAt = checkedAt
	return nil
}

func (fs *fakeStorage) AppendHistory(_ context.Context, entry *model.PriceHistoryEntry) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.history = append(fs.history, entry)
	return nil
}

func (fs *fakeStorage) historyCount(productID string) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	count := 0
	for _, e := range fs.history {
		if e.ProductID == productID {
			count++
		}
	}
	return count
}

// fakeNotifier 收集通知事件，可模拟发送失败
type fakeNotifier struct {
	mu     sync.Mutex
	events []*model.AlertEvent
	fail   bool
}

func (fn *fakeNotifier) OnSignificantChange(_ context.Context, event *model.AlertEvent) error {
	fn.mu.Lock()
	defer fn.mu.Unlock()
	fn.events = append(fn.events, event)
	if fn.fail {
		return errors.New("通知服务不可用")
	}
	return nil
}

// fakeExtractor 按URL返回预设快照，nil表示抓取失败
type fakeExtractor struct {
	snapshots map[string]*model.ProductSnapshot
}

func (fe *fakeExtractor) ScrapeProduct(_ context.Context, url string) *model.ProductSnapshot {
	return fe.snapshots[url]
}

// gatedExtractor 第一次抓取在商品锁内阻塞，直到gate被关闭
// 用于构造两次检查在商品锁上排队的时序
type gatedExtractor struct {
	snapshot *model.ProductSnapshot
	gate     chan struct{}
	entered  chan struct{}
	once     sync.Once
	calls    int32
}

func (ge *gatedExtractor) ScrapeProduct(_ context.Context, _ string) *model.ProductSnapshot {
	atomic.AddInt32(&ge.calls, 1)
	ge.once.Do(func() {
		close(ge.entered)
		<-ge.gate
	})
	return ge.snapshot
}

// newTestScheduler 构造一个不会自己跑周期的调度器
func newTestScheduler(storage Storage, notifier Notifier, ext ProductExtractor) *Scheduler {
	return NewScheduler(Config{
		Interval:     time.Hour,
		InitialDelay: time.Hour,
	}, storage, notifier, ext, nil, price.NewDetector(price.DefaultSignificanceThreshold), nil, nil)
}

func testProduct(id, url string, current float64) *model.TrackedProduct {
	return &model.TrackedProduct{
		ID:           id,
		ProductURL:   url,
		ProductName:  "测试商品" + id,
		CurrentPrice: current,
		Platform:     model.PlatformAmazon,
		IsActive:     true,
	}
}

// TestCycleSignificantChange 测试显著变动：落历史、更新价格、发出一条通知
func TestCycleSignificantChange(t *testing.T) {
	storage := newFakeStorage(testProduct("p1", "https://amazon.in/p1", 1000.00))
	notifier := &fakeNotifier{}
	ext := &fakeExtractor{snapshots: map[string]*model.ProductSnapshot{
		"https://amazon.in/p1": {Price: 1015.00, Platform: model.PlatformAmazon},
	}}

	s := newTestScheduler(storage, notifier, ext)
	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("周期执行失败: %v", err)
	}

	if got := storage.products["p1"].CurrentPrice; got != 1015.00 {
		t.Errorf("当前价格应更新为 1015, 实际 %v", got)
	}
	if count := storage.historyCount("p1"); count != 1 {
		t.Errorf("应追加1条历史记录, 实际 %d", count)
	}
	if len(notifier.events) != 1 {
		t.Fatalf("应发出1条通知, 实际 %d", len(notifier.events))
	}
	event := notifier.events[0]
	if event.OldPrice != 1000.00 || event.NewPrice != 1015.00 {
		t.Errorf("通知内容错误: old=%v new=%v", event.OldPrice, event.NewPrice)
	}
}

// TestCycleInsignificantChange 测试不显著变动：不落历史、价格不变
func TestCycleInsignificantChange(t *testing.T) {
	storage := newFakeStorage(testProduct("p1", "https://amazon.in/p1", 1000.00))
	notifier := &fakeNotifier{}
	ext := &fakeExtractor{snapshots: map[string]*model.ProductSnapshot{
		"https://amazon.in/p1": {Price: 1005.00},
	}}

	s := newTestScheduler(storage, notifier, ext)
	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("周期执行失败: %v", err)
	}

	if got := storage.products["p1"].CurrentPrice; got != 1000.00 {
		t.Errorf("当前价格不应变化, 实际 %v", got)
	}
	if count := storage.historyCount("p1"); count != 0 {
		t.Errorf("不应追加历史记录, 实际 %d", count)
	}
	if len(notifier.events) != 0 {
		t.Errorf("不应发出通知, 实际 %d", len(notifier.events))
	}
	if storage.products["p1"].LastCheckedAt.IsZero() {
		t.Error("检查时间应被更新")
	}
}

// TestCycleFailureIsolation 测试失败隔离：A抓取失败不影响B的检查和更新
func TestCycleFailureIsolation(t *testing.T) {
	storage := newFakeStorage(
		testProduct("pa", "https://amazon.in/pa", 500.00),
		testProduct("pb", "https://amazon.in/pb", 1000.00),
	)
	notifier := &fakeNotifier{}
	ext := &fakeExtractor{snapshots: map[string]*model.ProductSnapshot{
		// pa 缺失，模拟抓取失败返回nil
		"https://amazon.in/pb": {Price: 1100.00},
	}}

	s := newTestScheduler(storage, notifier, ext)
	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("周期执行失败: %v", err)
	}

	// pa 的状态完全不动
	if got := storage.products["pa"].CurrentPrice; got != 500.00 {
		t.Errorf("抓取失败的商品价格不应变化, 实际 %v", got)
	}
	if count := storage.historyCount("pa"); count != 0 {
		t.Errorf("抓取失败的商品不应有历史记录, 实际 %d", count)
	}

	// pb 照常更新
	if got := storage.products["pb"].CurrentPrice; got != 1100.00 {
		t.Errorf("pb 应更新为 1100, 实际 %v", got)
	}
	if count := storage.historyCount("pb"); count != 1 {
		t.Errorf("pb 应有1条历史记录, 实际 %d", count)
	}
}

// TestCycleIdempotent 测试幂等性：价格没有真实变化时第二轮不产生新历史
func TestCycleIdempotent(t *testing.T) {
	storage := newFakeStorage(testProduct("p1", "https://amazon.in/p1", 1000.00))
	ext := &fakeExtractor{snapshots: map[string]*model.ProductSnapshot{
		"https://amazon.in/p1": {Price: 1050.00},
	}}

	s := newTestScheduler(storage, &fakeNotifier{}, ext)

	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("第一轮执行失败: %v", err)
	}
	if count := storage.historyCount("p1"); count != 1 {
		t.Fatalf("第一轮应追加1条历史记录, 实际 %d", count)
	}

	// 第二轮抓到同样的价格，不应产生新记录
	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("第二轮执行失败: %v", err)
	}
	if count := storage.historyCount("p1"); count != 1 {
		t.Errorf("第二轮不应追加历史记录, 实际共 %d 条", count)
	}
}

// TestNotifierFailureDoesNotRollback 测试通知失败不回滚已提交的价格和历史
func TestNotifierFailureDoesNotRollback(t *testing.T) {
	storage := newFakeStorage(testProduct("p1", "https://amazon.in/p1", 1000.00))
	notifier := &fakeNotifier{fail: true}
	ext := &fakeExtractor{snapshots: map[string]*model.ProductSnapshot{
		"https://amazon.in/p1": {Price: 1200.00},
	}}

	s := newTestScheduler(storage, notifier, ext)
	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("通知失败不应使周期报错: %v", err)
	}

	if got := storage.products["p1"].CurrentPrice; got != 1200.00 {
		t.Errorf("通知失败后价格更新应保留, 实际 %v", got)
	}
	if count := storage.historyCount("p1"); count != 1 {
		t.Errorf("通知失败后历史记录应保留, 实际 %d", count)
	}
}

// TestAbsentPriceSkipsProduct 测试价格缺失的快照不触碰任何状态
func TestAbsentPriceSkipsProduct(t *testing.T) {
	storage := newFakeStorage(testProduct("p1", "https://amazon.in/p1", 1000.00))
	ext := &fakeExtractor{snapshots: map[string]*model.ProductSnapshot{
		"https://amazon.in/p1": {Name: "有名字没价格", Price: 0},
	}}

	s := newTestScheduler(storage, &fakeNotifier{}, ext)
	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("周期执行失败: %v", err)
	}

	if got := storage.products["p1"].CurrentPrice; got != 1000.00 {
		t.Errorf("价格缺失时当前价格不应变化, 实际 %v", got)
	}
	if count := storage.historyCount("p1"); count != 0 {
		t.Errorf("价格缺失时不应有历史记录, 实际 %d", count)
	}
	if !storage.products["p1"].LastCheckedAt.IsZero() {
		t.Error("价格缺失时不应更新检查时间")
	}
}

// TestConcurrentCheckSameProduct 测试同一商品的并发检查不产生重复记录
// 第二次检查在商品锁上排队，放行后必须基于第一次已提交的价格做比较
func TestConcurrentCheckSameProduct(t *testing.T) {
	storage := newFakeStorage(testProduct("p1", "https://amazon.in/p1", 1000.00))
	notifier := &fakeNotifier{}
	ext := &gatedExtractor{
		snapshot: &model.ProductSnapshot{Price: 1015.00},
		gate:     make(chan struct{}),
		entered:  make(chan struct{}),
	}

	s := newTestScheduler(storage, notifier, ext)

	first := make(chan error, 1)
	go func() { first <- s.CheckProductNow(context.Background(), "p1") }()
	<-ext.entered // 第一次检查已持有商品锁并卡在抓取上

	second := make(chan error, 1)
	go func() { second <- s.CheckProductNow(context.Background(), "p1") }()
	time.Sleep(50 * time.Millisecond) // 让第二次检查排到商品锁上

	close(ext.gate)
	if err := <-first; err != nil {
		t.Fatalf("第一次检查失败: %v", err)
	}
	if err := <-second; err != nil {
		t.Fatalf("第二次检查失败: %v", err)
	}

	if count := storage.historyCount("p1"); count != 1 {
		t.Errorf("一次真实变价只应产生1条历史, 实际 %d", count)
	}
	if len(notifier.events) != 1 {
		t.Errorf("一次真实变价只应发出1条通知, 实际 %d", len(notifier.events))
	}
	if got := storage.products["p1"].CurrentPrice; got != 1015.00 {
		t.Errorf("当前价格应为 1015, 实际 %v", got)
	}
}

// TestCycleMutualExclusion 测试同一实例上周期不会并发执行
func TestCycleMutualExclusion(t *testing.T) {
	storage := newFakeStorage(testProduct("p1", "https://amazon.in/p1", 1000.00))
	ext := &gatedExtractor{
		snapshot: &model.ProductSnapshot{Price: 1015.00},
		gate:     make(chan struct{}),
		entered:  make(chan struct{}),
	}

	s := newTestScheduler(storage, &fakeNotifier{}, ext)

	done := make(chan error, 1)
	go func() { done <- s.RunCycle(context.Background()) }()
	<-ext.entered // 第一轮正在进行

	// 第二轮应直接跳过，不报错也不碰任何商品
	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("被跳过的周期不应报错: %v", err)
	}
	if calls := atomic.LoadInt32(&ext.calls); calls != 1 {
		t.Errorf("被跳过的周期不应抓取任何商品, 抓取次数 %d", calls)
	}

	close(ext.gate)
	if err := <-done; err != nil {
		t.Fatalf("第一轮执行失败: %v", err)
	}
	if count := storage.historyCount("p1"); count != 1 {
		t.Errorf("应只有第一轮产生的1条历史, 实际 %d", count)
	}
}

// TestStartStopIdempotent 测试启动和停止的幂等性
func TestStartStopIdempotent(t *testing.T) {
	s := newTestScheduler(newFakeStorage(), &fakeNotifier{}, &fakeExtractor{})

	s.Start()
	s.Start() // 重复启动应为空操作
	if !s.IsRunning() {
		t.Error("启动后应处于运行状态")
	}

	s.Stop()
	if s.IsRunning() {
		t.Error("停止后不应处于运行状态")
	}
	s.Stop() // 重复停止应为空操作
}

// TestCheckProductNow 测试按需检查与定时检查共用同一套规则
func TestCheckProductNow(t *testing.T) {
	storage := newFakeStorage(testProduct("p1", "https://amazon.in/p1", 1000.00))
	notifier := &fakeNotifier{}
	ext := &fakeExtractor{snapshots: map[string]*model.ProductSnapshot{
		"https://amazon.in/p1": {Price: 1015.00},
	}}

	s := newTestScheduler(storage, notifier, ext)
	if err := s.CheckProductNow(context.Background(), "p1"); err != nil {
		t.Fatalf("按需检查失败: %v", err)
	}

	if got := storage.products["p1"].CurrentPrice; got != 1015.00 {
		t.Errorf("按需检查应更新价格, 实际 %v", got)
	}
	if count := storage.historyCount("p1"); count != 1 {
		t.Errorf("按需检查应追加历史记录, 实际 %d", count)
	}

	if err := s.CheckProductNow(context.Background(), "missing"); err == nil {
		t.Error("不存在的商品应返回错误")
	}
}
