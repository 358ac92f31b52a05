// Package cookie 按域名持久化浏览器Cookie
// 渲染抓取在导航前恢复目标域名的Cookie、结束后回存
// 让重复访问在目标站点看起来像同一个回头浏览器
package cookie

import (
	"log"
	"sync"
	"time"

	"price_tracker/pkg/mongodb"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Cookie 结构体定义单个Cookie的信息
type Cookie struct {
	Name     string    `json:"name" bson:"name"`           // Cookie名称
	Value    string    `json:"value" bson:"value"`         // Cookie值
	Domain   string    `json:"domain" bson:"domain"`       // 所属域名
	Path     string    `json:"path" bson:"path"`           // Cookie路径
	Expires  time.Time `json:"expires" bson:"expires"`     // 过期时间
	Secure   bool      `json:"secure" bson:"secure"`       // 是否只通过HTTPS传输
	HttpOnly bool      `json:"http_only" bson:"http_only"` // 是否只允许HTTP访问
}

// DomainSession 按域名聚合的Cookie会话
type DomainSession struct {
	Domain    string    `json:"domain" bson:"_id"`            // 域名，作为主键
	Cookies   []Cookie  `json:"cookies" bson:"cookies"`       // Cookie列表
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"` // 最近更新时间
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"` // 会话过期时间
}

// CookieControl Cookie管理器
type CookieControl struct {
	sessions      map[string]*DomainSession // 会话内存缓存，按域名索引
	mu            sync.RWMutex              // 读写锁
	mongoClient   *mongodb.MongoClient      // MongoDB客户端
	database      string                    // 数据库名
	collection    string                    // 集合名
	maxAge        time.Duration             // 会话最大存活时间
	checkInterval time.Duration             // 过期检查间隔
}

// NewCookieControl 创建新的Cookie控制器
func NewCookieControl(mongoClient *mongodb.MongoClient, config Config) *CookieControl {
	cc := &CookieControl{
		sessions:      make(map[string]*DomainSession),
		mongoClient:   mongoClient,
		database:      config.Database,
		collection:    config.Collection,
		maxAge:        config.MaxAge,
		checkInterval: config.CheckInterval,
	}

	// 启动定期清理
	go cc.startCleanup()

	return cc
}

// SaveDomainCookies 保存指定域名的Cookie
func (cc *CookieControl) SaveDomainCookies(domain string, cookies []Cookie) error {
	now := time.Now()
	session := &DomainSession{
		Domain:    domain,
		Cookies:   cookies,
		UpdatedAt: now,
		ExpiresAt: now.Add(cc.maxAge),
	}

	cc.mu.Lock()
	cc.sessions[domain] = session
	cc.mu.Unlock()

	coll := cc.mongoClient.Client().Database(cc.database).Collection(cc.collection)
	_, err := coll.UpdateOne(
		cc.mongoClient.Context(),
		bson.M{"_id": domain},
		bson.M{"$set": session},
		options.Update().SetUpsert(true),
	)

	return err
}

// GetDomainCookies 获取指定域名的有效Cookie
// 优先读内存缓存，未命中时回源MongoDB
func (cc *CookieControl) GetDomainCookies(domain string) ([]Cookie, error) {
	cc.mu.RLock()
	if session, exists := cc.sessions[domain]; exists {
		cc.mu.RUnlock()
		return validCookies(session.Cookies), nil
	}
	cc.mu.RUnlock()

	// 从MongoDB获取
	coll := cc.mongoClient.Client().Database(cc.database).Collection(cc.collection)
	var session DomainSession
	err := coll.FindOne(cc.mongoClient.Context(), bson.M{"_id": domain}).Decode(&session)
	if err != nil {
		return nil, err
	}

	// 缓存到内存
	cc.mu.Lock()
	cc.sessions[domain] = &session
	cc.mu.Unlock()

	return validCookies(session.Cookies), nil
}

// validCookies 过滤出尚未过期的Cookie
func validCookies(cookies []Cookie) []Cookie {
	now := time.Now()
	valid := make([]Cookie, 0, len(cookies))
	for _, c := range cookies {
		if c.Expires.IsZero() || c.Expires.After(now) {
			valid = append(valid, c)
		}
	}
	return valid
}

// DeleteExpiredSessions 删除过期会话
func (cc *CookieControl) DeleteExpiredSessions() error {
	now := time.Now()

	cc.mu.Lock()
	for domain, session := range cc.sessions {
		if session.ExpiresAt.Before(now) {
			delete(cc.sessions, domain)
		}
	}
	cc.mu.Unlock()

	coll := cc.mongoClient.Client().Database(cc.database).Collection(cc.collection)
	_, err := coll.DeleteMany(
		cc.mongoClient.Context(),
		bson.M{"expires_at": bson.M{"$lt": now}},
	)

	return err
}

// startCleanup 启动定期清理过期会话
func (cc *CookieControl) startCleanup() {
	ticker := time.NewTicker(cc.checkInterval)
	for range ticker.C {
		if err := cc.DeleteExpiredSessions(); err != nil {
			log.Printf("清理过期会话失败: %v", err)
		}
	}
}
