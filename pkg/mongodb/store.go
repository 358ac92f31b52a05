package mongodb

import (
	"context"
	"fmt"
	"time"

	"price_tracker/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// 集合名称
const (
	trackedProductsCollection = "tracked_products"
	priceHistoryCollection    = "price_history"
	alternativesCollection    = "alternative_products"
)

// ProductStore 跟踪商品与价格历史的存储层
// 每个商品的读写在MongoDB的单文档操作内完成，天然具备按商品的原子性
type ProductStore struct {
	mongoClient *MongoClient // MongoDB客户端
	database    string       // 数据库名
}

// NewProductStore 创建商品存储层实例
func NewProductStore(mongoClient *MongoClient, database string) *ProductStore {
	return &ProductStore{
		mongoClient: mongoClient,
		database:    database,
	}
}

// ListActiveTrackedProducts 查询所有处于跟踪状态的商品
func (s *ProductStore) ListActiveTrackedProducts(ctx context.Context) ([]*model.TrackedProduct, error) {
	coll := s.mongoClient.Client().Database(s.database).Collection(trackedProductsCollection)

	cursor, err := coll.Find(ctx, bson.M{"is_active": true})
	if err != nil {
		return nil, fmt.Errorf("查询跟踪商品失败: %w", err)
	}
	defer cursor.Close(ctx)

	var products []*model.TrackedProduct
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("解析跟踪商品失败: %w", err)
	}

	return products, nil
}

// GetTrackedProduct 按ID查询单个跟踪商品
func (s *ProductStore) GetTrackedProduct(ctx context.Context, productID string) (*model.TrackedProduct, error) {
	coll := s.mongoClient.Client().Database(s.database).Collection(trackedProductsCollection)

	var product model.TrackedProduct
	if err := coll.FindOne(ctx, bson.M{"_id": productID}).Decode(&product); err != nil {
		return nil, fmt.Errorf("查询商品 %s 失败: %w", productID, err)
	}

	return &product, nil
}

// UpdateCurrentPrice 更新商品的当前价格和最近检查时间
func (s *ProductStore) UpdateCurrentPrice(ctx context.Context, productID string, price float64, checkedAt time.Time) error {
	coll := s.mongoClient.Client().Database(s.database).Collection(trackedProductsCollection)

	_, err := coll.UpdateOne(ctx,
		bson.M{"_id": productID},
		bson.M{"$set": bson.M{
			"current_price":   price,
			"last_checked_at": checkedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("更新商品 %s 价格失败: %w", productID, err)
	}

	return nil
}

// TouchLastChecked 只更新商品的最近检查时间
// 价格无显著变动时调用，不触碰当前价格
func (s *ProductStore) TouchLastChecked(ctx context.Context, productID string, checkedAt time.Time) error {
	coll := s.mongoClient.Client().Database(s.database).Collection(trackedProductsCollection)

	_, err := coll.UpdateOne(ctx,
		bson.M{"_id": productID},
		bson.M{"$set": bson.M{"last_checked_at": checkedAt}},
	)
	if err != nil {
		return fmt.Errorf("更新商品 %s 检查时间失败: %w", productID, err)
	}

	return nil
}

// AppendHistory 追加一条价格历史记录
// 历史记录只追加，任何路径都不做修改或删除
func (s *ProductStore) AppendHistory(ctx context.Context, entry *model.PriceHistoryEntry) error {
	coll := s.mongoClient.Client().Database(s.database).Collection(priceHistoryCollection)

	if _, err := coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("写入价格历史失败: %w", err)
	}

	return nil
}

// ListHistory 按时间升序返回某个商品的价格历史
func (s *ProductStore) ListHistory(ctx context.Context, productID string) ([]*model.PriceHistoryEntry, error) {
	coll := s.mongoClient.Client().Database(s.database).Collection(priceHistoryCollection)

	cursor, err := coll.Find(ctx,
		bson.M{"product_id": productID},
		options.Find().SetSort(bson.M{"timestamp": 1}),
	)
	if err != nil {
		return nil, fmt.Errorf("查询价格历史失败: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*model.PriceHistoryEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("解析价格历史失败: %w", err)
	}

	return entries, nil
}

// SaveAlternatives 保存商品在其他平台上的同类商品
func (s *ProductStore) SaveAlternatives(ctx context.Context, productID string, alts []model.Alternative) error {
	if len(alts) == 0 {
		return nil
	}

	coll := s.mongoClient.Client().Database(s.database).Collection(alternativesCollection)

	docs := make([]interface{}, 0, len(alts))
	for _, alt := range alts {
		docs = append(docs, bson.M{
			"original_product_id": productID,
			"name":                alt.Name,
			"price":               alt.Price,
			"url":                 alt.URL,
			"platform":            alt.Platform,
			"image_url":           alt.ImageURL,
		})
	}

	opts := options.InsertMany().SetOrdered(false)
	if _, err := coll.InsertMany(ctx, docs, opts); err != nil {
		return fmt.Errorf("保存同类商品失败: %w", err)
	}

	return nil
}
