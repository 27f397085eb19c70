package xquota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// mongoCollection MongoStore 使用的集合操作子集，*mongo.Collection 直接满足
type mongoCollection interface {
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) *mongo.SingleResult
	ReplaceOne(ctx context.Context, filter any, replacement any, opts ...options.Lister[options.ReplaceOptions]) (*mongo.UpdateResult, error)
}

var _ mongoCollection = (*mongo.Collection)(nil)

// mongoExpireField 过期时间字段，TTL 索引建在该字段上
const mongoExpireField = "expire_at"

// mongoRecord 集合中的文档，_id 为限额名称
type mongoRecord struct {
	Key      string     `bson:"_id"`
	Value    string     `bson:"value"`
	ExpireAt *time.Time `bson:"expire_at,omitempty"`
}

// MongoStore 基于 MongoDB 的共享存储
//
// 每个限额一个文档，整条替换写入。MongoDB 的 TTL 监视器按分钟级周期删除过期文档，
// Get 会自行过滤已过期但尚未删除的文档。
type MongoStore struct {
	coll  mongoCollection
	clock func() time.Time
}

// MongoOption MongoStore 选项
type MongoOption func(*MongoStore)

// WithMongoClock 替换 MongoStore 判断过期使用的时间源
func WithMongoClock(clock func() time.Time) MongoOption {
	return func(s *MongoStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewMongoStore 创建 MongoDB 存储
// 建议先调用 EnsureMongoTTLIndex 让过期文档被自动清理。
func NewMongoStore(coll *mongo.Collection, opts ...MongoOption) (*MongoStore, error) {
	if coll == nil {
		return nil, ErrNilStore
	}
	return newMongoStore(coll, opts...), nil
}

func newMongoStore(coll mongoCollection, opts ...MongoOption) *MongoStore {
	s := &MongoStore{coll: coll, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureMongoTTLIndex 在 expire_at 上创建 TTL 索引，重复调用是幂等的
func EnsureMongoTTLIndex(ctx context.Context, coll *mongo.Collection) error {
	if coll == nil {
		return ErrNilStore
	}
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: mongoExpireField, Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0).SetName("xquota_expire_at"),
	})
	if err != nil {
		return fmt.Errorf("xquota: mongo create ttl index: %w", err)
	}
	return nil
}

// Get 实现 Store
func (s *MongoStore) Get(ctx context.Context, key string) (string, error) {
	var rec mongoRecord
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: key}}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("xquota: mongo find %q: %w", key, err)
	}
	if rec.ExpireAt != nil && !s.clock().Before(*rec.ExpireAt) {
		return "", nil
	}
	return rec.Value, nil
}

// Set 实现 Store
// ttl <= 0 时文档不带 expire_at，不会被 TTL 索引删除。
func (s *MongoStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	rec := mongoRecord{Key: key, Value: value}
	if ttl > 0 {
		rec.ExpireAt = ptr(s.clock().Add(ttl).UTC())
	}
	_, err := s.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: key}}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("xquota: mongo replace %q: %w", key, err)
	}
	return nil
}

var _ Store = (*MongoStore)(nil)
