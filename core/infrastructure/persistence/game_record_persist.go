package persistence

import (
	"context"
	"errors"

	"github.com/curetcore/dominodominicano/common/database"
	"github.com/curetcore/dominodominicano/common/log"
	"github.com/curetcore/dominodominicano/core/domain/entity"
	"github.com/curetcore/dominodominicano/core/domain/repository"
	"github.com/curetcore/dominodominicano/core/infrastructure/message/transfer"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	matchRecordCollection = "match_records"
	roundRecordCollection = "round_records"
)

type GameRecordRepository struct {
	mongo *database.MongoManager
}

func NewGameRecordRepository(mongoMgr *database.MongoManager) repository.GameRecordRepository {
	return &GameRecordRepository{mongo: mongoMgr}
}

// SaveMatchRecord 保存整局记录（元数据）
// 整局结束时 upsert，覆盖开局时写入的 in_progress 文档
func (r *GameRecordRepository) SaveMatchRecord(ctx context.Context, record *entity.MatchRecord) error {
	collection := r.mongo.Db.Collection(matchRecordCollection)

	opts := options.Replace().SetUpsert(true)
	_, err := collection.ReplaceOne(ctx, bson.M{"_id": record.ID}, record, opts)
	if err != nil {
		log.Error("保存整局记录失败: %v", err)
		return transfer.ErrMongodb
	}
	return nil
}

// FindMatchRecord 根据ID查找整局记录
func (r *GameRecordRepository) FindMatchRecord(ctx context.Context, recordID primitive.ObjectID) (*entity.MatchRecord, error) {
	collection := r.mongo.Db.Collection(matchRecordCollection)

	var record entity.MatchRecord
	err := collection.FindOne(ctx, bson.M{"_id": recordID}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrRecordNotFound
		}
		log.Error("查询整局记录失败: %v", err)
		return nil, err
	}

	return &record, nil
}

// FindMatchRecordsByUser 查找用户参与的整局记录（分页）
func (r *GameRecordRepository) FindMatchRecordsByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.MatchRecord, error) {
	collection := r.mongo.Db.Collection(matchRecordCollection)

	filter := bson.M{"players.user_id": userID}
	opts := options.Find().
		SetSort(bson.M{"start_time": -1}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		log.Error("查询用户整局记录失败: %v", err)
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*entity.MatchRecord
	if err := cursor.All(ctx, &records); err != nil {
		log.Error("解析整局记录失败: %v", err)
		return nil, err
	}

	return records, nil
}

// FindMatchRecordByRoom 根据房间ID查找整局记录
func (r *GameRecordRepository) FindMatchRecordByRoom(ctx context.Context, roomID string) (*entity.MatchRecord, error) {
	collection := r.mongo.Db.Collection(matchRecordCollection)

	var record entity.MatchRecord
	err := collection.FindOne(ctx, bson.M{"room_id": roomID}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrRecordNotFound
		}
		log.Error("查询整局记录失败: %v", err)
		return nil, err
	}

	return &record, nil
}

// SaveRoundRecord 保存回合记录（每回合一个文档）
func (r *GameRecordRepository) SaveRoundRecord(ctx context.Context, round *entity.RoundRecord) error {
	collection := r.mongo.Db.Collection(roundRecordCollection)

	_, err := collection.InsertOne(ctx, round)
	if err != nil {
		log.Error("保存回合记录失败: %v", err)
		return transfer.ErrMongodb
	}
	return nil
}

// SaveRoundRecords 批量保存回合记录（使用 MongoDB InsertMany）
func (r *GameRecordRepository) SaveRoundRecords(ctx context.Context, rounds []*entity.RoundRecord) error {
	if len(rounds) == 0 {
		return nil
	}
	collection := r.mongo.Db.Collection(roundRecordCollection)

	docs := make([]interface{}, 0, len(rounds))
	for _, round := range rounds {
		docs = append(docs, round)
	}

	_, err := collection.InsertMany(ctx, docs)
	if err != nil {
		log.Error("批量保存回合记录失败: %v", err)
		return transfer.ErrMongodb
	}
	return nil
}

// FindRoundRecords 查找整局的所有回合记录（按回合数排序）
func (r *GameRecordRepository) FindRoundRecords(ctx context.Context, matchRecordID primitive.ObjectID) ([]*entity.RoundRecord, error) {
	collection := r.mongo.Db.Collection(roundRecordCollection)

	filter := bson.M{"match_record_id": matchRecordID}
	opts := options.Find().SetSort(bson.M{"round_number": 1})

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		log.Error("查询回合记录失败: %v", err)
		return nil, err
	}
	defer cursor.Close(ctx)

	var rounds []*entity.RoundRecord
	if err := cursor.All(ctx, &rounds); err != nil {
		log.Error("解析回合记录失败: %v", err)
		return nil, err
	}

	return rounds, nil
}
