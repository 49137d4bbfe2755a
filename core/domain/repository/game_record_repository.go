package repository

import (
	"context"

	"github.com/curetcore/dominodominicano/core/domain/entity"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GameRecordRepository 对局记录仓储接口
type GameRecordRepository interface {
	// SaveMatchRecord 保存整局记录（元数据）
	SaveMatchRecord(ctx context.Context, record *entity.MatchRecord) error

	// FindMatchRecord 根据ID查找整局记录
	FindMatchRecord(ctx context.Context, recordID primitive.ObjectID) (*entity.MatchRecord, error)

	// FindMatchRecordsByUser 查找用户参与的整局记录（分页）
	FindMatchRecordsByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.MatchRecord, error)

	// FindMatchRecordByRoom 根据房间ID查找整局记录
	FindMatchRecordByRoom(ctx context.Context, roomID string) (*entity.MatchRecord, error)

	// SaveRoundRecord 保存回合记录（每回合一个文档）
	SaveRoundRecord(ctx context.Context, round *entity.RoundRecord) error

	// SaveRoundRecords 批量保存回合记录（使用 MongoDB InsertMany）
	SaveRoundRecords(ctx context.Context, rounds []*entity.RoundRecord) error

	// FindRoundRecords 查找整局的所有回合记录（按回合数排序）
	FindRoundRecords(ctx context.Context, matchRecordID primitive.ObjectID) ([]*entity.RoundRecord, error)
}
