package service

import (
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/pinboard/internal/repository"
	"github.com/d60-Lab/pinboard/pkg/apperr"
	"github.com/d60-Lab/pinboard/pkg/logger"
)

// storeFailure 记录底层错误并转换为 StoreFailure，对外消息不含 SQL
func storeFailure(err error, msg string, fields ...zap.Field) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	logger.Error(msg, append(fields, zap.Error(err))...)
	return apperr.Store(err, msg)
}

// lookup 把记录不存在映射为 NotFound，其余视为存储失败
func lookup(err error, notFound, failure string, fields ...zap.Field) error {
	if repository.IsNotFound(err) {
		return apperr.NotFound(notFound)
	}
	return storeFailure(err, failure, fields...)
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
