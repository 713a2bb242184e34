// internal/storage/postgres/postgres.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"launchpad/internal/storage"
	"launchpad/internal/storage/models"
)

// gormLogger bridges GORM's logger.Interface onto zap.
type gormLogger struct {
	zapLogger *zap.Logger
	logLevel  logger.LogLevel
}

func newGormLogger(zapLogger *zap.Logger) logger.Interface {
	return &gormLogger{
		zapLogger: zapLogger,
		logLevel:  logger.Warn,
	}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	newLogger := *l
	newLogger.logLevel = level
	return &newLogger
}

func (l *gormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Info {
		l.zapLogger.Sugar().Infof(msg, data...)
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Warn {
		l.zapLogger.Sugar().Warnf(msg, data...)
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Error {
		l.zapLogger.Sugar().Errorf(msg, data...)
	}
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.logLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.String("sql", sql),
		zap.Int64("rows", rows),
	}

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		l.zapLogger.Error("trace", append(fields, zap.Error(err))...)
		return
	}

	if l.logLevel >= logger.Info {
		l.zapLogger.Info("trace", fields...)
	}
}

// pgStore implements storage.Store on PostgreSQL via GORM.
type pgStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStore connects to PostgreSQL and returns a storage.Store.
func NewStore(dsn string, zapLogger *zap.Logger) (storage.Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: newGormLogger(zapLogger.Named("gorm")),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &pgStore{
		db:     db,
		logger: zapLogger,
	}, nil
}

// RunMigrations auto-migrates the schema, serialized by an advisory lock so
// concurrent server starts do not race.
func (p *pgStore) RunMigrations() error {
	var lockObtained bool
	err := p.db.Raw("SELECT pg_try_advisory_lock(4217)").Scan(&lockObtained).Error
	if err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	if !lockObtained {
		return fmt.Errorf("another migration is in progress")
	}
	defer p.db.Exec("SELECT pg_advisory_unlock(4217)")

	err = p.db.AutoMigrate(
		&models.Token{},
		&models.Trade{},
		&models.Holder{},
		&models.Comment{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (p *pgStore) CreateToken(ctx context.Context, token *models.Token) error {
	return p.db.WithContext(ctx).Create(token).Error
}

func (p *pgStore) GetToken(ctx context.Context, id string) (*models.Token, error) {
	var token models.Token
	err := p.db.WithContext(ctx).Where("id = ?", id).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &token, nil
}

func (p *pgStore) ListTokens(ctx context.Context) ([]*models.Token, error) {
	var tokens []*models.Token
	err := p.db.WithContext(ctx).
		Order("created_at desc").
		Find(&tokens).Error
	return tokens, err
}

// CommitTrade runs the three writes of one trade in a single database
// transaction. The state update is guarded by the token's version: zero rows
// affected means another trade committed in between, and the whole
// transaction rolls back with ErrVersionConflict.
func (p *pgStore) CommitTrade(ctx context.Context, commit *storage.TradeCommit) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		token := commit.Token
		res := tx.Model(&models.Token{}).
			Where("id = ? AND version = ?", token.ID, token.Version-1).
			Updates(map[string]interface{}{
				"market_cap":     token.MarketCap,
				"curve_progress": token.CurveProgress,
				"total_supply":   token.TotalSupply,
				"held_total":     token.HeldTotal,
				"version":        token.Version,
				"updated_at":     time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// distinguish a stale version from a missing token
			var count int64
			if err := tx.Model(&models.Token{}).Where("id = ?", token.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return storage.ErrNotFound
			}
			return storage.ErrVersionConflict
		}

		var maxSeq int64
		err := tx.Model(&models.Trade{}).
			Where("token_id = ?", token.ID).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&maxSeq).Error
		if err != nil {
			return err
		}

		commit.Trade.ExecutedAt = time.Now().UTC()
		commit.Trade.Seq = maxSeq + 1
		if err := tx.Create(commit.Trade).Error; err != nil {
			return err
		}

		if commit.Holder.ID == 0 {
			var existing models.Holder
			err := tx.Where("token_id = ? AND address = ?", commit.Holder.TokenID, commit.Holder.Address).
				First(&existing).Error
			if err == nil {
				commit.Holder.ID = existing.ID
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		return tx.Save(commit.Holder).Error
	})
}

func (p *pgStore) ListTrades(ctx context.Context, tokenID string, limit int) ([]*models.Trade, error) {
	var trades []*models.Trade
	q := p.db.WithContext(ctx).
		Where("token_id = ?", tokenID).
		Order("executed_at desc, seq desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&trades).Error
	return trades, err
}

func (p *pgStore) GetHolder(ctx context.Context, tokenID, address string) (*models.Holder, error) {
	var holder models.Holder
	err := p.db.WithContext(ctx).
		Where("token_id = ? AND address = ?", tokenID, address).
		First(&holder).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &holder, nil
}

func (p *pgStore) ListHolders(ctx context.Context, tokenID string) ([]*models.Holder, error) {
	var holders []*models.Holder
	err := p.db.WithContext(ctx).
		Where("token_id = ?", tokenID).
		Order("tokens_held desc, first_buy_at asc").
		Find(&holders).Error
	return holders, err
}

func (p *pgStore) AddComment(ctx context.Context, comment *models.Comment) error {
	return p.db.WithContext(ctx).Create(comment).Error
}

func (p *pgStore) ListComments(ctx context.Context, tokenID string) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := p.db.WithContext(ctx).
		Where("token_id = ?", tokenID).
		Order("posted_at asc, id asc").
		Find(&comments).Error
	return comments, err
}

func (p *pgStore) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
