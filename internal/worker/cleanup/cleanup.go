// Package cleanup は期限切れセッションの一括削除ジョブを提供する。
// 運用者がpurge-sessionsコマンドで明示的に実行するワンショットのジョブで、
// サーバープロセス内で定期実行はしない。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/sessionbridge/internal/repository"
)

// CleanupJob は期限切れセッションの削除ジョブ。
// 冪等な削除処理で、何度実行しても結果は変わらない。
type CleanupJob struct {
	purger repository.SessionPurger
	logger *slog.Logger
	now    func() time.Time

	// Grace は期限切れ後も残しておく期間。0の場合は期限切れ直後から削除対象になる。
	Grace time.Duration
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(purger repository.SessionPurger, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		purger: purger,
		logger: logger,
		now:    time.Now,
	}
}

// Run はexpiresが(現在時刻 - Grace)以前のセッションを削除し、削除件数を返す。
// 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) (int64, error) {
	start := time.Now()
	cutoff := j.now().Add(-j.Grace)

	deletedCount, err := j.purger.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		j.logger.Error("session purge failed",
			slog.String("error", err.Error()),
			slog.Time("cutoff", cutoff),
		)
		return 0, fmt.Errorf("failed to purge expired sessions: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("session purge completed",
		slog.Int64("deleted_count", deletedCount),
		slog.Time("cutoff", cutoff),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return deletedCount, nil
}
