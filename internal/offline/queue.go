// Package offline buffers order mutations on a terminal while the API is
// unreachable and replays them in creation order once it is back.
package offline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/tableside-pos/api/internal/enum"
	"github.com/tableside-pos/api/internal/order"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Entry is one queued mutation. ID increases with creation order and drives
// replay order.
type Entry struct {
	ID        uint   `gorm:"primaryKey"`
	LocalID   string `gorm:"uniqueIndex;size:36"`
	Kind      string `gorm:"size:32"`
	Body      string
	State     string `gorm:"index;size:16"`
	Attempts  int
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Entry) TableName() string { return "queue_entries" }

// Mutation decodes the stored body.
func (e Entry) Mutation() (order.Mutation, error) {
	var m order.Mutation
	if err := json.Unmarshal([]byte(e.Body), &m); err != nil {
		return order.Mutation{}, fmt.Errorf("decode entry %d: %w", e.ID, err)
	}
	return m, nil
}

// Queue is the terminal-local store of pending mutations.
type Queue struct {
	db *gorm.DB
}

// OpenQueue opens (or creates) the queue database at path. An empty path
// opens a private in-memory database.
func OpenQueue(path string) (*Queue, error) {
	dsn := path
	if path == "" {
		dsn = "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	} else if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create queue directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open queue database: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps an in-memory
	// database alive for the life of the queue.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Entry{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate queue: %w", err)
	}
	return &Queue{db: db}, nil
}

// Close closes the underlying database.
func (q *Queue) Close() error {
	sqlDB, err := q.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Enqueue stores a mutation. Enqueuing a local id twice keeps the first.
func (q *Queue) Enqueue(ctx context.Context, m order.Mutation) error {
	if m.LocalID == uuid.Nil {
		m.LocalID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode mutation: %w", err)
	}
	e := Entry{
		LocalID: m.LocalID.String(),
		Kind:    m.Kind,
		Body:    string(body),
		State:   enum.EntryStateQueued,
	}
	return q.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "local_id"}}, DoNothing: true}).
		Create(&e).Error
}

// Pending returns queued entries in creation order.
func (q *Queue) Pending(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	err := q.db.WithContext(ctx).
		Where("state = ?", enum.EntryStateQueued).
		Order("id").
		Find(&entries).Error
	return entries, err
}

// Conflicts returns entries the server refused, newest first.
func (q *Queue) Conflicts(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	err := q.db.WithContext(ctx).
		Where("state = ?", enum.EntryStateFailed).
		Order("id DESC").
		Find(&entries).Error
	return entries, err
}

// Get returns one entry by local id.
func (q *Queue) Get(ctx context.Context, localID uuid.UUID) (Entry, error) {
	var e Entry
	err := q.db.WithContext(ctx).Where("local_id = ?", localID.String()).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Entry{}, ErrUnknownEntry
	}
	return e, err
}

// Counts reports the number of entries per state.
func (q *Queue) Counts(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		State string
		N     int64
	}
	err := q.db.WithContext(ctx).Model(&Entry{}).
		Select("state, count(*) AS n").
		Group("state").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.State] = r.N
	}
	return counts, nil
}

// --- State transitions ---

// ErrUnknownEntry is returned for a local id the queue does not hold.
var ErrUnknownEntry = errors.New("unknown queue entry")

// ErrBadTransition is returned when an entry is not in the expected state.
var ErrBadTransition = errors.New("invalid queue entry transition")

func (q *Queue) transition(ctx context.Context, id uint, from, to string, updates map[string]interface{}) error {
	updates["state"] = to
	res := q.db.WithContext(ctx).Model(&Entry{}).
		Where("id = ? AND state = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("entry %d %s -> %s: %w", id, from, to, ErrBadTransition)
	}
	return nil
}

// markInflight claims a queued entry for sending.
func (q *Queue) markInflight(ctx context.Context, id uint) error {
	return q.transition(ctx, id, enum.EntryStateQueued, enum.EntryStateInflight, map[string]interface{}{})
}

// markAcknowledged records that the server applied (or already had) the entry.
func (q *Queue) markAcknowledged(ctx context.Context, id uint) error {
	return q.transition(ctx, id, enum.EntryStateInflight, enum.EntryStateAcknowledged, map[string]interface{}{
		"last_error": "",
	})
}

// markFailed drops an entry the server will never apply.
func (q *Queue) markFailed(ctx context.Context, id uint, detail string) error {
	return q.transition(ctx, id, enum.EntryStateInflight, enum.EntryStateFailed, map[string]interface{}{
		"last_error": detail,
	})
}

// requeue returns an inflight entry to the queue after a retryable failure.
func (q *Queue) requeue(ctx context.Context, id uint, cause error) error {
	return q.transition(ctx, id, enum.EntryStateInflight, enum.EntryStateQueued, map[string]interface{}{
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": cause.Error(),
	})
}

// Recover puts entries left inflight by a crash back in the queue. The
// server deduplicates by local id, so a resend is safe.
func (q *Queue) Recover(ctx context.Context) (int64, error) {
	res := q.db.WithContext(ctx).Model(&Entry{}).
		Where("state = ?", enum.EntryStateInflight).
		Update("state", enum.EntryStateQueued)
	return res.RowsAffected, res.Error
}

// Prune deletes acknowledged entries last touched before cutoff. Times are
// stored in UTC.
func (q *Queue) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res := q.db.WithContext(ctx).
		Where("state = ? AND updated_at < ?", enum.EntryStateAcknowledged, cutoff.UTC()).
		Delete(&Entry{})
	return res.RowsAffected, res.Error
}

// Dismiss removes a conflict once staff have seen it.
func (q *Queue) Dismiss(ctx context.Context, localID uuid.UUID) error {
	res := q.db.WithContext(ctx).
		Where("local_id = ? AND state = ?", localID.String(), enum.EntryStateFailed).
		Delete(&Entry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUnknownEntry
	}
	return nil
}
