package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studypulse/studypulse/internal/domain"
	"github.com/studypulse/studypulse/internal/metrics"
)

// accountColumns must match the Scan order in scanAccount.
const accountColumns = `id, name, email, password_hash, coins, streak, last_active_day, videos_watched, videos_switched, version, created_at, updated_at`

const sessionColumns = `id, account_id, video_id, url, watched_day, seconds_watched, tab_switches, note, tag, created_at`

const uniqueViolation = "23505"

// AccountRepo implements domain.AccountRepository backed by PostgreSQL.
// Counter updates run as single atomic statements; session commits use a
// compare-and-set on the account version so two concurrent finalizations
// of the same account cannot silently lose an update.
type AccountRepo struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var acc domain.Account
	var day string
	err := row.Scan(
		&acc.ID, &acc.Name, &acc.Email, &acc.PasswordHash,
		&acc.Coins, &acc.Streak, &day,
		&acc.VideosWatched, &acc.VideosSwitched,
		&acc.Version, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	acc.LastActiveDay = domain.Day(day)
	return &acc, nil
}

func scanSession(row rowScanner) (domain.WatchSession, error) {
	var sess domain.WatchSession
	var day string
	err := row.Scan(
		&sess.ID, &sess.AccountID, &sess.VideoID, &sess.URL, &day,
		&sess.SecondsWatched, &sess.TabSwitches, &sess.Note, &sess.Tag,
		&sess.CreatedAt,
	)
	if err != nil {
		return domain.WatchSession{}, err
	}
	sess.WatchedDay = domain.Day(day)
	return sess, nil
}

func observe(query string, start time.Time, err error) {
	metrics.DBQueryDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		metrics.DBErrorsTotal.WithLabelValues(query).Inc()
	}
}

func (r *AccountRepo) Create(ctx context.Context, name, email, passwordHash string) (*domain.Account, error) {
	start := time.Now()
	acc, err := scanAccount(r.pool.QueryRow(ctx, `
		INSERT INTO accounts (name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING `+accountColumns+`
	`, name, email, passwordHash))
	observe("create_account", start, err)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return acc, nil
}

func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	start := time.Now()
	acc, err := scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	observe("get_account_by_id", start, err)
	return acc, err
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	start := time.Now()
	acc, err := scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email))
	observe("get_account_by_email", start, err)
	return acc, err
}

// ApplyTabSwitchPenalty deducts coins and counts the switch in one
// statement. GREATEST keeps the balance at zero or above regardless of
// how many penalties race.
func (r *AccountRepo) ApplyTabSwitchPenalty(ctx context.Context, id uuid.UUID, penalty int) (*domain.Account, error) {
	start := time.Now()
	acc, err := scanAccount(r.pool.QueryRow(ctx, `
		UPDATE accounts
		SET coins = GREATEST(coins - $2, 0),
		    videos_switched = videos_switched + 1,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+accountColumns+`
	`, id, penalty))
	observe("apply_tab_switch_penalty", start, err)
	return acc, err
}

func (r *AccountRepo) ApplyCoinDelta(ctx context.Context, id uuid.UUID, delta int) (*domain.Account, error) {
	start := time.Now()
	acc, err := scanAccount(r.pool.QueryRow(ctx, `
		UPDATE accounts
		SET coins = GREATEST(coins + $2, 0),
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+accountColumns+`
	`, id, delta))
	observe("apply_coin_delta", start, err)
	return acc, err
}

// CommitSession writes the outcome of an accepted session in one
// transaction: account fields behind a version check, the history entry,
// and the note/tag upsert when the session carries one.
func (r *AccountRepo) CommitSession(ctx context.Context, acc *domain.Account, sess *domain.WatchSession, expectedVersion int64) error {
	start := time.Now()
	err := r.commitSession(ctx, acc, sess, expectedVersion)
	observe("commit_session", start, err)
	return err
}

func (r *AccountRepo) commitSession(ctx context.Context, acc *domain.Account, sess *domain.WatchSession, expectedVersion int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	tag, err := tx.Exec(ctx, `
		UPDATE accounts
		SET coins = $2, streak = $3, last_active_day = $4, videos_watched = $5,
		    version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $6
	`, acc.ID, acc.Coins, acc.Streak, string(acc.LastActiveDay), acc.VideosWatched, expectedVersion)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the account vanished or someone committed in between.
		if _, err := scanAccount(tx.QueryRow(ctx,
			`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, acc.ID)); err != nil {
			return err
		}
		return domain.ErrVersionConflict
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO watch_sessions (account_id, video_id, url, watched_day, seconds_watched, tab_switches, note, tag)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, sess.AccountID, sess.VideoID, sess.URL, string(sess.WatchedDay),
		sess.SecondsWatched, sess.TabSwitches, sess.Note, sess.Tag).Scan(&sess.ID, &sess.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert watch session: %w", err)
	}

	if sess.Note != "" || sess.Tag != "" {
		var note, tagText *string
		if sess.Note != "" {
			note = &sess.Note
		}
		if sess.Tag != "" {
			tagText = &sess.Tag
		}
		if err := upsertAnnotation(ctx, tx, sess.AccountID, sess.VideoID, note, tagText); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *AccountRepo) ListSessions(ctx context.Context, accountID uuid.UUID) ([]domain.WatchSession, error) {
	start := time.Now()
	rows, err := r.pool.Query(ctx, `
		SELECT `+sessionColumns+` FROM watch_sessions
		WHERE account_id = $1
		ORDER BY id ASC
	`, accountID)
	observe("list_sessions", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()
	return collectSessions(rows)
}

func (r *AccountRepo) ListRecentSessions(ctx context.Context, accountID uuid.UUID, limit int) ([]domain.WatchSession, error) {
	start := time.Now()
	rows, err := r.pool.Query(ctx, `
		SELECT `+sessionColumns+` FROM watch_sessions
		WHERE account_id = $1
		ORDER BY id DESC
		LIMIT $2
	`, accountID, limit)
	observe("list_recent_sessions", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent sessions: %w", err)
	}
	defer rows.Close()
	return collectSessions(rows)
}

func collectSessions(rows pgx.Rows) ([]domain.WatchSession, error) {
	sessions := []domain.WatchSession{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func (r *AccountRepo) DayTotals(ctx context.Context, accountID uuid.UUID) ([]domain.DayTotal, error) {
	start := time.Now()
	rows, err := r.pool.Query(ctx, `
		SELECT watched_day, COALESCE(SUM(seconds_watched), 0)
		FROM watch_sessions
		WHERE account_id = $1
		GROUP BY watched_day
		ORDER BY watched_day ASC
	`, accountID)
	observe("day_totals", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate day totals: %w", err)
	}
	defer rows.Close()

	totals := []domain.DayTotal{}
	for rows.Next() {
		var day string
		var seconds int
		if err := rows.Scan(&day, &seconds); err != nil {
			return nil, err
		}
		totals = append(totals, domain.DayTotal{Day: domain.Day(day), TotalSeconds: seconds})
	}
	return totals, rows.Err()
}

// SaveAnnotation writes a note/tag save in one transaction: the per-video
// annotation upsert and the patch of the most recent session with that
// video id, or a zero-duration history entry dated day when no session
// exists yet. Either everything lands or nothing does.
func (r *AccountRepo) SaveAnnotation(ctx context.Context, accountID uuid.UUID, videoID string, note, tag *string, day domain.Day) error {
	start := time.Now()
	err := r.saveAnnotation(ctx, accountID, videoID, note, tag, day)
	observe("save_annotation", start, err)
	return err
}

func (r *AccountRepo) saveAnnotation(ctx context.Context, accountID uuid.UUID, videoID string, note, tag *string, day domain.Day) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := upsertAnnotation(ctx, tx, accountID, videoID, note, tag); err != nil {
		return err
	}

	// When several sessions share a video id, the newest one carries the
	// annotation.
	cmdTag, err := tx.Exec(ctx, `
		UPDATE watch_sessions
		SET note = COALESCE($3, note), tag = COALESCE($4, tag)
		WHERE id = (
			SELECT id FROM watch_sessions
			WHERE account_id = $1 AND video_id = $2
			ORDER BY id DESC
			LIMIT 1
		)
	`, accountID, videoID, note, tag)
	if err != nil {
		return fmt.Errorf("failed to patch session annotation: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		_, err := tx.Exec(ctx, `
			INSERT INTO watch_sessions (account_id, video_id, watched_day, note, tag)
			VALUES ($1, $2, $3, COALESCE($4, ''), COALESCE($5, ''))
		`, accountID, videoID, string(day), note, tag)
		if err != nil {
			return fmt.Errorf("failed to insert annotation placeholder session: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// upsertAnnotation merges note/tag for a video. nil means "not provided":
// the existing value is kept.
func upsertAnnotation(ctx context.Context, db execer, accountID uuid.UUID, videoID string, note, tag *string) error {
	_, err := db.Exec(ctx, `
		INSERT INTO video_annotations (account_id, video_id, note, tag, updated_at)
		VALUES ($1, $2, COALESCE($3, ''), COALESCE($4, ''), NOW())
		ON CONFLICT (account_id, video_id) DO UPDATE SET
			note = COALESCE($3, video_annotations.note),
			tag = COALESCE($4, video_annotations.tag),
			updated_at = NOW()
	`, accountID, videoID, note, tag)
	if err != nil {
		return fmt.Errorf("failed to upsert annotation: %w", err)
	}
	return nil
}

func (r *AccountRepo) GetAnnotations(ctx context.Context, accountID uuid.UUID) (*domain.Annotations, error) {
	start := time.Now()
	rows, err := r.pool.Query(ctx, `
		SELECT video_id, note, tag FROM video_annotations WHERE account_id = $1
	`, accountID)
	observe("get_annotations", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to load annotations: %w", err)
	}
	defer rows.Close()

	ann := &domain.Annotations{Notes: map[string]string{}, Tags: map[string]string{}}
	for rows.Next() {
		var videoID, note, tag string
		if err := rows.Scan(&videoID, &note, &tag); err != nil {
			return nil, err
		}
		if note != "" {
			ann.Notes[videoID] = note
		}
		if tag != "" {
			ann.Tags[videoID] = tag
		}
	}
	return ann, rows.Err()
}

func (r *AccountRepo) GetNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]string{}, nil
	}

	start := time.Now()
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM accounts WHERE id = ANY($1)`, ids)
	observe("get_names", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to load account names: %w", err)
	}
	defer rows.Close()

	names := make(map[uuid.UUID]string, len(ids))
	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}
