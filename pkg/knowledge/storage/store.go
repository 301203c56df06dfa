package storage

import (
	"context"
	"database/sql"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/aomail-ai/knowledge/pkg/knowledge"
)

var (
	_ knowledge.KeypointStore   = (*Store)(nil)
	_ knowledge.EmailResolver   = (*Store)(nil)
	_ knowledge.PreferenceStore = (*Store)(nil)
	_ knowledge.UsageRecorder   = (*Store)(nil)
)

// Store is the SQLite-backed persistence layer: email records, their
// keypoints, user preferences, and per-user token usage stats.
type Store struct {
	db     *sqlx.DB
	logger *log.Logger
}

func NewStore(dbPath string, logger *log.Logger) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to SQLite")
	}

	// WAL for concurrent readers; foreign keys so keypoints cascade with
	// their email.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, errors.Wrap(err, "failed to enable WAL mode")
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		return nil, errors.Wrap(err, "failed to enable foreign keys")
	}

	if err := RunMigrations(db.DB, logger); err != nil {
		return nil, err
	}

	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type keypointRow struct {
	Content      string        `db:"content"`
	Category     string        `db:"category"`
	Organization string        `db:"organization"`
	Topic        string        `db:"topic"`
	IsReply      bool          `db:"is_reply"`
	Position     sql.NullInt64 `db:"position"`
	ProviderID   string        `db:"provider_id"`
}

// GetKeypointsForUser loads every keypoint of every email the user owns, in
// ingestion order.
func (s *Store) GetKeypointsForUser(ctx context.Context, userID string) ([]knowledge.Keypoint, error) {
	var rows []keypointRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT k.content, k.category, k.organization, k.topic, k.is_reply, k.position, e.provider_id
		FROM keypoints k
		JOIN emails e ON e.id = k.email_id
		WHERE e.user_id = ?
		ORDER BY k.id
	`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load keypoints")
	}

	keypoints := make([]knowledge.Keypoint, 0, len(rows))
	for _, row := range rows {
		kp := knowledge.Keypoint{
			Content: row.Content,
			Classification: knowledge.Classification{
				Category:     row.Category,
				Organization: row.Organization,
				Topic:        row.Topic,
			},
			IsReply:         row.IsReply,
			EmailProviderID: row.ProviderID,
		}
		if row.Position.Valid {
			position := int(row.Position.Int64)
			kp.Position = &position
		}
		keypoints = append(keypoints, kp)
	}
	return keypoints, nil
}

// ResolveProviderIDs maps provider ids back to internal email record ids for
// one user. Unknown provider ids are skipped, not errors.
func (s *Store) ResolveProviderIDs(ctx context.Context, userID string, providerIDs []string) ([]int64, error) {
	if len(providerIDs) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT id FROM emails
		WHERE user_id = ? AND provider_id IN (?)
		ORDER BY id
	`, userID, providerIDs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build provider id query")
	}

	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, s.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "failed to resolve provider ids")
	}
	return ids, nil
}

// SaveEmailKeypoints persists one summarized email and its keypoints in a
// single transaction. Re-delivery of the same provider id is a no-op.
func (s *Store) SaveEmailKeypoints(ctx context.Context, userID, providerID, subject string, keypoints []knowledge.Keypoint) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO emails (user_id, provider_id, subject) VALUES (?, ?, ?)
	`, userID, providerID, subject)
	if err != nil {
		return errors.Wrap(err, "failed to insert email")
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read insert result")
	}
	if inserted == 0 {
		s.logger.Debug("Email already ingested, skipping", "provider_id", providerID)
		return nil
	}

	var emailID int64
	if err := tx.GetContext(ctx, &emailID, `
		SELECT id FROM emails WHERE user_id = ? AND provider_id = ?
	`, userID, providerID); err != nil {
		return errors.Wrap(err, "failed to load email id")
	}

	for _, kp := range keypoints {
		var position sql.NullInt64
		if kp.Position != nil {
			position = sql.NullInt64{Int64: int64(*kp.Position), Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO keypoints (email_id, content, category, organization, topic, is_reply, position)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, emailID, kp.Content, kp.Classification.Category, kp.Classification.Organization,
			kp.Classification.Topic, kp.IsReply, position)
		if err != nil {
			return errors.Wrap(err, "failed to insert keypoint")
		}
	}

	return tx.Commit()
}

// DeleteEmail removes an email record; its keypoints go with it by cascade.
func (s *Store) DeleteEmail(ctx context.Context, userID, providerID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM emails WHERE user_id = ? AND provider_id = ?
	`, userID, providerID)
	return errors.Wrap(err, "failed to delete email")
}

// GetLanguage returns the user's preferred answer language, or the stored
// default when no preference row exists.
func (s *Store) GetLanguage(ctx context.Context, userID string) (string, error) {
	var language string
	err := s.db.GetContext(ctx, &language, `
		SELECT language FROM preferences WHERE user_id = ?
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "english", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to load language preference")
	}
	return language, nil
}

func (s *Store) SetLanguage(ctx context.Context, userID, language string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (user_id, language) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET language = excluded.language
	`, userID, language)
	return errors.Wrap(err, "failed to set language preference")
}

// RecordUsage accumulates token counts into the user's running totals.
func (s *Store) RecordUsage(ctx context.Context, userID string, usage knowledge.TokenUsage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO token_usage_stats (user_id, tokens_input, tokens_output, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id) DO UPDATE SET
			tokens_input = tokens_input + excluded.tokens_input,
			tokens_output = tokens_output + excluded.tokens_output,
			updated_at = CURRENT_TIMESTAMP
	`, userID, usage.TokensInput, usage.TokensOutput)
	return errors.Wrap(err, "failed to record token usage")
}

// GetUsage returns the user's accumulated token totals.
func (s *Store) GetUsage(ctx context.Context, userID string) (knowledge.TokenUsage, error) {
	var row struct {
		TokensInput  int `db:"tokens_input"`
		TokensOutput int `db:"tokens_output"`
	}
	err := s.db.GetContext(ctx, &row, `
		SELECT tokens_input, tokens_output FROM token_usage_stats WHERE user_id = ?
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return knowledge.TokenUsage{}, nil
	}
	if err != nil {
		return knowledge.TokenUsage{}, errors.Wrap(err, "failed to load token usage")
	}
	return knowledge.TokenUsage{TokensInput: row.TokensInput, TokensOutput: row.TokensOutput}, nil
}
