package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/soaringjerry/Nuvio/internal/api"
	"github.com/soaringjerry/Nuvio/internal/logger"
	"github.com/soaringjerry/Nuvio/internal/models"
)

// Supported database/sql driver names.
const (
	DriverCgo  = "sqlite3" // github.com/mattn/go-sqlite3
	DriverPure = "sqlite"  // modernc.org/sqlite
)

// tsLayout is fixed width so text ordering matches time ordering.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

type SQLiteStore struct {
	db *sql.DB
}

var _ api.Store = (*SQLiteStore)(nil)

// Open creates the parent directory and opens path with the named driver.
func Open(driver, path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	var dsn string
	switch driver {
	case DriverCgo, "":
		driver = DriverCgo
		dsn = fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", filepath.ToSlash(path))
	case DriverPure:
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	default:
		return nil, fmt.Errorf("unsupported sqlite driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return db, nil
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(tsLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

func encodeJSON(v any) (sql.NullString, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *SQLiteStore) AddUser(ctx context.Context, u models.User) error {
	hash := u.PassHash
	if hash == nil {
		hash = []byte{}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, pass_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, hash, formatTime(u.CreatedAt))
	if isUniqueViolation(err) {
		return api.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var (
		u       models.User
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, pass_hash, created_at FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.PassHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if u.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *SQLiteStore) AddMood(ctx context.Context, userID string, m models.MoodEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO moods (id, user_id, ts, mood_score, note) VALUES (?, ?, ?, ?, ?)`,
		m.ID, userID, formatTime(m.Timestamp), m.MoodScore, m.Note)
	if err != nil {
		return fmt.Errorf("insert mood: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteMood(ctx context.Context, userID, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM moods WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete mood: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete mood: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) ListMoods(ctx context.Context, userID string) ([]models.MoodEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, mood_score, note FROM moods WHERE user_id = ? ORDER BY ts, rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("list moods: %w", err)
	}
	defer rows.Close()
	out := []models.MoodEntry{}
	for rows.Next() {
		var (
			m  models.MoodEntry
			ts string
		)
		if err := rows.Scan(&m.ID, &ts, &m.MoodScore, &m.Note); err != nil {
			return nil, fmt.Errorf("scan mood: %w", err)
		}
		if m.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AddChatMessage(ctx context.Context, userID string, msg models.ChatMessage) error {
	var sentiment sql.NullString
	if msg.Sentiment != nil {
		var err error
		if sentiment, err = encodeJSON(msg.Sentiment); err != nil {
			return fmt.Errorf("encode sentiment: %w", err)
		}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (id, user_id, ts, role, content, sentiment) VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, userID, formatTime(msg.Timestamp), string(msg.Role), msg.Content, sentiment)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListChatMessages(ctx context.Context, userID string) ([]models.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, role, content, sentiment FROM chat_messages WHERE user_id = ? ORDER BY ts, seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("list chat: %w", err)
	}
	defer rows.Close()
	out := []models.ChatMessage{}
	for rows.Next() {
		var (
			m         models.ChatMessage
			ts, role  string
			sentiment sql.NullString
		)
		if err := rows.Scan(&m.ID, &ts, &role, &m.Content, &sentiment); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		if m.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		m.Role = models.ChatRole(role)
		if sentiment.Valid && sentiment.String != "" {
			var sr models.SentimentResult
			if err := json.Unmarshal([]byte(sentiment.String), &sr); err != nil {
				logger.L().WithError(err).WithField("message", m.ID).Warn("sqlite store: decode sentiment")
			} else {
				m.Sentiment = &sr
			}
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ClearChat(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear chat: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AddAssessment(ctx context.Context, userID string, a models.AssessmentSession) error {
	responses := a.Responses
	if responses == nil {
		responses = []models.Response{}
	}
	respJSON, err := encodeJSON(responses)
	if err != nil {
		return fmt.Errorf("encode responses: %w", err)
	}
	var result sql.NullString
	if a.Result != nil {
		if result, err = encodeJSON(a.Result); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
	}
	var completed sql.NullString
	if a.CompletedAt != nil {
		completed = sql.NullString{String: formatTime(*a.CompletedAt), Valid: true}
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO assessments (id, user_id, type, started_at, completed_at, responses, result) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, userID, string(a.Type), formatTime(a.StartedAt), completed, respJSON, result)
	if err != nil {
		return fmt.Errorf("insert assessment: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListAssessments(ctx context.Context, userID string) ([]models.AssessmentSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, started_at, completed_at, responses, result FROM assessments WHERE user_id = ? ORDER BY started_at, rowid`, userID)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()
	out := []models.AssessmentSession{}
	for rows.Next() {
		var (
			a                 models.AssessmentSession
			typ, started      string
			completed, result sql.NullString
			responses         string
		)
		if err := rows.Scan(&a.ID, &typ, &started, &completed, &responses, &result); err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		a.Type = models.AssessmentType(typ)
		if a.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		if completed.Valid {
			t, err := parseTime(completed.String)
			if err != nil {
				return nil, err
			}
			a.CompletedAt = &t
		}
		if err := json.Unmarshal([]byte(responses), &a.Responses); err != nil {
			return nil, fmt.Errorf("decode responses for %s: %w", a.ID, err)
		}
		if result.Valid && result.String != "" {
			var r models.AssessmentResult
			if err := json.Unmarshal([]byte(result.String), &r); err != nil {
				return nil, fmt.Errorf("decode result for %s: %w", a.ID, err)
			}
			a.Result = &r
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Close releases the underlying pool.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
