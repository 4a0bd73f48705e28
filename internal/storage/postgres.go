package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/nemirov/pulse-bot/internal/models"
)

//go:embed schema.sql
var schema embed.FS

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	UseInMemory bool
}

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(config DatabaseConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := &PostgresStorage{db: db}

	if err := storage.initializeSchema(); err != nil {
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	return storage, nil
}

func (s *PostgresStorage) initializeSchema() error {
	schemaSQL, err := schema.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("error reading schema file: %w", err)
	}

	if _, err := s.db.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("error executing schema: %w", err)
	}

	return nil
}

func (s *PostgresStorage) SaveUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (chat_id, first_name, username, phone)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		ON CONFLICT (chat_id) DO UPDATE SET
			first_name = COALESCE(NULLIF(EXCLUDED.first_name, ''), users.first_name),
			username   = COALESCE(NULLIF(EXCLUDED.username, ''), users.username),
			phone      = COALESCE(EXCLUDED.phone, users.phone),
			updated_at = NOW()`

	if _, err := s.db.ExecContext(ctx, query, user.ChatID, user.FirstName, user.Username, user.Phone); err != nil {
		return fmt.Errorf("error saving user: %w", err)
	}

	return nil
}

func (s *PostgresStorage) SaveChatRecord(ctx context.Context, record *models.ChatRecord) error {
	query := `
		INSERT INTO chat_history (id, chat_id, user_input, bot_response, sentiment_score, sentiment_label, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.ChatID,
		record.UserInput,
		record.Response,
		record.Sentiment.Score,
		record.Sentiment.Label,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("error saving chat record: %w", err)
	}

	return nil
}

func (s *PostgresStorage) SaveFileRecord(ctx context.Context, record *models.FileRecord) error {
	query := `
		INSERT INTO files (id, chat_id, file_name, description, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.ChatID,
		record.FileName,
		record.Description,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("error saving file record: %w", err)
	}

	return nil
}

func (s *PostgresStorage) CountChatRecords(ctx context.Context, chatID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_history WHERE chat_id = $1`, chatID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting chat records: %w", err)
	}
	return count, nil
}

func (s *PostgresStorage) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting users: %w", err)
	}
	return count, nil
}

func (s *PostgresStorage) CountMessages(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chat_history`).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting messages: %w", err)
	}
	return count, nil
}

func (s *PostgresStorage) SentimentDistribution(ctx context.Context, since time.Time) ([]models.LabelCount, error) {
	query := `
		SELECT sentiment_label, COUNT(*)
		FROM chat_history
		WHERE created_at >= $1
		GROUP BY sentiment_label
		ORDER BY sentiment_label`

	rows, err := s.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("error querying sentiment distribution: %w", err)
	}
	defer rows.Close()

	var distribution []models.LabelCount
	for rows.Next() {
		var lc models.LabelCount
		if err := rows.Scan(&lc.Label, &lc.Count); err != nil {
			return nil, fmt.Errorf("error scanning sentiment bucket: %w", err)
		}
		distribution = append(distribution, lc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading sentiment distribution: %w", err)
	}

	return distribution, nil
}

func (s *PostgresStorage) DailyMessageCounts(ctx context.Context, since time.Time) ([]models.DayCount, error) {
	query := `
		SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, COUNT(*)
		FROM chat_history
		WHERE created_at >= $1
		GROUP BY day
		ORDER BY day`

	rows, err := s.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("error querying daily message counts: %w", err)
	}
	defer rows.Close()

	var days []models.DayCount
	for rows.Next() {
		var dc models.DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, fmt.Errorf("error scanning day bucket: %w", err)
		}
		days = append(days, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading daily message counts: %w", err)
	}

	return days, nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
