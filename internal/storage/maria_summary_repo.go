package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/teemap/internal/teemap"
	_ "github.com/go-sql-driver/mysql"
)

// MariaSummaryRepo реализует SummaryRepo для MariaDB/MySQL.
// Сводка хранится JSON-документом, рядом - поля для выборок.
type MariaSummaryRepo struct {
	db      *sql.DB
	timeout time.Duration
}

// NewMariaSummaryRepo подключается к базе и создаёт таблицу map_summaries.
//
// Параметры:
//
//	dsn - строка подключения (user:pass@tcp(host:port)/dbname?parseTime=true)
func NewMariaSummaryRepo(dsn string) (*MariaSummaryRepo, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к MariaDB: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с MariaDB: %w", err)
	}

	repo := &MariaSummaryRepo{db: db, timeout: 5 * time.Second}
	if err := repo.createTable(); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось создать таблицу: %w", err)
	}
	return repo, nil
}

func (r *MariaSummaryRepo) createTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS map_summaries (
			checksum   CHAR(16)     PRIMARY KEY,
			load_id    CHAR(36)     NOT NULL,
			author     VARCHAR(255) NOT NULL DEFAULT '',
			width      INT          NOT NULL,
			height     INT          NOT NULL,
			summary    JSON         NOT NULL,
			updated_at TIMESTAMP    DEFAULT CURRENT_TIMESTAMP
			           ON UPDATE    CURRENT_TIMESTAMP,
			INDEX idx_author (author)
		) ENGINE=InnoDB
	`
	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("ошибка создания таблицы map_summaries: %w", err)
	}
	return nil
}

// Save использует INSERT ... ON DUPLICATE KEY UPDATE для перезаписи.
func (r *MariaSummaryRepo) Save(s teemap.Summary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("ошибка сериализации сводки: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	query := `
		INSERT INTO map_summaries (checksum, load_id, author, width, height, summary)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			load_id = VALUES(load_id),
			author  = VALUES(author),
			width   = VALUES(width),
			height  = VALUES(height),
			summary = VALUES(summary)
	`
	_, err = r.db.ExecContext(ctx, query, checksumKey(s.Checksum), s.LoadID, s.Author, s.Width, s.Height, data)
	if err != nil {
		return fmt.Errorf("ошибка сохранения сводки %s: %w", checksumKey(s.Checksum), err)
	}
	return nil
}

func (r *MariaSummaryRepo) Load(checksum uint64) (*teemap.Summary, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT summary FROM map_summaries WHERE checksum = ?`, checksumKey(checksum)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(checksum)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки сводки %s: %w", checksumKey(checksum), err)
	}

	var s teemap.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("ошибка десериализации сводки: %w", err)
	}
	return &s, nil
}

func (r *MariaSummaryRepo) List() ([]teemap.Summary, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT summary FROM map_summaries ORDER BY checksum`)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения map_summaries: %w", err)
	}
	defer rows.Close()

	var out []teemap.Summary
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var s teemap.Summary
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("ошибка десериализации сводки: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Close закрывает пул соединений.
func (r *MariaSummaryRepo) Close() error {
	return r.db.Close()
}
