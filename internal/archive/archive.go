// Package archive 把每轮收集的结果持久化到本地 SQLite。
// 按 link 去重：重复收集同一篇文章不会产生新记录。
package archive

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/iabetor/ainews/internal/feed"
	"github.com/iabetor/ainews/internal/logger"
)

// DB 是文章归档数据库连接。
type DB struct {
	*sql.DB
	path string
}

// Open 打开或创建归档数据库。
// dbPath 为空时使用默认路径 ~/.ainews/ainews.db
func Open(dbPath string) (*DB, error) {
	if dbPath == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			dbPath = filepath.Join(home, ".ainews", "ainews.db")
		} else {
			dbPath = "./ainews.db"
		}
	}

	// 确保目录存在
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建数据库目录失败: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}

	// 设置 WAL 模式（更好的并发性能）
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("设置 WAL 模式失败: %w", err)
	}

	logger.Infof("[archive] 数据库已打开: %s", dbPath)

	return &DB{DB: db, path: dbPath}, nil
}

// Path 返回数据库文件路径。
func (db *DB) Path() string {
	return db.path
}

// Migrate 创建归档表。
func (db *DB) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS articles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			title TEXT NOT NULL,
			link TEXT NOT NULL UNIQUE,
			summary TEXT DEFAULT '',
			local_summary TEXT DEFAULT '',
			score REAL DEFAULT 0,
			published_at DATETIME,
			collected_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_collected ON articles(collected_at)`,
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			sources_total INTEGER NOT NULL,
			sources_failed INTEGER NOT NULL,
			articles INTEGER NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("数据库迁移失败: %w", err)
		}
	}
	return nil
}

// SaveArticles 写入一批文章，已存在的 link 跳过。返回新增条数。
func (db *DB) SaveArticles(articles []feed.Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO articles
		(source, title, link, summary, local_summary, score, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("准备语句失败: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, a := range articles {
		var published any
		if !a.Published.IsZero() {
			published = a.Published.UTC()
		}
		res, err := stmt.Exec(a.Source, a.Title, a.Link, a.Summary, a.LocalSummary, a.RawScore, published)
		if err != nil {
			return inserted, fmt.Errorf("写入文章失败: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("提交事务失败: %w", err)
	}

	logger.Infof("[archive] 归档 %d 条，新增 %d 条", len(articles), inserted)
	return inserted, nil
}

// SaveRun 记录一轮收集的汇总信息。
func (db *DB) SaveRun(runID string, sourcesTotal, sourcesFailed, articleCount int, elapsed time.Duration) error {
	_, err := db.Exec(`INSERT INTO runs (run_id, sources_total, sources_failed, articles, elapsed_ms)
		VALUES (?, ?, ?, ?, ?)`,
		runID, sourcesTotal, sourcesFailed, articleCount, elapsed.Milliseconds())
	if err != nil {
		return fmt.Errorf("记录收集轮次失败: %w", err)
	}
	return nil
}

// Recent 返回最近归档的 n 篇文章，按收集时间倒序。
func (db *DB) Recent(n int) ([]feed.Article, error) {
	rows, err := db.Query(`SELECT source, title, link, summary, local_summary, score, published_at
		FROM articles ORDER BY collected_at DESC, id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("查询归档失败: %w", err)
	}
	defer rows.Close()

	var out []feed.Article
	for rows.Next() {
		var a feed.Article
		var published sql.NullTime
		if err := rows.Scan(&a.Source, &a.Title, &a.Link, &a.Summary, &a.LocalSummary, &a.RawScore, &published); err != nil {
			return nil, fmt.Errorf("读取归档行失败: %w", err)
		}
		if published.Valid {
			a.Published = published.Time
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
