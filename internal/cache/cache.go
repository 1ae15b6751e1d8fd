// Package cache 提供两级（内存 + 磁盘）TTL 缓存，按规范化 URL 指纹寻址。
// 内存级随进程消亡，磁盘级跨运行保留；读取时惰性判断过期。
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iabetor/ainews/internal/logger"
)

// Store 两级缓存存储。并发安全；同 key 并发写入为后写覆盖。
type Store struct {
	mu  sync.RWMutex
	dir string
	mem map[string]entry
}

// entry 单条缓存，内存与磁盘共用同一结构。
// Payload 经 JSON 序列化后自动 base64 编码。
type entry struct {
	Payload   []byte    `json:"payload"`
	FetchedAt time.Time `json:"fetched_at"`
	TTL       duration  `json:"ttl"`
}

// duration 让 time.Duration 以秒数形式落盘，避免纳秒整数的可读性问题。
type duration time.Duration

func (d duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).Seconds())
}

func (d *duration) UnmarshalJSON(data []byte) error {
	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil {
		return err
	}
	*d = duration(time.Duration(secs * float64(time.Second)))
	return nil
}

func (e entry) expired(now time.Time) bool {
	return !now.Before(e.FetchedAt.Add(time.Duration(e.TTL)))
}

// NewStore 创建缓存存储。dir 不存在时会创建；创建失败则降级为纯内存缓存。
func NewStore(dir string) *Store {
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Warnf("[cache] 创建缓存目录 %s 失败，降级为纯内存缓存: %v", dir, err)
		dir = ""
	}
	return &Store{
		dir: dir,
		mem: make(map[string]entry),
	}
}

// Key 计算 URL 的缓存指纹：scheme + host + path + 排序后的查询参数。
// 同一资源的不同书写形式（大小写主机名、查询参数顺序）产生相同的 key。
func Key(rawURL string) string {
	normalized := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		q := u.Query()
		keys := make([]string, 0, len(q))
		for k := range q {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var sb strings.Builder
		sb.WriteString(strings.ToLower(u.Scheme))
		sb.WriteString("://")
		sb.WriteString(strings.ToLower(u.Host))
		sb.WriteString(u.Path)
		for _, k := range keys {
			vals := q[k]
			sort.Strings(vals)
			for _, v := range vals {
				sb.WriteString("&")
				sb.WriteString(k)
				sb.WriteString("=")
				sb.WriteString(v)
			}
		}
		normalized = sb.String()
	}

	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:16])
}

// Get 查询缓存。先查内存，未命中再查磁盘；磁盘命中则提升到内存。
// 过期条目视为未命中并在访问时清除。
func (s *Store) Get(key string) ([]byte, bool) {
	now := time.Now()

	s.mu.RLock()
	e, ok := s.mem[key]
	s.mu.RUnlock()

	if ok {
		if !e.expired(now) {
			return e.Payload, true
		}
		s.mu.Lock()
		delete(s.mem, key)
		s.mu.Unlock()
	}

	e, ok = s.readDisk(key)
	if !ok {
		return nil, false
	}
	if e.expired(now) {
		s.removeDisk(key)
		return nil, false
	}

	// 提升到内存级
	s.mu.Lock()
	s.mem[key] = e
	s.mu.Unlock()

	return e.Payload, true
}

// Put 同步写入内存与磁盘两级。磁盘写入失败仅记录日志，该 key 降级为内存缓存。
func (s *Store) Put(key string, payload []byte, ttl time.Duration) {
	e := entry{
		Payload:   payload,
		FetchedAt: time.Now(),
		TTL:       duration(ttl),
	}

	s.mu.Lock()
	s.mem[key] = e
	s.mu.Unlock()

	if err := s.writeDisk(key, e); err != nil {
		logger.Warnf("[cache] 写入磁盘缓存 %s 失败: %v", key, err)
	}
}

// Invalidate 从两级缓存中删除指定 key。
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	delete(s.mem, key)
	s.mu.Unlock()
	s.removeDisk(key)
}

func (s *Store) filePath(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *Store) readDisk(key string) (entry, bool) {
	if s.dir == "" {
		return entry{}, false
	}
	data, err := os.ReadFile(s.filePath(key))
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warnf("[cache] 读取磁盘缓存 %s 失败: %v", key, err)
		}
		return entry{}, false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		// 损坏的缓存文件当作未命中并清除
		logger.Warnf("[cache] 磁盘缓存 %s 已损坏，删除: %v", key, err)
		s.removeDisk(key)
		return entry{}, false
	}
	return e, true
}

// writeDisk 先写临时文件再原子重命名，进程中途崩溃不会留下半截条目。
func (s *Store) writeDisk(key string, e entry) error {
	if s.dir == "" {
		return nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("序列化缓存条目失败: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, key+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.filePath(key)); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func (s *Store) removeDisk(key string) {
	if s.dir == "" {
		return
	}
	if err := os.Remove(s.filePath(key)); err != nil && !os.IsNotExist(err) {
		logger.Debugf("[cache] 删除磁盘缓存 %s 失败: %v", key, err)
	}
}
