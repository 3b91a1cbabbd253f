package wallet

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/polyterm/polyterm/clob/types"
)

// Record 本地存储的钱包状态：身份加上已缓存的 API 凭证。
type Record struct {
	Address    string             `json:"address"`
	SigningKey string             `json:"signing_key"`
	Creds      *types.ApiKeyCreds `json:"api_creds,omitempty"`
}

// Store 单文件钱包存储。文件权限 0600，写入走临时文件加重命名，
// 进程崩溃不会留下截断的文件。文件不存在表示未连接钱包。
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore 创建钱包存储，path 是存储文件完整路径
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path 返回存储文件路径
func (s *Store) Path() string {
	return s.path
}

// Load 读取钱包记录。文件不存在返回 (nil, nil)。
func (s *Store) Load() (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read wallet store: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse wallet store: %w", err)
	}
	return &rec, nil
}

// Save 原子写入钱包记录
func (s *Store) Save(rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(rec)
}

// SaveIdentity 持久化校验通过的身份，保留已缓存的凭证（地址一致时）
func (s *Store) SaveIdentity(id *Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &Record{
		Address:    id.Address.Hex(),
		SigningKey: id.KeyHex,
	}
	if prev, err := s.loadLocked(); err == nil && prev != nil && prev.Address == rec.Address {
		rec.Creds = prev.Creds
	}
	return s.writeLocked(rec)
}

// SaveCreds 把 API 凭证并入现有记录
func (s *Store) SaveCreds(creds *types.ApiKeyCreds) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.loadLocked()
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("no wallet connected")
	}
	rec.Creds = creds
	return s.writeLocked(rec)
}

// Clear 删除存储文件（断开钱包）
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove wallet store: %w", err)
	}
	return nil
}

func (s *Store) loadLocked() (*Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read wallet store: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse wallet store: %w", err)
	}
	return &rec, nil
}

func (s *Store) writeLocked(rec *Record) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create wallet dir: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode wallet store: %w", err)
	}

	// 临时文件必须与目标同目录，跨文件系统 rename 不是原子的
	tmp, err := os.CreateTemp(dir, ".wallet-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace wallet store: %w", err)
	}
	return nil
}
