// Package storage — утилиты безопасной работы с локальными файлами.
//   - EnsureDir — гарантирует наличие директории для целевого пути;
//   - AtomicWriteFile — атомарная запись файла с fsync данных и каталога.
//
// Используется для кэша пиров (bbolt) и для выгрузки строки сессии генератором,
// где частично записанный файл недопустим.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"telegram-forwarder/internal/infra/logger"
)

const (
	// SecretFilePerm — права на файлы с секретами (сессия, кэш пиров с access hash).
	SecretFilePerm os.FileMode = 0o600
	dirPerm        os.FileMode = 0o700
)

// EnsureDir гарантирует наличие каталога для указанного файла.
// Если путь не содержит директорию ("." или пустая строка), ничего не делает.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	return nil
}

// AtomicWriteFile атомарно записывает data в path с правами perm.
//
// temp в той же директории → write → fsync → chmod → close → rename → fsync(dir).
// Либо старый файл остаётся цел, либо новый записан полностью. rename атомарен
// только в пределах одного тома; fsync каталога — best‑effort.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	clean := filepath.Clean(path)
	if err := EnsureDir(clean); err != nil {
		return err
	}
	dir := filepath.Dir(clean)

	tmp, err := os.CreateTemp(dir, "atomic-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err = tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err = os.Rename(tmpName, clean); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	if dirFile, openErr := os.Open(dir); openErr == nil {
		if syncErr := dirFile.Sync(); syncErr != nil {
			logger.Warnf("AtomicWriteFile: dir sync error: %v", syncErr)
		}
		_ = dirFile.Close()
	}
	return nil
}
