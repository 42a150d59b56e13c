package storage

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestAtomicWriteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "session.txt")

	if err := AtomicWriteFile(path, []byte("first"), SecretFilePerm); err != nil {
		t.Fatalf("AtomicWriteFile() error = %v", err)
	}
	if err := AtomicWriteFile(path, []byte("second"), SecretFilePerm); err != nil {
		t.Fatalf("AtomicWriteFile() overwrite error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Fatalf("content = %q, want %q", data, "second")
	}

	if runtime.GOOS != "windows" {
		info, statErr := os.Stat(path)
		if statErr != nil {
			t.Fatal(statErr)
		}
		if info.Mode().Perm() != SecretFilePerm {
			t.Fatalf("perm = %v, want %v", info.Mode().Perm(), SecretFilePerm)
		}
	}

	leftovers, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "atomic-*.tmp"))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestEnsureDirNoDir(t *testing.T) {
	t.Parallel()

	if err := EnsureDir("file.txt"); err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}
}
