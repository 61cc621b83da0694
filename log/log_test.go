package log

import (
	"os"
	"testing"
)

func chTempDir(t *testing.T) {
	t.Helper()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}

	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}

	t.Cleanup(func() { os.Chdir(wd) })
}

func TestInitRotatesLargeErrorLog(t *testing.T) {
	chTempDir(t)

	if err := os.WriteFile(errLogName, make([]byte, maxErrLogSize), 0640); err != nil {
		t.Fatalf("Failed to seed error log: %v", err)
	}

	Init()

	if _, err := os.Stat(errLogName + ".1"); err != nil {
		t.Errorf("Oversized error log was not rotated aside: %v", err)
	}

	info, err := os.Stat(errLogName)
	if err != nil {
		t.Fatalf("Error log missing after Init: %v", err)
	}

	if info.Size() >= maxErrLogSize {
		t.Errorf("Error log still %d bytes after rotation", info.Size())
	}
}

func TestInitKeepsSmallErrorLog(t *testing.T) {
	chTempDir(t)

	content := []byte("previous run\n")
	if err := os.WriteFile(errLogName, content, 0640); err != nil {
		t.Fatalf("Failed to seed error log: %v", err)
	}

	Init()

	if _, err := os.Stat(errLogName + ".1"); err == nil {
		t.Error("Small error log must not be rotated")
	}

	info, err := os.Stat(errLogName)
	if err != nil {
		t.Fatalf("Error log missing after Init: %v", err)
	}

	if info.Size() != int64(len(content)) {
		t.Errorf("Small error log was modified: size %d, want %d", info.Size(), len(content))
	}
}
