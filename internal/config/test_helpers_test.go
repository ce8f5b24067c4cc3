package config

import (
	"os"
	"path/filepath"
	"testing"
)

func testConfigPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join("testdata", name)
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("写入临时配置失败: %v", err)
	}
	return path
}

// clearStoreEnv 屏蔽宿主机上可能存在的 DB_URL/AUTH，保证用例只读取配置文件。
func clearStoreEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DB_URL", "AUTH", "SYNC_AUTH"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}
