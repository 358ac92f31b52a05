package controllers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestLogLevelFilter 测试低于当前级别的日志被过滤
func TestLogLevelFilter(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "app.log")

	lm := NewLoggerManager()
	defer lm.Close()
	if err := lm.SetLogFile(logFile); err != nil {
		t.Fatalf("设置日志文件失败: %v", err)
	}
	lm.SetLogLevel("WARN")

	lm.Log("DEBUG", "调试信息")
	lm.Log("INFO", "普通信息")
	lm.Log("WARN", "警告信息")
	lm.Log("ERROR", "错误信息")

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("读取日志文件失败: %v", err)
	}
	content := string(data)

	if strings.Contains(content, "调试信息") || strings.Contains(content, "普通信息") {
		t.Error("低于WARN级别的日志不应输出")
	}
	if !strings.Contains(content, "[WARN] 警告信息") {
		t.Error("WARN级别的日志应输出且带级别前缀")
	}
	if !strings.Contains(content, "[ERROR] 错误信息") {
		t.Error("ERROR级别的日志应输出且带级别前缀")
	}
}
