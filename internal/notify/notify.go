// Package notify 提供价格变动事件的通知出口
// 邮件和文案生成由外部服务承担，这里只定义本地可用的实现
package notify

import (
	"context"
	"fmt"

	"price_tracker/controllers"
	"price_tracker/internal/model"
)

// LogNotifier 把价格变动事件写入日志
// 没有接入外部通知服务时的默认实现
type LogNotifier struct {
	logger *controllers.LoggerManager
}

// NewLogNotifier 创建日志通知器
func NewLogNotifier(logger *controllers.LoggerManager) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// OnSignificantChange 记录一次显著价格变动
func (n *LogNotifier) OnSignificantChange(_ context.Context, event *model.AlertEvent) error {
	if n.logger == nil {
		return nil
	}
	n.logger.Log("INFO", fmt.Sprintf(
		"价格提醒 [%s] %s: %.2f -> %.2f (%s)",
		event.Platform, event.ProductName, event.OldPrice, event.NewPrice, event.URL,
	))
	return nil
}
