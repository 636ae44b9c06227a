/*
 * @module service/events/publisher
 * @description 数据集生命周期事件发布，保存/删除成功后向消息系统广播变更通知
 * @architecture 适配器模式 - 统一发布接口，按环境选择Kafka/MQTT/空实现
 * @documentReference dev_docs/backend_requirements.md 事件通知一节
 * @stateFlow 目录变更提交成功 -> 构造事件 -> 发布（失败仅记录日志，不影响目录操作结果）
 * @rules 事件发布尽力而为；未配置消息系统时退化为空实现
 * @dependencies encoding/json, log/slog
 * @refs service/events/kafka_publisher.go, service/events/mqtt_publisher.go
 */

package events

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// 事件类型
const (
	EventDatasetCreated = "dataset.created"
	EventDatasetUpdated = "dataset.updated"
	EventDatasetDeleted = "dataset.deleted"
)

// Event 数据集生命周期事件
type Event struct {
	Type      string    `json:"type"`
	DatasetID string    `json:"dataset_id"`
	Name      string    `json:"name,omitempty"`
	Owner     string    `json:"owner,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher 事件发布接口
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NoopPublisher 空实现，未配置消息系统时使用
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event Event) error { return nil }
func (NoopPublisher) Close() error                                   { return nil }

// NewPublisherFromEnv 按环境变量选择发布实现
// KAFKA_BROKERS 优先，其次 MQTT_BROKER，均未配置时返回空实现
func NewPublisherFromEnv() Publisher {
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		publisher, err := NewKafkaPublisher(brokers)
		if err != nil {
			slog.Error("Kafka事件发布器初始化失败，事件通知降级为空实现", "error", err)
			return NoopPublisher{}
		}
		return publisher
	}
	if broker := os.Getenv("MQTT_BROKER"); broker != "" {
		publisher, err := NewMQTTPublisher(broker)
		if err != nil {
			slog.Error("MQTT事件发布器初始化失败，事件通知降级为空实现", "error", err)
			return NoopPublisher{}
		}
		return publisher
	}
	slog.Info("未配置消息系统，数据集事件通知已禁用")
	return NoopPublisher{}
}

// PublishAsync 尽力而为地发布事件，失败仅记录日志
func PublishAsync(publisher Publisher, event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := publisher.Publish(ctx, event); err != nil {
		slog.Warn("数据集事件发布失败",
			"type", event.Type,
			"dataset_id", event.DatasetID,
			"error", err)
	}
}
