/*
 * @module service/events/kafka_publisher
 * @description Kafka事件发布实现，将数据集生命周期事件写入固定主题
 * @architecture 适配器模式 - 封装第三方Kafka客户端
 * @documentReference dev_docs/backend_requirements.md 事件通知一节
 * @stateFlow 创建writer -> 发布消息（key为数据集id，保证同数据集事件有序）-> 关闭
 * @rules 消息值为事件JSON；KAFKA_TOPIC 可覆盖主题名
 * @dependencies github.com/segmentio/kafka-go, encoding/json
 * @refs service/events/publisher.go
 */

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

const defaultKafkaTopic = "datawrangle.dataset.events"

// KafkaPublisher Kafka事件发布器
type KafkaPublisher struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaPublisher 创建Kafka事件发布器，brokers为逗号分隔的broker地址
func NewKafkaPublisher(brokers string) (*KafkaPublisher, error) {
	addrs := strings.Split(brokers, ",")
	for i := range addrs {
		addrs[i] = strings.TrimSpace(addrs[i])
	}
	if len(addrs) == 0 || addrs[0] == "" {
		return nil, fmt.Errorf("KAFKA_BROKERS 为空")
	}

	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = defaultKafkaTopic
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(addrs...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 100 * time.Millisecond,
	}

	slog.Info("Kafka事件发布器初始化成功", "brokers", addrs, "topic", topic)
	return &KafkaPublisher{writer: writer, topic: topic}, nil
}

// Publish 发布事件，以数据集id为key保证同数据集事件分区有序
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.DatasetID),
		Value: value,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("发送事件消息失败: %w", err)
	}
	return nil
}

// Close 关闭底层writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
