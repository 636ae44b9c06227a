/*
 * @module service/events/mqtt_publisher
 * @description MQTT事件发布实现，将数据集生命周期事件发布到按事件类型划分的主题
 * @architecture 适配器模式 - 封装第三方MQTT客户端
 * @documentReference dev_docs/backend_requirements.md 事件通知一节
 * @stateFlow 连接broker -> 发布消息（QoS 1）-> 断开
 * @rules 主题形如 datawrangle/datasets/{event_type}；连接失败时初始化报错
 * @dependencies github.com/eclipse/paho.mqtt.golang, encoding/json
 * @refs service/events/publisher.go
 */

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTPublisher MQTT事件发布器
type MQTTPublisher struct {
	client mqtt.Client
}

// NewMQTTPublisher 创建MQTT事件发布器并建立连接
func NewMQTTPublisher(broker string) (*MQTTPublisher, error) {
	hostname, _ := os.Hostname()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(fmt.Sprintf("datawrangle-%s-%d", hostname, os.Getpid()))
	opts.SetCleanSession(true)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		slog.Warn("MQTT连接断开", "error", err)
	})

	if username := os.Getenv("MQTT_USERNAME"); username != "" {
		opts.SetUsername(username)
		opts.SetPassword(os.Getenv("MQTT_PASSWORD"))
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT连接失败: %w", token.Error())
	}

	slog.Info("MQTT事件发布器初始化成功", "broker", broker)
	return &MQTTPublisher{client: client}, nil
}

// Publish 发布事件到 datawrangle/datasets/{event_type}
func (p *MQTTPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}

	topic := fmt.Sprintf("datawrangle/datasets/%s", event.Type)
	token := p.client.Publish(topic, 1, false, payload)

	select {
	case <-token.Done():
		if token.Error() != nil {
			return fmt.Errorf("发布事件消息失败: %w", token.Error())
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close 断开MQTT连接
func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
