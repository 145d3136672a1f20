package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/hrhub/backend-go/internal/logger"
)

// Producer Kafka生产者
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// QueryEventMessage 问答事件消息，供下游分析系统消费
type QueryEventMessage struct {
	QueryID         uint      `json:"query_id"`
	UserID          string    `json:"user_id"`
	Question        string    `json:"question"`
	ConfidenceScore float64   `json:"confidence_score"`
	ResponseTimeMs  int       `json:"response_time_ms"`
	Sources         []string  `json:"sources"`
	SuggestedForms  []uint    `json:"suggested_forms"`
	Degraded        bool      `json:"degraded"`
	Timestamp       time.Time `json:"timestamp"`
}

var globalProducer *Producer

// InitProducer 初始化Kafka生产者
func InitProducer(brokers []string, topic string) error {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Timeout = 10 * time.Second

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return fmt.Errorf("创建Kafka生产者失败: %w", err)
	}

	globalProducer = &Producer{
		producer: producer,
		topic:    topic,
	}

	logger.Info("Kafka生产者初始化成功", zap.Strings("brokers", brokers), zap.String("topic", topic))
	return nil
}

// GetProducer 获取全局生产者实例
func GetProducer() *Producer {
	return globalProducer
}

// SendMessage 发送消息到Kafka
func (p *Producer) SendMessage(msg *QueryEventMessage) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("Kafka生产者未初始化")
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}

	kafkaMsg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(msg.UserID),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("query_id"),
				Value: []byte(fmt.Sprintf("%d", msg.QueryID)),
			},
		},
	}

	partition, offset, err := p.producer.SendMessage(kafkaMsg)
	if err != nil {
		logger.Error("发送Kafka消息失败", zap.Error(err))
		return fmt.Errorf("发送消息失败: %w", err)
	}

	logger.Debug("Kafka消息发送成功",
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
		zap.Uint("query_id", msg.QueryID))

	return nil
}

// Close 关闭生产者
func (p *Producer) Close() error {
	if p != nil && p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// SendQueryEvent 发送问答事件（便捷方法）
func SendQueryEvent(msg *QueryEventMessage) error {
	producer := GetProducer()
	if producer == nil {
		// Kafka未配置时静默跳过，不影响主流程
		return nil
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	return producer.SendMessage(msg)
}
