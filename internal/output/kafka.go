package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/chrisdamba/dispatchsim/internal/logger"
	"github.com/chrisdamba/dispatchsim/internal/models"
)

type KafkaOutput struct {
	producer sarama.SyncProducer
	topic    string
	log      logger.Logger
}

// NewSaramaConfig returns the producer settings used for every Kafka output.
func NewSaramaConfig(cfg models.KafkaConfig) *sarama.Config {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Retry.Backoff = 100 * time.Millisecond
	saramaConfig.Producer.Return.Successes = true // required by SyncProducer
	saramaConfig.Net.DialTimeout = 30 * time.Second
	saramaConfig.Net.ReadTimeout = 30 * time.Second
	saramaConfig.Net.WriteTimeout = 30 * time.Second

	if cfg.SessionTimeoutMs > 0 {
		saramaConfig.Consumer.Group.Session.Timeout = time.Duration(cfg.SessionTimeoutMs) * time.Millisecond
	} else {
		saramaConfig.Consumer.Group.Session.Timeout = 45 * time.Second
	}
	return saramaConfig
}

func NewKafkaOutput(cfg models.KafkaConfig, log logger.Logger) (*KafkaOutput, error) {
	brokerList := strings.Split(cfg.BrokerList, ",")
	producer, err := sarama.NewSyncProducer(brokerList, NewSaramaConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create Sarama producer: %w", err)
	}
	log.Infof("sarama producer created with brokers %v", brokerList)
	return NewKafkaOutputWithProducer(producer, cfg.Topic, log), nil
}

// NewKafkaOutputWithProducer wraps an existing producer. A non-empty topic
// overrides the topic of every message.
func NewKafkaOutputWithProducer(producer sarama.SyncProducer, topic string, log logger.Logger) *KafkaOutput {
	return &KafkaOutput{producer: producer, topic: topic, log: log}
}

func (k *KafkaOutput) WriteMessage(topic string, msg []byte) error {
	if k.producer == nil {
		return fmt.Errorf("kafka producer is not initialized")
	}
	if k.topic != "" {
		topic = k.topic
	}

	_, _, err := k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(msg),
	})
	if err != nil {
		k.log.Errorf("failed to send message to topic %s: %v", topic, err)
		return fmt.Errorf("failed to send message to topic %s: %w", topic, err)
	}
	return nil
}

func (k *KafkaOutput) Close() error {
	if k.producer != nil {
		return k.producer.Close()
	}
	return nil
}
