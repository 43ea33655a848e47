package report

import (
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/sirupsen/logrus"
)

// Publisher sends rendered reports to a Kafka topic for the notification
// consumers.
type Publisher struct {
	producer *kafka.Producer
	topic    string
	log      logrus.FieldLogger
}

func NewPublisher(broker, topic string, log logrus.FieldLogger) (*Publisher, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": broker,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	p := &Publisher{producer: producer, topic: topic, log: log}
	p.startDeliveryReport()
	return p, nil
}

func (p *Publisher) startDeliveryReport() {
	go func() {
		for e := range p.producer.Events() {
			switch ev := e.(type) {
			case *kafka.Message:
				if ev.TopicPartition.Error != nil {
					p.log.Errorf("report delivery failed: %v", ev.TopicPartition.Error)
				}
			}
		}
	}()
}

// Publish enqueues the report keyed by its date.
func (p *Publisher) Publish(r Report) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	err = p.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &p.topic, Partition: kafka.PartitionAny},
		Key:            []byte(r.Date),
		Value:          payload,
	}, nil)
	if err != nil {
		return fmt.Errorf("produce report: %w", err)
	}

	p.log.WithField("date", r.Date).Info("daily report published")
	return nil
}

// Close flushes pending deliveries and releases the producer.
func (p *Publisher) Close() {
	p.producer.Flush(5000)
	p.producer.Close()
	p.log.Info("report publisher closed")
}
