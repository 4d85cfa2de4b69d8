package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"ms-vouchers/internal/models"
)

// Producer streams domain events to Kafka. All publishing is best
// effort from the caller's point of view; a grant is committed in the
// store before anything is published.
type Producer struct {
	Writer *kafka.Writer
	Topics Topics
}

type Topics struct {
	RedemptionGranted string
	MemberCreated     string
	MemberDeleted     string
}

func NewProducer(brokers []string, topics Topics) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{Writer: writer, Topics: topics}
}

func (p *Producer) publish(topic string, key string, payload interface{}) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(context.Background(), kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	})
}

// PublishRedemptionGranted streams a committed ledger entry. Keyed by
// member so a consumer sees one member's grants in order.
func (p *Producer) PublishRedemptionGranted(rec models.Redemption) error {
	return p.publish(p.Topics.RedemptionGranted, rec.MemberID, rec)
}

func (p *Producer) PublishMemberCreated(member models.Member) error {
	// Never leak the secret token onto the bus.
	member.Token = ""
	return p.publish(p.Topics.MemberCreated, member.ID, member)
}

func (p *Producer) PublishMemberDeleted(member models.Member) error {
	member.Token = ""
	return p.publish(p.Topics.MemberDeleted, member.ID, member)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
