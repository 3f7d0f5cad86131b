// Package notify alerts the review queue when a submission lands on Manual Hold.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"credit-risk-console/internal/applications"
	"credit-risk-console/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// Notifier is told about every record held for manual review.
type Notifier interface {
	ManualHold(ctx context.Context, record applications.Record) error
}

// Noop discards notifications.
type Noop struct{}

func (Noop) ManualHold(context.Context, applications.Record) error { return nil }

// ManualHoldMessage is the JSON body published for a held application.
type ManualHoldMessage struct {
	Event              string    `json:"event"`
	ApplicationID      string    `json:"applicationId"`
	Name               string    `json:"name"`
	RiskTier           string    `json:"riskTier"`
	DefaultProbability float64   `json:"defaultProbability"`
	Status             string    `json:"status"`
	Summary            string    `json:"summary"`
	OccurredAt         time.Time `json:"occurredAt"`
}

const eventManualHold = "application.manual_hold"

// Publisher is the slice of the SNS client this package uses.
type Publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SNSNotifier struct {
	publisher Publisher
	topicARN  string
	logger    logger.Logger
	now       func() time.Time
}

// NewSNSNotifier loads the default AWS credential chain for region.
func NewSNSNotifier(ctx context.Context, region, topicARN string, log logger.Logger) (*SNSNotifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSNSNotifierWith(sns.NewFromConfig(cfg), topicARN, log), nil
}

func NewSNSNotifierWith(publisher Publisher, topicARN string, log logger.Logger) *SNSNotifier {
	return &SNSNotifier{
		publisher: publisher,
		topicARN:  topicARN,
		logger:    log.Named("notify"),
		now:       time.Now,
	}
}

func (n *SNSNotifier) ManualHold(ctx context.Context, record applications.Record) error {
	msg := ManualHoldMessage{
		Event:              eventManualHold,
		ApplicationID:      record.ID,
		Name:               record.Name,
		RiskTier:           record.RiskTier,
		DefaultProbability: record.DefaultProbability,
		Status:             record.Status,
		Summary:            record.Insights.Summary,
		OccurredAt:         n.now().UTC(),
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode manual hold message: %w", err)
	}

	out, err := n.publisher.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String("Manual hold: " + record.ID),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"riskTier": {DataType: aws.String("String"), StringValue: aws.String(record.RiskTier)},
			"event":    {DataType: aws.String("String"), StringValue: aws.String(eventManualHold)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish manual hold %s: %w", record.ID, err)
	}

	fields := map[string]interface{}{"applicationId": record.ID}
	if out != nil && out.MessageId != nil {
		fields["messageId"] = *out.MessageId
	}
	n.logger.Info("manual hold published", fields)
	return nil
}

