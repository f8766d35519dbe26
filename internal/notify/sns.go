package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/tartampluch/friendly-reminder/internal/config"
)

// SNSPublisher is the subset of the SNS client used here.
type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes the plain-text digest to an SNS topic.
type SNSNotifier struct {
	Client   SNSPublisher
	TopicARN string
}

// NewSNSNotifier loads the default AWS configuration (environment, shared
// files or instance role) and targets the configured topic.
func NewSNSNotifier(ctx context.Context, s config.SNSSettings) (*SNSNotifier, error) {
	if s.TopicARN == "" {
		return nil, errors.New(config.ErrSNSConfig)
	}

	var opts []func(*awsconfig.LoadOptions) error
	if s.Region != "" {
		opts = append(opts, awsconfig.WithRegion(s.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrSNSConfig, err)
	}

	return &SNSNotifier{Client: sns.NewFromConfig(cfg), TopicARN: s.TopicARN}, nil
}

// Notify implements Notifier.
func (n *SNSNotifier) Notify(ctx context.Context, msg Message) error {
	input := &sns.PublishInput{
		TopicArn: aws.String(n.TopicARN),
		Subject:  aws.String(truncate(msg.Subject, 100)),
		Message:  aws.String(msg.Text),
	}
	if _, err := n.Client.Publish(ctx, input); err != nil {
		return fmt.Errorf("%s: %w", config.ErrNotifySend, err)
	}
	return nil
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
