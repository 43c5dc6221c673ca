package notify

import (
	"context"
	"errors"
	"fmt"

	nullidaws "nullid/internal/aws"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/wb-go/wbf/zlog"
)

const ErrorSubject = "Lambda Function Error"

var ErrPublishFailed = errors.New("notification publish failed")

// SNSNotifier publishes error reports to a topic. An empty topic ARN turns
// every Notify into a logged no-op.
type SNSNotifier struct {
	client   nullidaws.SNSClient
	topicARN string
	logger   *zlog.Zerolog
}

func NewSNSNotifier(client nullidaws.SNSClient, topicARN string, logger *zlog.Zerolog) *SNSNotifier {
	return &SNSNotifier{
		client:   client,
		topicARN: topicARN,
		logger:   logger,
	}
}

func (n *SNSNotifier) Enabled() bool {
	return n.topicARN != "" && n.client != nil
}

func (n *SNSNotifier) Notify(ctx context.Context, subject, message string) error {
	if !n.Enabled() {
		n.logger.Warn().Str("subject", subject).Msg("ERROR_TOPIC_ARN is not set, skipping error notification")
		return nil
	}

	out, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPublishFailed, err)
	}

	n.logger.Info().
		Str("topic_arn", n.topicARN).
		Str("message_id", aws.ToString(out.MessageId)).
		Msg("Error notification published")
	return nil
}

// ErrorMessage is the body published when an object fails to process.
func ErrorMessage(key, bucket string, err error) string {
	return fmt.Sprintf("Error processing object %s from bucket %s. Error: %v", key, bucket, err)
}
