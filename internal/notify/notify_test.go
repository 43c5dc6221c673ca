package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

type fakeSNS struct {
	publishFn func(in *sns.PublishInput) (*sns.PublishOutput, error)
	published []*sns.PublishInput
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.published = append(f.published, in)
	if f.publishFn != nil {
		return f.publishFn(in)
	}
	return &sns.PublishOutput{MessageId: aws.String("m-1")}, nil
}

func (f *fakeSNS) CreateTopic(context.Context, *sns.CreateTopicInput, ...func(*sns.Options)) (*sns.CreateTopicOutput, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeSNS) Subscribe(context.Context, *sns.SubscribeInput, ...func(*sns.Options)) (*sns.SubscribeOutput, error) {
	return nil, errors.New("not implemented")
}

func logger() *zlog.Zerolog {
	zlog.Init()
	return &zlog.Logger
}

func TestNotifyPublishes(t *testing.T) {
	client := &fakeSNS{}
	n := NewSNSNotifier(client, "arn:aws:sns:us-east-1:1:errors", logger())

	err := n.Notify(context.Background(), ErrorSubject, "boom")
	require.NoError(t, err)
	require.Len(t, client.published, 1)
	assert.Equal(t, "arn:aws:sns:us-east-1:1:errors", aws.ToString(client.published[0].TopicArn))
	assert.Equal(t, ErrorSubject, aws.ToString(client.published[0].Subject))
	assert.Equal(t, "boom", aws.ToString(client.published[0].Message))
}

func TestNotifySkipsWithoutTopic(t *testing.T) {
	client := &fakeSNS{}
	n := NewSNSNotifier(client, "", logger())

	require.NoError(t, n.Notify(context.Background(), ErrorSubject, "boom"))
	assert.Empty(t, client.published)
	assert.False(t, n.Enabled())
}

func TestNotifyWrapsPublishError(t *testing.T) {
	client := &fakeSNS{publishFn: func(*sns.PublishInput) (*sns.PublishOutput, error) {
		return nil, assert.AnError
	}}
	n := NewSNSNotifier(client, "arn:topic", logger())

	err := n.Notify(context.Background(), ErrorSubject, "boom")
	assert.ErrorIs(t, err, ErrPublishFailed)
}

func TestErrorMessage(t *testing.T) {
	msg := ErrorMessage("uploads/a.csv", "data-anonymization-bucket", errors.New("access denied"))
	assert.Equal(t, "Error processing object uploads/a.csv from bucket data-anonymization-bucket. Error: access denied", msg)
}
