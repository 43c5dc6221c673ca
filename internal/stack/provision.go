package stack

import (
	"context"
	"errors"
	"fmt"

	nullidaws "nullid/internal/aws"
	"nullid/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/wb-go/wbf/zlog"
)

var ErrGrantMismatch = errors.New("function policy does not match declared grants")

type Provisioner struct {
	sns    nullidaws.SNSClient
	iam    nullidaws.IAMClient
	logger *zlog.Zerolog
}

func NewProvisioner(snsClient nullidaws.SNSClient, iamClient nullidaws.IAMClient, logger *zlog.Zerolog) *Provisioner {
	return &Provisioner{
		sns:    snsClient,
		iam:    iamClient,
		logger: logger,
	}
}

type Result struct {
	TopicARN         string   `json:"topicArn"`
	SubscriptionARNs []string `json:"subscriptionArns,omitempty"`
}

// ProvisionTopic creates the error topic (idempotent on the SNS side) and
// subscribes every declared endpoint.
func (p *Provisioner) ProvisionTopic(ctx context.Context, topic Topic) (Result, error) {
	out, err := p.sns.CreateTopic(ctx, &sns.CreateTopicInput{
		Name:       aws.String(topic.Name),
		Attributes: map[string]string{"DisplayName": topic.DisplayName},
	})
	if err != nil {
		return Result{}, fmt.Errorf("failed to create topic %s: %w", topic.Name, err)
	}
	res := Result{TopicARN: aws.ToString(out.TopicArn)}
	p.logger.Info().Str("topic", topic.Name).Str("arn", res.TopicARN).Msg("Topic ready")

	for _, sub := range topic.Subscriptions {
		subOut, err := p.sns.Subscribe(ctx, &sns.SubscribeInput{
			TopicArn:              aws.String(res.TopicARN),
			Protocol:              aws.String(sub.Protocol),
			Endpoint:              aws.String(sub.Endpoint),
			ReturnSubscriptionArn: true,
		})
		if err != nil {
			return res, fmt.Errorf("failed to subscribe %s: %w", sub.Endpoint, err)
		}
		res.SubscriptionARNs = append(res.SubscriptionARNs, aws.ToString(subOut.SubscriptionArn))
		p.logger.Info().Str("protocol", sub.Protocol).Str("endpoint", sub.Endpoint).Msg("Subscription requested")
	}
	return res, nil
}

// Check is one expected decision of the function role.
type Check struct {
	Action   string
	Resource string
	Allowed  bool
}

// Checks lists what the function role must and must not allow: object access
// under the trigger and output prefixes, nothing under logs/, and publishing
// on the error topic.
func Checks(bucket, topicARN string) []Check {
	return []Check{
		{ActionGetObject, ObjectARN(bucket, domain.PrefixUploads+"sample.csv"), true},
		{ActionPutObject, ObjectARN(bucket, domain.PrefixUploads+"sample.csv"), true},
		{ActionGetObject, ObjectARN(bucket, domain.PrefixAnonymized+"sample_anonymized.csv"), true},
		{ActionPutObject, ObjectARN(bucket, domain.PrefixAnonymized+"sample_anonymized.csv"), true},
		{ActionGetObject, ObjectARN(bucket, domain.PrefixLogs+"sample.log"), false},
		{ActionPutObject, ObjectARN(bucket, domain.PrefixLogs+"sample.log"), false},
		{"s3:DeleteObject", ObjectARN(bucket, domain.PrefixUploads+"sample.csv"), false},
		{ActionPublish, topicARN, true},
	}
}

// VerifyGrants simulates the rendered policy against Checks.
func (p *Provisioner) VerifyGrants(ctx context.Context, doc PolicyDocument, bucket, topicARN string) error {
	policyJSON, err := doc.JSON()
	if err != nil {
		return err
	}

	var mismatches []error
	for _, c := range Checks(bucket, topicARN) {
		out, err := p.iam.SimulateCustomPolicy(ctx, &iam.SimulateCustomPolicyInput{
			PolicyInputList: []string{policyJSON},
			ActionNames:     []string{c.Action},
			ResourceArns:    []string{c.Resource},
		})
		if err != nil {
			return fmt.Errorf("failed to simulate %s: %w", c.Action, err)
		}

		allowed := false
		for _, r := range out.EvaluationResults {
			if r.EvalDecision == iamtypes.PolicyEvaluationDecisionTypeAllowed {
				allowed = true
			}
		}
		if allowed != c.Allowed {
			mismatches = append(mismatches, fmt.Errorf("%w: %s on %s allowed=%t, want %t", ErrGrantMismatch, c.Action, c.Resource, allowed, c.Allowed))
		}
	}
	if len(mismatches) > 0 {
		return errors.Join(mismatches...)
	}

	p.logger.Info().Int("checks", len(Checks(bucket, topicARN))).Msg("Function grants verified")
	return nil
}
