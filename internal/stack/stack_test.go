package stack

import (
	"context"
	"strings"
	"testing"

	"nullid/internal/config"
	"nullid/internal/policy"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

const topicARN = "arn:aws:sns:us-east-1:123456789012:nullid-errors"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("NOTIFICATION_EMAIL", "ops@example.com")
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestNewDeclaresFunction(t *testing.T) {
	s := New(testConfig(t), policy.DefaultTable())

	assert.Equal(t, "uploadHandler", s.Function.Name)
	assert.Equal(t, 1024, s.Function.MemoryMB)
	assert.Equal(t, 60, s.Function.TimeoutSeconds)
	assert.Equal(t, "anonymized/", s.Function.Environment["OUTPUT_PREFIX"])
	assert.Equal(t, "INFO", s.Function.Environment["LOG_LEVEL"])
	assert.Contains(t, s.Function.Environment, "ERROR_TOPIC_ARN")

	assert.Equal(t, Trigger{Event: "ObjectCreated:Put", Prefix: "uploads/", Function: "uploadHandler"}, s.Bucket.Trigger)
}

func TestFunctionGrantsAreExact(t *testing.T) {
	s := New(testConfig(t), policy.DefaultTable())
	bucket := s.Bucket.Name

	want := []Grant{
		{Actions: []string{ActionGetObject}, Resources: []string{ObjectARN(bucket, "uploads/*"), ObjectARN(bucket, "anonymized/*")}},
		{Actions: []string{ActionPutObject}, Resources: []string{ObjectARN(bucket, "uploads/*"), ObjectARN(bucket, "anonymized/*")}},
		{Actions: []string{ActionPublish}, Resources: []string{TopicPlaceholder}},
	}
	assert.Equal(t, want, s.Function.Grants)
}

func TestDocumentSubstitutesTopic(t *testing.T) {
	s := New(testConfig(t), policy.DefaultTable())
	doc := s.Function.Document(topicARN)

	require.Len(t, doc.Statement, 3)
	assert.Equal(t, "2012-10-17", doc.Version)
	assert.Equal(t, []string{topicARN}, doc.Statement[2].Resource)

	raw, err := doc.JSON()
	require.NoError(t, err)
	assert.NotContains(t, raw, TopicPlaceholder)
	assert.Contains(t, raw, `"Effect":"Allow"`)
}

func TestRestAPIAndTopic(t *testing.T) {
	s := New(testConfig(t), policy.DefaultTable())

	require.Len(t, s.API.Resources, 2)
	assert.Equal(t, "/items", s.API.Resources[0].Path)
	assert.Equal(t, []string{"GET", "POST", "PUT", "DELETE"}, s.API.Resources[0].Methods)
	assert.Equal(t, []string{MethodAny}, s.API.Resources[1].Methods)
	assert.Equal(t, []string{"*"}, s.API.CORS.AllowOrigins)

	assert.Equal(t, "Lambda Error Notifications", s.Topic.DisplayName)
	assert.Equal(t, []Subscription{{Protocol: "email", Endpoint: "ops@example.com"}}, s.Topic.Subscriptions)
	assert.Equal(t, []string{"uploadHandler"}, s.Topic.Publishers)
}

func TestBucketRulesMirrorTable(t *testing.T) {
	s := New(testConfig(t), policy.DefaultTable())
	assert.Contains(t, s.Bucket.Rules, AccessRule{Pattern: "anonymized/*", Principal: "authenticated", Operations: []string{"read"}})
	assert.Len(t, s.Bucket.Rules, len(policy.DefaultTable().Rules()))
}

func TestCORSOptionsExpandAny(t *testing.T) {
	opts := CORS{AllowOrigins: []string{"*"}, AllowMethods: []string{MethodAny}, AllowHeaders: []string{"*"}}.Options()
	assert.Contains(t, opts.AllowedMethods, "DELETE")
	assert.Contains(t, opts.AllowedMethods, "OPTIONS")
	assert.Equal(t, []string{"*"}, opts.AllowedOrigins)
}

func TestStackEncodesAsJSON(t *testing.T) {
	data, err := json.Marshal(New(testConfig(t), policy.DefaultTable()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"memoryMB":1024`)
	assert.Contains(t, string(data), `"timeoutSeconds":60`)
}

type fakeSNS struct {
	topics []*sns.CreateTopicInput
	subs   []*sns.SubscribeInput
}

func (f *fakeSNS) Publish(context.Context, *sns.PublishInput, ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return &sns.PublishOutput{}, nil
}

func (f *fakeSNS) CreateTopic(_ context.Context, in *sns.CreateTopicInput, _ ...func(*sns.Options)) (*sns.CreateTopicOutput, error) {
	f.topics = append(f.topics, in)
	return &sns.CreateTopicOutput{TopicArn: aws.String(topicARN)}, nil
}

func (f *fakeSNS) Subscribe(_ context.Context, in *sns.SubscribeInput, _ ...func(*sns.Options)) (*sns.SubscribeOutput, error) {
	f.subs = append(f.subs, in)
	return &sns.SubscribeOutput{SubscriptionArn: aws.String("pending confirmation")}, nil
}

// fakeIAM evaluates Allow statements with trailing-* resource matching.
type fakeIAM struct{}

func (fakeIAM) SimulateCustomPolicy(_ context.Context, in *iam.SimulateCustomPolicyInput, _ ...func(*iam.Options)) (*iam.SimulateCustomPolicyOutput, error) {
	var doc PolicyDocument
	if err := json.Unmarshal([]byte(in.PolicyInputList[0]), &doc); err != nil {
		return nil, err
	}
	decision := iamtypes.PolicyEvaluationDecisionTypeImplicitDeny
	for _, st := range doc.Statement {
		for _, a := range st.Action {
			if a != in.ActionNames[0] {
				continue
			}
			for _, r := range st.Resource {
				if r == in.ResourceArns[0] || (strings.HasSuffix(r, "*") && strings.HasPrefix(in.ResourceArns[0], strings.TrimSuffix(r, "*"))) {
					decision = iamtypes.PolicyEvaluationDecisionTypeAllowed
				}
			}
		}
	}
	return &iam.SimulateCustomPolicyOutput{EvaluationResults: []iamtypes.EvaluationResult{{
		EvalActionName: aws.String(in.ActionNames[0]),
		EvalDecision:   decision,
	}}}, nil
}

func TestProvisionTopic(t *testing.T) {
	zlog.Init()
	snsClient := &fakeSNS{}
	p := NewProvisioner(snsClient, fakeIAM{}, &zlog.Logger)
	s := New(testConfig(t), policy.DefaultTable())

	res, err := p.ProvisionTopic(context.Background(), s.Topic)
	require.NoError(t, err)
	assert.Equal(t, topicARN, res.TopicARN)
	require.Len(t, snsClient.topics, 1)
	assert.Equal(t, "Lambda Error Notifications", snsClient.topics[0].Attributes["DisplayName"])
	require.Len(t, snsClient.subs, 1)
	assert.Equal(t, "email", aws.ToString(snsClient.subs[0].Protocol))
	assert.Equal(t, "ops@example.com", aws.ToString(snsClient.subs[0].Endpoint))
}

func TestVerifyGrants(t *testing.T) {
	zlog.Init()
	p := NewProvisioner(&fakeSNS{}, fakeIAM{}, &zlog.Logger)
	s := New(testConfig(t), policy.DefaultTable())

	require.NoError(t, p.VerifyGrants(context.Background(), s.Function.Document(topicARN), s.Bucket.Name, topicARN))
}

func TestVerifyGrantsDetectsOverreach(t *testing.T) {
	zlog.Init()
	p := NewProvisioner(&fakeSNS{}, fakeIAM{}, &zlog.Logger)
	s := New(testConfig(t), policy.DefaultTable())

	doc := s.Function.Document(topicARN)
	doc.Statement = append(doc.Statement, Statement{Effect: "Allow", Action: []string{ActionPutObject}, Resource: []string{ObjectARN(s.Bucket.Name, "*")}})

	err := p.VerifyGrants(context.Background(), doc, s.Bucket.Name, topicARN)
	assert.ErrorIs(t, err, ErrGrantMismatch)
}
