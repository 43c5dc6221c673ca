// Package stack declares the deployed resources of the workflow: the storage
// bucket with its access rules and trigger, the processing function with its
// grants, the REST surface and the error topic.
package stack

import (
	"net/http"
	"sort"
	"time"

	"nullid/internal/config"
	"nullid/internal/domain"
	"nullid/internal/policy"
)

type Stack struct {
	Name     string   `json:"name"`
	Bucket   Bucket   `json:"bucket"`
	Function Function `json:"function"`
	API      RestAPI  `json:"api"`
	Topic    Topic    `json:"topic"`
}

type Bucket struct {
	Name    string       `json:"name"`
	Rules   []AccessRule `json:"rules"`
	Trigger Trigger      `json:"trigger"`
}

type AccessRule struct {
	Pattern    string   `json:"pattern"`
	Principal  string   `json:"principal"`
	Operations []string `json:"operations"`
}

type Trigger struct {
	Event    string `json:"event"`
	Prefix   string `json:"prefix"`
	Function string `json:"function"`
}

type Function struct {
	Name           string            `json:"name"`
	Runtime        string            `json:"runtime"`
	MemoryMB       int               `json:"memoryMB"`
	TimeoutSeconds int               `json:"timeoutSeconds"`
	Environment    map[string]string `json:"environment"`
	Grants         []Grant           `json:"grants"`
}

// Grant is one allow statement of the function's execution role.
type Grant struct {
	Actions   []string `json:"actions"`
	Resources []string `json:"resources"`
}

type RestAPI struct {
	Name      string     `json:"name"`
	Resources []Resource `json:"resources"`
	CORS      CORS       `json:"cors"`
}

type Resource struct {
	Path    string   `json:"path"`
	Methods []string `json:"methods"`
}

type CORS struct {
	AllowOrigins []string `json:"allowOrigins"`
	AllowMethods []string `json:"allowMethods"`
	AllowHeaders []string `json:"allowHeaders"`
}

type Topic struct {
	Name          string         `json:"name"`
	DisplayName   string         `json:"displayName"`
	Subscriptions []Subscription `json:"subscriptions"`
	Publishers    []string       `json:"publishers"`
}

type Subscription struct {
	Protocol string `json:"protocol"`
	Endpoint string `json:"endpoint"`
}

const (
	ActionGetObject = "s3:GetObject"
	ActionPutObject = "s3:PutObject"
	ActionPublish   = "sns:Publish"

	// MethodAny stands for every HTTP method on a proxy resource.
	MethodAny = "ANY"
)

// TopicPlaceholder stands in for the error topic ARN until it is provisioned.
const TopicPlaceholder = "${ErrorTopicArn}"

// New builds the stack from configuration and the access table.
func New(cfg *config.Config, table *policy.Table) Stack {
	s := Stack{
		Name: "nullid",
		Bucket: Bucket{
			Name: cfg.Storage.Bucket,
			Trigger: Trigger{
				Event:    domain.EventObjectCreatedPut,
				Prefix:   cfg.Function.TriggerPrefix,
				Function: cfg.Function.Name,
			},
		},
		Function: Function{
			Name:           cfg.Function.Name,
			Runtime:        cfg.Function.Runtime,
			MemoryMB:       cfg.Function.MemoryMB,
			TimeoutSeconds: int(cfg.Function.Timeout / time.Second),
			Environment:    cfg.FunctionEnvironment(),
		},
		API: RestAPI{
			Name: "nullid-api",
			Resources: []Resource{
				{Path: "/items", Methods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}},
				{Path: "/items/{proxy+}", Methods: []string{MethodAny}},
			},
			CORS: CORS{
				AllowOrigins: []string{"*"},
				AllowMethods: []string{MethodAny},
				AllowHeaders: []string{"*"},
			},
		},
		Topic: Topic{
			Name:        cfg.Notification.TopicName,
			DisplayName: cfg.Notification.DisplayName,
			Publishers:  []string{cfg.Function.Name},
		},
	}
	if cfg.Notification.Email != "" {
		s.Topic.Subscriptions = []Subscription{{Protocol: "email", Endpoint: cfg.Notification.Email}}
	}

	for _, r := range table.Rules() {
		ops := make([]string, 0, len(r.Operations))
		for _, op := range r.Operations {
			ops = append(ops, string(op))
		}
		s.Bucket.Rules = append(s.Bucket.Rules, AccessRule{Pattern: r.Pattern, Principal: string(r.Principal), Operations: ops})
	}

	s.Function.Grants = FunctionGrants(cfg.Storage.Bucket, table, TopicPlaceholder)
	return s
}

// FunctionGrants derives the function role from the function rules of the
// access table: read maps to GetObject, write to PutObject, plus publish on
// the error topic.
func FunctionGrants(bucket string, table *policy.Table, topicARN string) []Grant {
	byAction := make(map[string][]string)
	for _, r := range table.Rules() {
		if r.Principal != domain.PrincipalFunction {
			continue
		}
		resource := ObjectARN(bucket, r.Prefix()+"*")
		for _, op := range r.Operations {
			switch op {
			case domain.OpRead:
				byAction[ActionGetObject] = append(byAction[ActionGetObject], resource)
			case domain.OpWrite:
				byAction[ActionPutObject] = append(byAction[ActionPutObject], resource)
			}
		}
	}

	var grants []Grant
	actions := make([]string, 0, len(byAction))
	for a := range byAction {
		actions = append(actions, a)
	}
	sort.Strings(actions)
	for _, a := range actions {
		grants = append(grants, Grant{Actions: []string{a}, Resources: byAction[a]})
	}
	return append(grants, Grant{Actions: []string{ActionPublish}, Resources: []string{topicARN}})
}

func ObjectARN(bucket, key string) string {
	return "arn:aws:s3:::" + bucket + "/" + key
}
