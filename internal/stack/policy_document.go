package stack

import (
	"fmt"

	"github.com/goccy/go-json"
)

type PolicyDocument struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

type Statement struct {
	Effect   string   `json:"Effect"`
	Action   []string `json:"Action"`
	Resource []string `json:"Resource"`
}

// Document renders the function grants as an IAM policy, substituting the
// provisioned topic ARN for the placeholder.
func (f Function) Document(topicARN string) PolicyDocument {
	doc := PolicyDocument{Version: "2012-10-17"}
	for _, g := range f.Grants {
		resources := make([]string, len(g.Resources))
		for i, r := range g.Resources {
			if r == TopicPlaceholder && topicARN != "" {
				r = topicARN
			}
			resources[i] = r
		}
		doc.Statement = append(doc.Statement, Statement{
			Effect:   "Allow",
			Action:   append([]string(nil), g.Actions...),
			Resource: resources,
		})
	}
	return doc
}

func (d PolicyDocument) JSON() (string, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to marshal policy document: %w", err)
	}
	return string(data), nil
}
