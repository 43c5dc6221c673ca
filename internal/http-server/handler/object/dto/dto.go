package dto

import (
	"time"

	"nullid/internal/domain"
)

type ListRequest struct {
	Prefix string `validate:"required,endswith=/"`
}

type ObjectResponse struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type,omitempty"`
	Owner        string    `json:"owner,omitempty"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified,omitempty"`
}

type UploadResponse struct {
	ObjectResponse
	Message string `json:"message"`
}

type ListResponse struct {
	Prefix  string           `json:"prefix"`
	Objects []ObjectResponse `json:"objects"`
}

func FromObject(o domain.Object) ObjectResponse {
	return ObjectResponse{
		Key:          o.Key,
		Size:         o.Size,
		ContentType:  o.ContentType,
		Owner:        o.Owner,
		ETag:         o.ETag,
		LastModified: o.LastModified,
	}
}
