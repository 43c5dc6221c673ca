package domain

import "fmt"

// User-facing upload status texts.
const (
	MsgNoFileSelected = "Please select a file to upload."
	MsgUploadFailed   = "Failed to upload the file. Please try again."
)

func UploadedMessage(name string) string {
	return fmt.Sprintf("File \"%s\" uploaded successfully! It will be anonymized shortly.", name)
}
