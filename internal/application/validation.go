package application

import (
	"fmt"
	"strings"
)

// ValidateRequired checks if a string field is non-empty (after trimming whitespace).
// Returns a ValidationError if the field is empty.
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is required", formatFieldName(fieldName)),
		}
	}
	return nil
}

// formatFieldName converts camelCase field names to space-separated words
// for more readable error messages (e.g., "editID" -> "edit ID")
func formatFieldName(fieldName string) string {
	replacements := map[string]string{
		"editID":         "edit ID",
		"conversationID": "conversation ID",
		"filePath":       "file path",
		"sourcePath":     "source path",
		"destPath":       "destination path",
		"selector":       "edit ID or conversation ID",
	}

	if formatted, ok := replacements[fieldName]; ok {
		return formatted
	}
	return fieldName
}

// ValidateIdentifier checks that an id can name a file under the history
// root: non-empty, no path separators, not a relative path element.
func ValidateIdentifier(fieldName, id string) error {
	if err := ValidateRequired(fieldName, id); err != nil {
		return err
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." || strings.HasPrefix(id, ".") {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("invalid %s: %q", formatFieldName(fieldName), id),
		}
	}
	return nil
}

// ValidateSelector checks that exactly one of editID and conversationID is set
func ValidateSelector(editID, conversationID string) error {
	hasEdit := strings.TrimSpace(editID) != ""
	hasConv := strings.TrimSpace(conversationID) != ""

	switch {
	case hasEdit && hasConv:
		return &ValidationError{Field: "selector", Message: "give either an edit ID or a conversation ID, not both"}
	case !hasEdit && !hasConv:
		return &ValidationError{Field: "selector", Message: "edit ID or conversation ID is required"}
	case hasEdit:
		return ValidateIdentifier("editID", editID)
	default:
		return ValidateIdentifier("conversationID", conversationID)
	}
}
