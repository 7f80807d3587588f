package crm

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// APIError is returned when the CRM responds with a non-2xx status that is not
// a recognized recoverable shape. Body carries the raw response for diagnostics.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("crm: HTTP %d: %s", e.StatusCode, e.Body)
}

// contactErrorKind classifies a failed contact-creation response.
type contactErrorKind int

const (
	contactErrorFatal contactErrorKind = iota
	contactErrorDuplicate
)

// contactErrorOutcome is the result of classifying a failed POST /contacts/.
// For duplicates, ContactID holds the id of the already-existing contact.
type contactErrorOutcome struct {
	Kind      contactErrorKind
	ContactID string
}

// duplicateContactBody is the CRM's error shape when the location disallows
// duplicated contacts. The existing contact id rides in meta.contactId.
type duplicateContactBody struct {
	Message string `json:"message"`
	Meta    struct {
		ContactID string `json:"contactId"`
	} `json:"meta"`
}

// classifyCreateContactError decides whether a failed contact creation is the
// CRM signalling an already-existing contact (recoverable) or a real fault.
// The CRM does not use a distinct status or error code for duplicates, only a
// 400 whose body names the duplication and carries the existing id, so the
// shape is sniffed here and nowhere else.
func classifyCreateContactError(statusCode int, body []byte) contactErrorOutcome {
	if statusCode != http.StatusBadRequest {
		return contactErrorOutcome{Kind: contactErrorFatal}
	}

	var dup duplicateContactBody
	if err := json.Unmarshal(body, &dup); err != nil {
		return contactErrorOutcome{Kind: contactErrorFatal}
	}
	if dup.Meta.ContactID == "" {
		return contactErrorOutcome{Kind: contactErrorFatal}
	}
	if !strings.Contains(strings.ToLower(dup.Message), "duplicate") {
		return contactErrorOutcome{Kind: contactErrorFatal}
	}

	return contactErrorOutcome{Kind: contactErrorDuplicate, ContactID: dup.Meta.ContactID}
}
