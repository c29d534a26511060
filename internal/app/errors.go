package app

import (
	"fmt"
	"net/http"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func invalidIdentifier(raw any) *DomainError {
	return domainError(http.StatusUnprocessableEntity, "INVALID_IDENTIFIER",
		"Identifier could not be resolved", map[string]any{"value": fmt.Sprintf("%v", raw)})
}

func missingRelation(kind, id string) *DomainError {
	return domainError(http.StatusUnprocessableEntity, "MISSING_RELATION",
		fmt.Sprintf("Referenced %s does not exist", kind), map[string]any{"kind": kind, "id": id})
}

func numberOverflow(country, year int) *DomainError {
	return domainError(http.StatusConflict, "NUMBER_OVERFLOW",
		"Sequence range for this country and year is exhausted",
		map[string]any{"country": country, "year": year})
}

func numberCollision(number string) *DomainError {
	return domainError(http.StatusConflict, "NUMBER_COLLISION",
		"Project number is already taken", map[string]any{"number": number})
}

func partialSyncFailure(proposalID, target string, cause error) *DomainError {
	return domainError(http.StatusInternalServerError, "PARTIAL_SYNC_FAILURE",
		"Proposal was saved but the project status update failed",
		map[string]any{"proposalId": proposalID, "target": target, "cause": cause.Error()})
}

func validationError(message string) *DomainError {
	return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", message, nil)
}
