package invoice

import (
	"fmt"
	"strings"

	"notion2mf/pkg/models"
)

// validateForSingle checks that a project can become an invoice on its own.
func validateForSingle(p *models.TrainingProject) error {
	var violations []string

	if strings.TrimSpace(p.Title) == "" {
		violations = append(violations, "title is not set")
	}
	if !p.HasPositiveAmount() {
		violations = append(violations, amountViolation(p))
	}
	if p.EndDate == nil {
		violations = append(violations, "end date is not set")
	}

	return newValidationError(p.Title, violations)
}

// validateForGroup checks that a project can be placed in a customer×month group.
func validateForGroup(p *models.TrainingProject) error {
	var violations []string

	if strings.TrimSpace(p.Title) == "" {
		violations = append(violations, "title is not set")
	}
	if strings.TrimSpace(p.CustomerName) == "" {
		violations = append(violations, "customer name is not set")
	}
	if p.StartDate == nil {
		violations = append(violations, "start date is not set")
	}
	if !p.HasPositiveAmount() {
		violations = append(violations, amountViolation(p))
	}

	return newValidationError(p.Title, violations)
}

func amountViolation(p *models.TrainingProject) string {
	if p.Amount == nil {
		return "amount is not set"
	}
	return fmt.Sprintf("amount must be greater than zero (got %s)", p.Amount)
}

func newValidationError(subject string, violations []string) error {
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Subject: subject, Violations: violations}
}
