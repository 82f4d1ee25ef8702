package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Human-readable entity numbers: a date prefix for staff eyeballing plus a
// uuid fragment for uniqueness.

func NewApplicationNumber(now time.Time) string {
	return fmt.Sprintf("APP-%s-%s", now.Format("20060102"), shortID())
}

func NewLoanNumber(now time.Time) string {
	return fmt.Sprintf("LN-%s-%s", now.Format("20060102"), shortID())
}

func shortID() string {
	return strings.ToUpper(uuid.New().String()[:8])
}
