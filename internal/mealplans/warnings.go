package mealplans

import (
	"fmt"
	"log"
)

type WarningCode string

const (
	WarnDateInvalid         WarningCode = "date_invalid"
	WarnMealKeyUnknown      WarningCode = "meal_key_unknown"
	WarnMealSlotReassigned  WarningCode = "meal_slot_reassigned"
	WarnMealOverflow        WarningCode = "meal_overflow"
	WarnDayEmpty            WarningCode = "day_empty"
	WarnMealInvalid         WarningCode = "meal_invalid"
	WarnComponentInvalid    WarningCode = "component_invalid"
	WarnDescriptionMismatch WarningCode = "description_mismatch"
	WarnTargetsMissing      WarningCode = "targets_missing"
)

// Warning is an advisory finding. It never aborts normalization.
type Warning struct {
	Code    WarningCode `json:"code"`
	Path    string      `json:"path"`
	Message string      `json:"message"`
}

// Logger is satisfied by *log.Logger.
type Logger interface {
	Printf(format string, v ...any)
}

// Warnings collects warnings in the order they were raised and logs each one.
// A nil *Warnings discards everything.
type Warnings struct {
	list   []Warning
	logger Logger
}

func NewWarnings(logger Logger) *Warnings {
	if logger == nil {
		logger = log.Default()
	}
	return &Warnings{logger: logger}
}

func (w *Warnings) Add(code WarningCode, path, format string, args ...any) {
	if w == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	w.list = append(w.list, Warning{Code: code, Path: path, Message: msg})
	w.logger.Printf("WARN mealplans: code=%s path=%s %s", code, path, msg)
}

// List returns a copy of the collected warnings, never nil.
func (w *Warnings) List() []Warning {
	if w == nil {
		return []Warning{}
	}
	out := make([]Warning, len(w.list))
	copy(out, w.list)
	return out
}

// Has reports whether a warning with code was raised.
func (w *Warnings) Has(code WarningCode) bool {
	if w == nil {
		return false
	}
	for _, x := range w.list {
		if x.Code == code {
			return true
		}
	}
	return false
}
