package generator

import (
	"context"
	"errors"
	"strings"

	"github.com/fdg312/coach-hub/internal/config"
	"github.com/fdg312/coach-hub/internal/nutrition"
)

// ErrTimeout is returned when the upstream call ran past its deadline.
var ErrTimeout = errors.New("generator timeout")

// Generator produces a raw weekly meal plan document. The shape of the
// document is not guaranteed; callers normalize it.
type Generator interface {
	Generate(ctx context.Context, req Request) ([]byte, error)
}

type Preferences struct {
	Allergies        string `json:"allergies,omitempty"`
	AvoidIngredients string `json:"avoidIngredients,omitempty"`
	FoodPreferences  string `json:"foodPreferences,omitempty"`
}

// Request is the body posted to the upstream generator.
type Request struct {
	Calculations nutrition.Calculations `json:"calculations"`
	Preferences  Preferences            `json:"preferences"`
}

func NewGenerator(cfg *config.Config) Generator {
	mode := strings.ToLower(strings.TrimSpace(cfg.GeneratorMode))
	if mode == "" {
		mode = config.GeneratorModeMock
	}

	switch mode {
	case config.GeneratorModeHTTP:
		return NewHTTPGenerator(cfg)
	case config.GeneratorModeOpenAI:
		return NewOpenAIGenerator(cfg)
	default:
		return NewMockGenerator()
	}
}
