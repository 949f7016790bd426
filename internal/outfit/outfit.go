// Package outfit turns a wardrobe listing and the current weather into a
// prompt for a text completion service and relays the answer.
package outfit

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/weatherwear/weatherwear/internal/model"
)

var (
	// ErrTimeout is returned when the completion call exceeds its deadline.
	ErrTimeout = errors.New("outfit service timed out")
	// ErrUpstream covers non-success responses and malformed answers.
	ErrUpstream = errors.New("outfit service error")
)

// DefaultTimeout bounds one completion call.
const DefaultTimeout = 30 * time.Second

// Completer sends a prompt to a completion service and returns its text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Generator builds prompts and calls the completer once, without retries.
type Generator struct {
	completer Completer
	timeout   time.Duration
}

func NewGenerator(c Completer, timeout time.Duration) *Generator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Generator{completer: c, timeout: timeout}
}

// Generate asks for an outfit made of items suited to the weather.
func (g *Generator) Generate(ctx context.Context, items []model.WardrobeItem, temperature float64, condition string) (string, error) {
	if g == nil || g.completer == nil {
		return "", fmt.Errorf("%w: no completion service configured", ErrUpstream)
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	text, err := g.completer.Complete(ctx, BuildPrompt(items, temperature, condition))
	if err != nil {
		if isTimeout(ctx, err) {
			return "", ErrTimeout
		}
		if errors.Is(err, ErrUpstream) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty completion", ErrUpstream)
	}
	return text, nil
}

// BuildPrompt renders the wardrobe and the weather as a natural-language
// request.
func BuildPrompt(items []model.WardrobeItem, temperature float64, condition string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The weather today is %s with a temperature of %.1f°C.\n", strings.TrimSpace(condition), temperature)
	if len(items) == 0 {
		b.WriteString("My wardrobe is empty. Suggest a general outfit for this weather.\n")
		return b.String()
	}
	b.WriteString("My wardrobe contains:\n")
	for _, it := range items {
		fmt.Fprintf(&b, "- %s (%s, %s)\n", it.Name, it.Type, it.Color)
	}
	b.WriteString("Using only items from my wardrobe, suggest one outfit for this weather and explain the choice briefly.\n")
	return b.String()
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
