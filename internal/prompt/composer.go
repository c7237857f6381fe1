package prompt

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fathomhq/fathom/internal/model"
)

const userMacrosPlaceholder = "{{USER_MACROS}}"

// Composer renders named templates from a Store. Template text is cached
// after the first successful load for the process lifetime; template files
// are considered static for a running process, so there is no invalidation.
type Composer struct {
	store Store

	mu    sync.Mutex
	cache map[string]string
}

func NewComposer(store Store) *Composer {
	return &Composer{
		store: store,
		cache: make(map[string]string),
	}
}

// load returns the cached template text, reading through the store exactly
// once per name. The mutex doubles as the load-once guard: concurrent first
// loads of the same template serialize instead of racing.
func (c *Composer) load(name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if text, ok := c.cache[name]; ok {
		return text, nil
	}
	text, err := c.store.Load(name)
	if err != nil {
		return "", err
	}
	c.cache[name] = text
	return text, nil
}

// GetPrompt renders the named template, substituting {arg0}, {arg1}, ... with
// the given arguments.
func (c *Composer) GetPrompt(name string, args ...any) (string, error) {
	text, err := c.load(name)
	if err != nil {
		return "", err
	}
	for i, arg := range args {
		text = strings.ReplaceAll(text, fmt.Sprintf("{arg%d}", i), fmt.Sprint(arg))
	}
	return text, nil
}

// GetSystemPrompt renders the base "system" template with the user's macros
// expanded into the {{USER_MACROS}} slot. The block layout conditions the
// model's tool selection, so it must stay byte-stable.
func (c *Composer) GetSystemPrompt(macros []model.Macro) (string, error) {
	text, err := c.load("system")
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(text, userMacrosPlaceholder, formatMacros(macros)), nil
}

func formatMacros(macros []model.Macro) string {
	var b strings.Builder
	for _, m := range macros {
		b.WriteString(
			fmt.Sprintf(
				"\n[%s]\nPrompt: %s\nRequired Tools: %s\nAllow Other Tools: %v\n",
				m.Name, m.Prompt, strings.Join(m.RequiredActions, ", "), m.AllowOtherActions,
			),
		)
	}
	return b.String()
}
