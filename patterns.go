package lifeback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/suyash-sneo/lifeback/life"
	"github.com/suyash-sneo/lifeback/store"
)

// PatternProvider resolves starting boards by name.
type PatternProvider interface {
	Get(ctx context.Context, name string) (life.Pattern, error)
	List(ctx context.Context) ([]life.Pattern, error)
}

// PatternSaver is implemented by providers that can persist patterns.
type PatternSaver interface {
	Save(ctx context.Context, pat life.Pattern) error
	Delete(ctx context.Context, name string) error
}

// ErrPatternNotFound indicates no provider knows the requested name.
var ErrPatternNotFound = errors.New("pattern not found")

// ErrReadOnlyProvider is returned by providers that cannot save.
var ErrReadOnlyProvider = errors.New("pattern provider is read-only")

// PatternNotFoundError carries close matches for a missing pattern.
type PatternNotFoundError struct {
	Name        string
	Suggestions []string
}

func (e *PatternNotFoundError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("pattern %q not found", e.Name)
	}
	return fmt.Sprintf("pattern %q not found (did you mean %s?)", e.Name, strings.Join(e.Suggestions, ", "))
}

func (e *PatternNotFoundError) Unwrap() error { return ErrPatternNotFound }

func notFound(name string, known []string) error {
	matches := fuzzy.Find(name, known)
	suggestions := make([]string, 0, 3)
	for _, m := range matches {
		if len(suggestions) == 3 {
			break
		}
		suggestions = append(suggestions, m.Str)
	}
	return &PatternNotFoundError{Name: name, Suggestions: suggestions}
}

// StaticPatternProvider serves a fixed pattern set, the built-ins by default.
type StaticPatternProvider struct {
	patterns []life.Pattern
	index    map[string]life.Pattern
}

// NewStaticPatternProvider indexes patterns by lower-cased name. With no
// arguments it serves life.Builtins.
func NewStaticPatternProvider(patterns ...life.Pattern) *StaticPatternProvider {
	if len(patterns) == 0 {
		patterns = life.Builtins()
	}
	index := make(map[string]life.Pattern, len(patterns))
	list := make([]life.Pattern, 0, len(patterns))
	for _, p := range patterns {
		key := normalizeName(p.Name)
		if _, dup := index[key]; dup {
			continue
		}
		index[key] = p
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return &StaticPatternProvider{patterns: list, index: index}
}

func (s *StaticPatternProvider) Get(ctx context.Context, name string) (life.Pattern, error) {
	_ = ctx
	p, ok := s.index[normalizeName(name)]
	if !ok {
		return life.Pattern{}, notFound(name, s.names())
	}
	return p, nil
}

func (s *StaticPatternProvider) List(ctx context.Context) ([]life.Pattern, error) {
	_ = ctx
	return append([]life.Pattern(nil), s.patterns...), nil
}

func (s *StaticPatternProvider) names() []string {
	names := make([]string, 0, len(s.patterns))
	for _, p := range s.patterns {
		names = append(names, p.Name)
	}
	return names
}

// StorePatternProvider looks in the store first and falls back to a static
// provider. Saved patterns shadow built-ins of the same name.
type StorePatternProvider struct {
	store    store.Store
	fallback *StaticPatternProvider
	session  string
}

// NewStorePatternProvider builds a provider over st. fallback may be nil.
func NewStorePatternProvider(st store.Store, fallback *StaticPatternProvider, sessionID string) *StorePatternProvider {
	if fallback == nil {
		fallback = NewStaticPatternProvider()
	}
	return &StorePatternProvider{store: st, fallback: fallback, session: sessionID}
}

// storedPattern is the JSON body kept in the store.
type storedPattern struct {
	life.Pattern
	SavedBy string    `json:"savedBy,omitempty"`
	SavedAt time.Time `json:"savedAt"`
}

func (p *StorePatternProvider) Get(ctx context.Context, name string) (life.Pattern, error) {
	key := normalizeName(name)
	data, ok, err := p.store.LoadPattern(ctx, key)
	if err != nil {
		return life.Pattern{}, fmt.Errorf("load pattern %s: %w", name, err)
	}
	if ok {
		var stored storedPattern
		if err := json.Unmarshal(data, &stored); err != nil {
			return life.Pattern{}, fmt.Errorf("decode pattern %s: %w", name, err)
		}
		return stored.Pattern, nil
	}
	pat, err := p.fallback.Get(ctx, name)
	if err == nil {
		return pat, nil
	}
	names, listErr := p.names(ctx)
	if listErr != nil {
		return life.Pattern{}, err
	}
	return life.Pattern{}, notFound(name, names)
}

// List returns built-ins merged with stored patterns, sorted by name.
func (p *StorePatternProvider) List(ctx context.Context) ([]life.Pattern, error) {
	byName := map[string]life.Pattern{}
	builtins, _ := p.fallback.List(ctx)
	for _, b := range builtins {
		byName[normalizeName(b.Name)] = b
	}
	stored, err := p.store.ListPatterns(ctx)
	if err != nil {
		return nil, fmt.Errorf("list patterns: %w", err)
	}
	for _, name := range stored {
		pat, err := p.Get(ctx, name)
		if err != nil {
			if errors.Is(err, ErrPatternNotFound) {
				// deleted between list and load
				continue
			}
			return nil, err
		}
		byName[normalizeName(name)] = pat
	}
	out := make([]life.Pattern, 0, len(byName))
	for _, pat := range byName {
		out = append(out, pat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Save stores pat under its name.
func (p *StorePatternProvider) Save(ctx context.Context, pat life.Pattern) error {
	if err := pat.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(storedPattern{Pattern: pat, SavedBy: p.session, SavedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode pattern %s: %w", pat.Name, err)
	}
	return p.store.SavePattern(ctx, normalizeName(pat.Name), body)
}

// Delete removes a stored pattern. Built-ins cannot be deleted.
func (p *StorePatternProvider) Delete(ctx context.Context, name string) error {
	ok, err := p.store.DeletePattern(ctx, normalizeName(name))
	if err != nil {
		return fmt.Errorf("delete pattern %s: %w", name, err)
	}
	if !ok {
		names, _ := p.store.ListPatterns(ctx)
		return notFound(name, names)
	}
	return nil
}

func (p *StorePatternProvider) names(ctx context.Context) ([]string, error) {
	stored, err := p.store.ListPatterns(ctx)
	if err != nil {
		return nil, err
	}
	return append(p.fallback.names(), stored...), nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
