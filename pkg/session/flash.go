package session

import (
	"maps"
	"slices"

	"github.com/dmitrymomot/sessionkit/pkg/store"
)

// flashKey is where the flash bag lives inside the persisted store.
const flashKey = "__flash__"

// FlashMessages is the read-only flash bag written by the previous request.
type FlashMessages struct {
	store *store.Store
}

func (f *FlashMessages) Get(path string, def any) any {
	return f.store.Get(path, def)
}

func (f *FlashMessages) All() map[string]any {
	return f.store.All()
}

func (f *FlashMessages) Has(path string) bool {
	return f.store.Has(path)
}

func (f *FlashMessages) IsEmpty() bool {
	return f.store.IsEmpty()
}

// responseFlash stages flash data for the next request. The input snapshot is
// replaced by each FlashAll/FlashOnly/FlashExcept call; custom messages accumulate.
type responseFlash struct {
	input  map[string]any
	custom *store.Store
}

func newResponseFlash() *responseFlash {
	return &responseFlash{custom: store.New()}
}

// payload overlays custom messages on the input snapshot.
func (f *responseFlash) payload() (map[string]any, error) {
	if f.input == nil && f.custom.IsEmpty() {
		return nil, nil
	}
	merged, err := store.FromMap(f.input)
	if err != nil {
		return nil, err
	}
	if err := merged.Merge(f.custom.All()); err != nil {
		return nil, err
	}
	return merged.All(), nil
}

// Flash stages a message for the next request.
func (s *Session) Flash(key string, value any) error {
	if err := s.ensureWritable(); err != nil {
		return err
	}
	return s.responseFlash.custom.Set(key, value)
}

// FlashErrors stages validation errors under "errors", merged with earlier ones.
func (s *Session) FlashErrors(errs map[string]string) error {
	if err := s.ensureWritable(); err != nil {
		return err
	}
	if len(errs) == 0 {
		return nil
	}
	return s.responseFlash.custom.Merge(map[string]any{"errors": errs})
}

// FlashAll stages the whole request input.
func (s *Session) FlashAll() error {
	return s.flashInput(func(string) bool { return true })
}

// FlashOnly stages the listed input fields.
func (s *Session) FlashOnly(keys ...string) error {
	return s.flashInput(func(k string) bool { return slices.Contains(keys, k) })
}

// FlashExcept stages every input field but the listed ones.
func (s *Session) FlashExcept(keys ...string) error {
	return s.flashInput(func(k string) bool { return !slices.Contains(keys, k) })
}

func (s *Session) flashInput(keep func(string) bool) error {
	if err := s.ensureWritable(); err != nil {
		return err
	}
	input, err := s.requestInput()
	if err != nil {
		return err
	}
	s.responseFlash.input = make(map[string]any, len(input))
	for k, v := range input {
		if keep(k) {
			s.responseFlash.input[k] = v
		}
	}
	return nil
}

// requestInput flattens the request form: single values become strings.
func (s *Session) requestInput() (map[string]any, error) {
	input := make(map[string]any)
	if s.r == nil {
		return input, nil
	}
	if err := s.r.ParseForm(); err != nil {
		return nil, err
	}
	for k, vs := range s.r.Form {
		switch len(vs) {
		case 0:
		case 1:
			input[k] = vs[0]
		default:
			input[k] = slices.Clone(vs)
		}
	}
	return input, nil
}

// Reflash keeps the current flash bag for one more request.
func (s *Session) Reflash() error {
	return s.reflash(func(string) bool { return true })
}

func (s *Session) ReflashOnly(keys ...string) error {
	return s.reflash(func(k string) bool { return slices.Contains(keys, k) })
}

func (s *Session) ReflashExcept(keys ...string) error {
	return s.reflash(func(k string) bool { return !slices.Contains(keys, k) })
}

func (s *Session) reflash(keep func(string) bool) error {
	if err := s.ensureWritable(); err != nil {
		return err
	}
	bag := s.flashMessages.All()
	maps.DeleteFunc(bag, func(k string, _ any) bool { return !keep(k) })
	return s.responseFlash.custom.Merge(bag)
}
