package lexicon

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ector/backend/internal/domain"
)

const (
	English = "en"
	French  = "fr"
)

//go:embed data/*.yaml
var embedded embed.FS

// Store maps language codes to lexicons. Unknown codes fall back to English.
type Store struct {
	lexicons map[string]*Lexicon
}

// NewStore builds a store from already parsed lexicons. English is required
// because it is the fallback for every unsupported code.
func NewStore(lexicons ...*Lexicon) (*Store, error) {
	s := &Store{lexicons: make(map[string]*Lexicon, len(lexicons))}
	for _, l := range lexicons {
		if l == nil {
			continue
		}
		s.lexicons[l.Language] = l
	}
	if _, ok := s.lexicons[English]; !ok {
		return nil, fmt.Errorf("%w: english lexicon is required", domain.ErrLexiconInvalid)
	}
	return s, nil
}

var loadEmbedded = sync.OnceValues(func() (*Store, error) {
	return load(embedded, "data", "")
})

// Default returns the store built from the lexicons compiled into the binary.
// It is parsed once per process.
func Default() (*Store, error) {
	return loadEmbedded()
}

// Load builds a store from the embedded lexicons, replacing any language for
// which dir holds a "<lang>.yaml" file. An empty dir is the same as Default.
func Load(dir string) (*Store, error) {
	if dir == "" {
		return Default()
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("lexicon dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("lexicon dir %s is not a directory", dir)
	}
	return load(embedded, "data", dir)
}

func load(base fs.FS, baseDir, overrideDir string) (*Store, error) {
	var lexicons []*Lexicon
	for _, lang := range []string{English, French} {
		name := lang + ".yaml"

		data, err := readOverride(overrideDir, name)
		if err != nil {
			return nil, err
		}
		if data == nil {
			data, err = fs.ReadFile(base, baseDir+"/"+name)
			if err != nil {
				return nil, fmt.Errorf("read embedded lexicon %s: %w", name, err)
			}
		}

		l, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("lexicon %s: %w", name, err)
		}
		if l.Language != lang {
			return nil, fmt.Errorf("%w: %s declares language %q", domain.ErrLexiconInvalid, name, l.Language)
		}
		lexicons = append(lexicons, l)
	}
	return NewStore(lexicons...)
}

// readOverride returns nil data when dir is empty or holds no such file.
func readOverride(dir, name string) ([]byte, error) {
	if dir == "" {
		return nil, nil
	}
	data, err := os.ReadFile(filepath.Join(dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read lexicon override %s: %w", name, err)
	}
	return data, nil
}

// Get returns the lexicon for code, falling back to English.
func (s *Store) Get(code string) *Lexicon {
	if l, ok := s.lexicons[Resolve(code)]; ok {
		return l
	}
	return s.lexicons[English]
}

// Languages lists the loaded language codes in sorted order.
func (s *Store) Languages() []string {
	langs := make([]string, 0, len(s.lexicons))
	for lang := range s.lexicons {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Resolve maps a caller supplied language code to a supported one. Matching
// ignores case and region subtags ("FR", "fr-CA"); anything else is English.
func Resolve(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i >= 0 {
		code = code[:i]
	}
	if code == French {
		return French
	}
	return English
}
