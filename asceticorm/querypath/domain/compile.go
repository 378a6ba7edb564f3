package querypath

import (
	"log/slog"
	"sync"
)

const DefaultCacheSize = 512

type CompilerOption func(*Compiler)

func WithCompilerLogger(logger *slog.Logger) CompilerOption {
	return func(c *Compiler) {
		c.logger = logger
	}
}

// Compiler parses path statements and memoises the results per source text.
// It is safe for concurrent use.
type Compiler struct {
	mu     sync.Mutex
	cache  *lruCache
	logger *slog.Logger
}

func NewCompiler(cacheSize int, opts ...CompilerOption) *Compiler {
	c := &Compiler{cache: newLruCache(cacheSize)}
	for i := range opts {
		opts[i](c)
	}
	return c
}

func (c *Compiler) Compile(text string) ([]QueryPath, error) {
	c.mu.Lock()
	cached, ok := c.cache.get(text)
	c.mu.Unlock()
	if ok {
		return clonePaths(cached.([]QueryPath)), nil
	}

	c.log().Debug("query path cache miss", "text", text)
	paths, err := Parse(text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cache.add(text, paths)
	c.mu.Unlock()
	return clonePaths(paths), nil
}

// log falls back to the default logger current at call time.
func (c *Compiler) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

func (c *Compiler) SetCacheSize(size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.setSize(size)
}

func (c *Compiler) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.len()
}

func (c *Compiler) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.clear()
}

func clonePaths(paths []QueryPath) []QueryPath {
	result := make([]QueryPath, len(paths))
	for i, path := range paths {
		switch p := path.(type) {
		case FetchPath:
			result[i] = FetchPath{Nodes: append([]Node(nil), p.Nodes...)}
		case OrderPath:
			p.Nodes = append([]Node(nil), p.Nodes...)
			result[i] = p
		}
	}
	return result
}

var defaultCompiler = NewCompiler(DefaultCacheSize)

// Compile uses the package compiler.
func Compile(text string) ([]QueryPath, error) {
	return defaultCompiler.Compile(text)
}

func SetCacheSize(size int) {
	defaultCompiler.SetCacheSize(size)
}

func MustCompile(text string) []QueryPath {
	paths, err := Compile(text)
	if err != nil {
		panic(err)
	}
	return paths
}
