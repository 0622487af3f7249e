package api

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultCacheSize = 1024

// A Service remembers the results of previous transforms so that identical
// inputs are only parsed once. It is safe for concurrent use. Messages are
// returned in each result but are never printed, since a cached result
// would otherwise only be printed the first time.
type Service struct {
	cache *lru.Cache[string, TransformResult]
}

func NewService(size int) (*Service, error) {
	if size < 1 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, TransformResult](size)
	if err != nil {
		return nil, err
	}
	return &Service{cache: cache}, nil
}

func (s *Service) Transform(input string, options TransformOptions) TransformResult {
	options.LogLevel = LogLevelSilent
	key := cacheKey(input, options)

	if result, ok := s.cache.Get(key); ok {
		return cloneResult(result)
	}
	result := transformImpl(input, options)
	s.cache.Add(key, result)
	return cloneResult(result)
}

func (s *Service) TransformFiles(ctx context.Context, files []File, options TransformOptions, concurrency int) ([]FileResult, error) {
	return transformFilesImpl(ctx, files, options, concurrency, s.Transform)
}

// The number of results currently cached
func (s *Service) Len() int {
	return s.cache.Len()
}

// The cache owns its copy of the result so callers are free to modify theirs
func cloneResult(result TransformResult) TransformResult {
	if result.Code != nil {
		result.Code = append([]byte{}, result.Code...)
	}
	result.Errors = cloneMessages(result.Errors)
	result.Warnings = cloneMessages(result.Warnings)
	return result
}

func cloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	clone := make([]Message, len(msgs))
	for i, msg := range msgs {
		if msg.Location != nil {
			location := *msg.Location
			msg.Location = &location
		}
		clone[i] = msg
	}
	return clone
}

func cacheKey(input string, options TransformOptions) string {
	h := sha256.New()
	writeString(h, input)
	writeString(h, options.ModuleID)
	writeString(h, options.GlobalName)
	writeString(h, options.Sourcefile)
	h.Write([]byte{byte(options.Phase), byte(options.Format)})

	// Map iteration order is random
	keys := make([]string, 0, len(options.Paths))
	for key := range options.Paths {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	writeUint32(h, uint32(len(keys)))
	for _, key := range keys {
		writeString(h, key)
		writeString(h, options.Paths[key])
	}

	// A nil list means the ids are unknown, which is different from an empty
	// list of ids
	if options.Dependencies == nil {
		h.Write([]byte{0})
	} else {
		h.Write([]byte{1})
		writeUint32(h, uint32(len(options.Dependencies)))
		for _, id := range options.Dependencies {
			writeUint32(h, id)
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}

// Strings are length-prefixed so that adjacent fields can't run together
func writeString(h hash.Hash, text string) {
	writeUint32(h, uint32(len(text)))
	h.Write([]byte(text))
}

func writeUint32(h hash.Hash, value uint32) {
	var bytes [4]byte
	binary.LittleEndian.PutUint32(bytes[:], value)
	h.Write(bytes[:])
}
