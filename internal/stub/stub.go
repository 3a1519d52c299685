// Package stub invents placeholder attribute values for a model
// struct. It backs the default-value collaborator: one value per
// exported field, appropriate to the field's type. Values are drawn
// from the injected random source the first time a model type is
// seen and then cached, so every build of the same model starts from
// the same defaults until explicit stages shadow them.
package stub

import (
	"fmt"
	"math/rand"
	"reflect"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// maxDepth bounds recursion into nested struct fields.
const maxDepth = 8

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})
)

// Source produces placeholder attributes for model types.
type Source struct {
	rand  *rand.Rand
	cache *gocache.Cache
}

// NewSource creates a source drawing from r.
func NewSource(r *rand.Rand) *Source {
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Source{
		rand:  r,
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

// Attributes returns a field name to placeholder value map for the
// given struct type. The map is computed once per type and cached;
// callers must treat it as read-only.
func (s *Source) Attributes(model reflect.Type) (map[string]any, error) {
	if model.Kind() == reflect.Ptr {
		model = model.Elem()
	}
	if model.Kind() != reflect.Struct {
		return nil, fmt.Errorf("stub: model %s is not a struct", model)
	}

	key := cacheKey(model)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(map[string]any), nil
	}

	attrs := s.structAttributes(model, 0)
	s.cache.Set(key, attrs, gocache.NoExpiration)
	return attrs, nil
}

// Flush drops all cached attribute maps.
func (s *Source) Flush() {
	s.cache.Flush()
}

func (s *Source) structAttributes(model reflect.Type, depth int) map[string]any {
	attrs := make(map[string]any, model.NumField())
	for i := 0; i < model.NumField(); i++ {
		field := model.Field(i)
		if !field.IsExported() {
			continue
		}
		attrs[field.Name] = s.value(field.Type, depth)
	}
	return attrs
}

func (s *Source) value(t reflect.Type, depth int) any {
	switch t {
	case timeType:
		return time.Now().UTC()
	case uuidType:
		return uuid.New()
	}

	switch t.Kind() {
	case reflect.String:
		return s.word()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return reflect.ValueOf(s.rand.Intn(1000)).Convert(t).Interface()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return reflect.ValueOf(s.rand.Intn(1000)).Convert(t).Interface()
	case reflect.Float32, reflect.Float64:
		return reflect.ValueOf(s.rand.Float64() * 1000).Convert(t).Interface()
	case reflect.Bool:
		return s.rand.Intn(2) == 1
	case reflect.Struct:
		if depth >= maxDepth {
			return reflect.Zero(t).Interface()
		}
		return s.structAttributes(t, depth+1)
	default:
		// Pointers, slices, maps, interfaces, channels and funcs
		// default to their zero value; associations and explicit
		// stages are the way to populate them.
		return reflect.Zero(t).Interface()
	}
}

const letters = "abcdefghijklmnopqrstuvwxyz"

func (s *Source) word() string {
	n := 4 + s.rand.Intn(8)
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[s.rand.Intn(len(letters))]
	}
	return string(b)
}

func cacheKey(model reflect.Type) string {
	if model.PkgPath() != "" {
		return model.PkgPath() + "." + model.Name()
	}
	return model.String()
}
