package cache

import "fmt"

type KeyPrefix string

const (
	PrefixLink   KeyPrefix = "link"   // link:shortCode
	PrefixClicks KeyPrefix = "clicks" // clicks:shortCode
)

// KeyBuilder builds namespaced cache keys.
type KeyBuilder struct {
	namespace string
}

func NewKeyBuilder(namespace string) *KeyBuilder {
	return &KeyBuilder{namespace: namespace}
}

func (k *KeyBuilder) Build(prefix KeyPrefix, parts ...string) string {
	key := string(prefix)

	if k.namespace != "" {
		key = k.namespace + ":" + key
	}

	for _, part := range parts {
		key += ":" + part
	}

	return key
}

// Link builds the key holding a full link record by short code.
func (k *KeyBuilder) Link(shortCode string) string {
	return k.Build(PrefixLink, shortCode)
}

// Clicks builds the key holding the click counter for a short code.
func (k *KeyBuilder) Clicks(shortCode string) string {
	return k.Build(PrefixClicks, shortCode)
}

func (k *KeyBuilder) Pattern(prefix KeyPrefix) string {
	if k.namespace != "" {
		return fmt.Sprintf("%s:%s:*", k.namespace, prefix)
	}
	return fmt.Sprintf("%s:*", prefix)
}

var DefaultKeyBuilder = NewKeyBuilder("")
