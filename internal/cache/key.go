package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// nameEscaper keeps the first unescaped ':' of a token as the separator
// between name and value.
var nameEscaper = strings.NewReplacer(`\`, `\\`, `:`, `\:`)

// Params is the parameter bag a cache key is built from. Values should be
// scalars (strings, numbers, booleans) or nil.
type Params map[string]any

// Key is an ordered token sequence: the domain first, then one token per
// kept parameter in key order.
type Key []string

// BuildKey turns domain and params into a Key that does not depend on the
// order params were assembled in. Nil values and false booleans are dropped,
// true booleans contribute their bare name and every other value contributes
// "name:value". Backslashes and colons in names are escaped.
func BuildKey(domain string, params Params) Key {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	slices.Sort(names)

	key := make(Key, 1, len(names)+1)
	key[0] = domain
	for _, name := range names {
		escaped := nameEscaper.Replace(name)
		switch v := params[name].(type) {
		case nil:
		case bool:
			if v {
				key = append(key, escaped)
			}
		default:
			key = append(key, fmt.Sprintf("%s:%v", escaped, v))
		}
	}
	return key
}

// Domain is the first token.
func (k Key) Domain() string {
	if len(k) == 0 {
		return ""
	}
	return k[0]
}

// ID is the store key: the domain followed by a digest of all tokens.
func (k Key) ID() string {
	raw, _ := json.Marshal([]string(k))
	sum := sha256.Sum256(raw)
	return k.Domain() + "/" + hex.EncodeToString(sum[:])
}
