package redis_scripts

import (
	"crypto/sha1" //nolint:gosec // used for deterministic script hash
	"encoding/hex"
)

// KEYS[1] pattern key, KEYS[2] index set; ARGV[1] name, ARGV[2] body,
// ARGV[3] notify channel. Returns 1 when the pattern is new.
const SavePattern = `local added = redis.call("sadd", KEYS[2], ARGV[1])
redis.call("set", KEYS[1], ARGV[2])
redis.call("publish", ARGV[3], "save:" .. ARGV[1])
return added`

// Same keys as SavePattern; ARGV[1] name, ARGV[2] notify channel.
const DeletePattern = `local removed = redis.call("del", KEYS[1])
redis.call("srem", KEYS[2], ARGV[1])
if removed > 0 then redis.call("publish", ARGV[2], "delete:" .. ARGV[1]) end
return removed`

// Script wraps a Lua source and precomputed sha.
type Script struct {
	Source string
	SHA    string
}

// NewScript builds a Script with deterministic sha1.
func NewScript(src string) Script {
	sum := sha1.Sum([]byte(src))
	return Script{
		Source: src,
		SHA:    hex.EncodeToString(sum[:]),
	}
}
