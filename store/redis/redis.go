package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/suyash-sneo/lifeback/internal/redis_scripts"
	"github.com/suyash-sneo/lifeback/store"
)

const defaultPrefix = "lifeback:"

// Options configure the Redis store.
type Options struct {
	Addr           string
	SentinelAddrs  []string
	SentinelMaster string
	Username       string
	Password       string
	DB             int
	KeyPrefix      string
}

// Store implements store.Store using Redis.
type Store struct {
	client goredis.UniversalClient
	prefix string

	saveScript   script
	deleteScript script
}

// New creates a Redis-backed store. Supports single instance or Sentinel via UniversalClient.
func New(opts Options) (*Store, error) {
	client := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs:      addrs(opts),
		MasterName: opts.SentinelMaster,
		Username:   opts.Username,
		Password:   opts.Password,
		DB:         opts.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewWithClient(client, opts.KeyPrefix), nil
}

// NewWithClient wraps an existing client. The store takes ownership and
// closes it in Close.
func NewWithClient(client goredis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{
		client:       client,
		prefix:       prefix,
		saveScript:   newScript(redis_scripts.NewScript(redis_scripts.SavePattern)),
		deleteScript: newScript(redis_scripts.NewScript(redis_scripts.DeletePattern)),
	}
}

func addrs(opts Options) []string {
	if len(opts.SentinelAddrs) > 0 {
		return opts.SentinelAddrs
	}
	if opts.Addr != "" {
		return []string{opts.Addr}
	}
	return []string{"127.0.0.1:6379"}
}

// Close releases the Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) SavePattern(ctx context.Context, name string, data []byte) error {
	if name == "" {
		return fmt.Errorf("save pattern: empty name")
	}
	keys := []string{s.patternKey(name), s.patternIndexKey()}
	if _, err := s.saveScript.run(ctx, s.client, keys, name, data, s.channel()); err != nil {
		return fmt.Errorf("save pattern %s: %w", name, err)
	}
	return nil
}

func (s *Store) LoadPattern(ctx context.Context, name string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, s.patternKey(name)).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (s *Store) ListPatterns(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, s.patternIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) DeletePattern(ctx context.Context, name string) (bool, error) {
	keys := []string{s.patternKey(name), s.patternIndexKey()}
	n, err := s.deleteScript.run(ctx, s.client, keys, name, s.channel())
	if err != nil {
		return false, fmt.Errorf("delete pattern %s: %w", name, err)
	}
	return n > 0, nil
}

// WatchPatterns streams save and delete notifications until ctx ends.
func (s *Store) WatchPatterns(ctx context.Context) (<-chan store.PatternEvent, error) {
	sub := s.client.Subscribe(ctx, s.channel())
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe patterns: %w", err)
	}
	out := make(chan store.PatternEvent, 16)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				ev, err := parseNotification(msg.Payload)
				if err != nil {
					ev = store.PatternEvent{Err: err}
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func parseNotification(payload string) (store.PatternEvent, error) {
	op, name, ok := strings.Cut(payload, ":")
	if !ok || name == "" {
		return store.PatternEvent{}, fmt.Errorf("malformed pattern notification %q", payload)
	}
	switch op {
	case "save":
		return store.PatternEvent{Name: name}, nil
	case "delete":
		return store.PatternEvent{Name: name, Deleted: true}, nil
	default:
		return store.PatternEvent{}, fmt.Errorf("unknown pattern notification %q", op)
	}
}

func (s *Store) HeartbeatSession(ctx context.Context, sessionID string, ttl time.Duration) error {
	_, err := s.client.Pipelined(ctx, func(p goredis.Pipeliner) error {
		p.Set(ctx, s.sessionKey(sessionID), "1", ttl)
		p.SAdd(ctx, s.sessionsSetKey(), sessionID)
		return nil
	})
	return err
}

// ListSessions returns live sessions and drops expired ones from the set.
func (s *Store) ListSessions(ctx context.Context) ([]string, error) {
	members, err := s.client.SMembers(ctx, s.sessionsSetKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, nil
	}

	pipe := s.client.Pipeline()
	existsCmds := make([]*goredis.IntCmd, 0, len(members))
	for _, id := range members {
		existsCmds = append(existsCmds, pipe.Exists(ctx, s.sessionKey(id)))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, goredis.Nil) {
		return nil, err
	}

	live := make([]string, 0, len(members))
	var dead []interface{}
	for i, cmd := range existsCmds {
		if cmd.Val() > 0 {
			live = append(live, members[i])
		} else {
			dead = append(dead, members[i])
		}
	}
	if len(dead) > 0 {
		if err := s.client.SRem(ctx, s.sessionsSetKey(), dead...).Err(); err != nil {
			return live, err
		}
	}
	sort.Strings(live)
	return live, nil
}

func (s *Store) patternKey(name string) string {
	return s.prefix + "pattern:" + name
}

func (s *Store) patternIndexKey() string {
	return s.prefix + "patterns:all"
}

func (s *Store) channel() string {
	return s.prefix + "patterns:events"
}

func (s *Store) sessionKey(id string) string {
	return s.prefix + "session:" + id
}

func (s *Store) sessionsSetKey() string {
	return s.prefix + "sessions:all"
}

type script struct {
	src string
	sha string
}

func newScript(s redis_scripts.Script) script {
	return script{src: s.Source, sha: s.SHA}
}

func (s script) run(ctx context.Context, client goredis.Scripter, keys []string, args ...interface{}) (int64, error) {
	val, err := client.EvalSha(ctx, s.sha, keys, args...).Result()
	if err != nil && isNoScript(err) {
		val, err = client.Eval(ctx, s.src, keys, args...).Result()
	}
	if err != nil {
		return 0, err
	}
	switch v := val.(type) {
	case int64:
		return v, nil
	case string:
		// Some Redis proxies return string numbers.
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected script return type %T", val)
	}
}

func isNoScript(err error) bool {
	return err != nil && strings.Contains(err.Error(), "NOSCRIPT")
}
