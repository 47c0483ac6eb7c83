// Package uid produces process-unique, roughly time-ordered identifiers
// for every persisted entity.
package uid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultPrefix = "OBJ"

// Generator hands out identifiers of the form
// <PREFIX>-<yyyymmddHHMMSS>-<counter>-<random>. The counter is never reused
// within a process lifetime, so rapid repeated calls stay unique even inside
// the same timestamp second. The chronological ordering of generated values
// is advisory only.
type Generator struct {
	mu      sync.Mutex
	counter uint64
	now     func() time.Time
}

func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// Generate builds an identifier with the given category prefix.
// An empty category falls back to "OBJ".
func (g *Generator) Generate(category string) string {
	prefix := strings.ToUpper(strings.TrimSpace(category))
	if prefix == "" {
		prefix = defaultPrefix
	}

	g.mu.Lock()
	g.counter++
	seq := g.counter
	ts := g.now().UTC()
	g.mu.Unlock()

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s-%s-%06d-%s", prefix, ts.Format("20060102150405"), seq, suffix)
}

// Parts is a best-effort decomposition of a generated identifier,
// intended for diagnostics only.
type Parts struct {
	Category string
	Time     time.Time
	Sequence uint64
	Suffix   string
}

var ErrUnparsable = errors.New("uid does not match generator layout")

// Parse decomposes uid. A parse failure is not an error condition for any
// other component; nothing downstream depends on it.
func Parse(uid string) (Parts, error) {
	fields := strings.Split(strings.TrimSpace(uid), "-")
	if len(fields) != 4 {
		return Parts{}, fmt.Errorf("%w: %q", ErrUnparsable, uid)
	}

	ts, err := time.ParseInLocation("20060102150405", fields[1], time.UTC)
	if err != nil {
		return Parts{}, fmt.Errorf("%w: bad timestamp in %q", ErrUnparsable, uid)
	}

	seq, err := strconv.ParseUint(fields[2], 10, 64)
	if err != nil {
		return Parts{}, fmt.Errorf("%w: bad sequence in %q", ErrUnparsable, uid)
	}

	return Parts{
		Category: fields[0],
		Time:     ts,
		Sequence: seq,
		Suffix:   fields[3],
	}, nil
}
