// Package advisory rotates through a fixed set of security advisories shown
// alongside the authority list.
package advisory

import "sync"

// DefaultAdvisories are shown in order, wrapping around.
var DefaultAdvisories = []string{
	"警察庁推奨リストを自動更新し、国際電話番号からの着信をブロックします。",
	"+から始まる番号の不審なSMSに注意し、金融情報は入力しないでください。",
	"架空料金請求の電話が増加中。家族や知人を装う手口に注意。",
}

// Rotator holds the current advisory. The first advisory is current at
// construction; each Refresh advances to the next one.
type Rotator struct {
	mu         sync.RWMutex
	advisories []string
	current    string
	next       int
}

func NewRotator(advisories []string) *Rotator {
	r := &Rotator{advisories: append([]string(nil), advisories...)}
	if len(r.advisories) > 0 {
		r.current = r.advisories[0]
		r.next = 1 % len(r.advisories)
	}
	return r
}

// Latest returns the current advisory; ok is false when there are none.
func (r *Rotator) Latest() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current, len(r.advisories) > 0
}

// Refresh advances to the next advisory and returns it. It is a no-op when
// there are no advisories.
func (r *Rotator) Refresh() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.advisories) == 0 {
		return ""
	}
	r.current = r.advisories[r.next]
	r.next = (r.next + 1) % len(r.advisories)
	return r.current
}
