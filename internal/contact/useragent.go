package contact

import "sync/atomic"

// defaultUserAgents is a small set of current desktop browsers.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:122.0) Gecko/20100101 Firefox/122.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
}

// userAgents hands out user agents round-robin. Safe for concurrent use.
type userAgents struct {
	list []string
	next atomic.Uint64
}

func newUserAgents(list []string) *userAgents {
	if len(list) == 0 {
		list = defaultUserAgents
	}
	return &userAgents{list: append([]string(nil), list...)}
}

func (u *userAgents) Next() string {
	i := u.next.Add(1) - 1
	return u.list[i%uint64(len(u.list))]
}
