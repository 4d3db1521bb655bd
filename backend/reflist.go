package backend

import "sync"

// RefList is the ordered list of item references given on the command line
// (or handed over by another instance), with a cursor at the current item.
type RefList struct {
	mu   sync.Mutex
	refs []string
	cur  int
}

func NewRefList(refs []string) *RefList {
	return &RefList{refs: append([]string(nil), refs...), cur: -1}
}

// Current returns the ref at the cursor, or false before the first Next.
func (r *RefList) Current() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cur < 0 || r.cur >= len(r.refs) {
		return "", false
	}
	return r.refs[r.cur], true
}

// Next moves the cursor forward. It returns false at the end of the list,
// leaving the cursor on the last item.
func (r *RefList) Next() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cur+1 >= len(r.refs) {
		return "", false
	}
	r.cur++
	return r.refs[r.cur], true
}

// Previous moves the cursor back. It returns false at the start of the list.
func (r *RefList) Previous() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cur <= 0 {
		return "", false
	}
	r.cur--
	return r.refs[r.cur], true
}

// Insert adds ref right after the cursor and moves the cursor onto it.
func (r *RefList) Insert(ref string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	at := r.cur + 1
	r.refs = append(r.refs[:at], append([]string{ref}, r.refs[at:]...)...)
	r.cur = at
}

func (r *RefList) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.refs)
}
