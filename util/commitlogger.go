package util

import "sync"

// CommitLogger accumulates written bytes and hands each complete line batch
// to Committer. The slice passed to Committer is reused after it returns.
type CommitLogger struct {
	Committer func(p []byte)

	mu  sync.Mutex
	buf []byte
}

func (l *CommitLogger) Reserve(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cap(l.buf) >= n {
		return
	}

	newbuf := make([]byte, len(l.buf), n)
	copy(newbuf, l.buf)
	l.buf = newbuf
}

func (l *CommitLogger) Write(p []byte) (n int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf = append(l.buf, p...)
	if len(l.buf) > 0 && l.buf[len(l.buf)-1] == '\n' {
		l.commit()
	}
	return len(p), nil
}

func (l *CommitLogger) Commit() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.commit()
}

func (l *CommitLogger) commit() {
	if len(l.buf) == 0 {
		return
	}
	if l.Committer != nil {
		l.Committer(l.buf)
	}
	l.buf = l.buf[:0]
}

func (l *CommitLogger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf = l.buf[:0]
}
