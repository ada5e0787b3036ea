package main

import (
	"fmt"
	"net"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
)

// connectionLimiter caps concurrent ssh sessions per remote IP.
type connectionLimiter struct {
	max int

	mu     sync.Mutex
	counts map[string]int
}

func newConnectionLimiter(limit int) *connectionLimiter {
	return &connectionLimiter{max: limit, counts: make(map[string]int)}
}

func getIP(s ssh.Session) string {
	if addr, ok := s.RemoteAddr().(*net.TCPAddr); ok {
		return addr.IP.String()
	}
	return s.RemoteAddr().String()
}

// acquire reserves a slot for ip and reports the count including it.
func (l *connectionLimiter) acquire(ip string) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.counts[ip] >= l.max {
		return l.counts[ip], false
	}
	l.counts[ip]++
	return l.counts[ip], true
}

func (l *connectionLimiter) release(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts[ip]--
	if l.counts[ip] <= 0 {
		delete(l.counts, ip)
		return 0
	}
	return l.counts[ip]
}

func (l *connectionLimiter) Middleware(next ssh.Handler) ssh.Handler {
	return func(s ssh.Session) {
		ip := getIP(s)

		count, ok := l.acquire(ip)
		if !ok {
			log.Warn("Connection denied: IP limit exceeded", "ip", ip, "attempted_count", count+1, "current_limit", l.max)
			errorMessage := fmt.Sprintf("Too many active connections from your IP (%d/%d). Please try again later.\r\n", count+1, l.max)
			s.Write([]byte(errorMessage))
			s.Close()
			return
		}

		log.Info("Connection accepted", "ip", ip, "current_count", count, "limit", l.max)
		defer func() {
			log.Info("Connection closed and counter decremented", "ip", ip, "count_after", l.release(ip))
		}()
		next(s)
	}
}
