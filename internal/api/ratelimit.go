package api

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/inkwell-blog/inkwell-server/internal/errors"
	"github.com/inkwell-blog/inkwell-server/internal/http/response"
	"github.com/inkwell-blog/inkwell-server/internal/ratelimit"
)

const (
	policyAPI     = "api"
	policyWrite   = "write"
	policyComment = "comment"

	msgAPILimit     = "Too many requests from this IP, please try again after 15 minutes"
	msgWriteLimit   = "Too many write operations from this IP, please try again after an hour"
	msgCommentLimit = "Too many comments created from this IP, please try again after 15 minutes"

	headerRateLimitLimit     = "RateLimit-Limit"
	headerRateLimitRemaining = "RateLimit-Remaining"
	headerRetryAfter         = "Retry-After"
)

// limitPolicy is a named limiter with the message sent on rejection.
type limitPolicy struct {
	name    string
	message string
	limiter *ratelimit.KeyedRateLimiter
}

func newLimitPolicy(name, message string, policy ratelimit.Policy) *limitPolicy {
	return &limitPolicy{name: name, message: message, limiter: ratelimit.New(policy)}
}

// take consumes one request for ip and writes the RateLimit headers.
func (p *limitPolicy) take(ip string, setHeader func(name, value string)) ratelimit.Result {
	res := p.limiter.Take(ip)
	setHeader(headerRateLimitLimit, strconv.Itoa(res.Limit))
	setHeader(headerRateLimitRemaining, strconv.Itoa(res.Remaining))
	if !res.Allowed {
		setHeader(headerRetryAfter, retryAfterSeconds(res.RetryAfter))
	}
	return res
}

// apiRateLimit applies the general limiter to every /api request.
func (s *Server) apiRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := s.apiLimit
		if p == nil || !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r.RemoteAddr, r.Header.Get)
		if res := p.take(ip, w.Header().Set); !res.Allowed {
			s.rejected(p, ip, r.URL.Path)
			response.TooManyRequests(w, p.message, s.logger)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// rateLimit returns an operation middleware enforcing p. A nil policy
// (limiting disabled) lets everything through.
func (s *Server) rateLimit(p *limitPolicy) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if p == nil {
			next(ctx)
			return
		}

		ip := clientIP(ctx.RemoteAddr(), ctx.Header)
		if res := p.take(ip, ctx.SetHeader); !res.Allowed {
			s.rejected(p, ip, ctx.URL().Path)
			_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, p.message, domainerrors.TooManyRequests(p.message))
			return
		}

		next(ctx)
	}
}

func (s *Server) rejected(p *limitPolicy, ip, path string) {
	s.metrics.RateLimited(p.name)
	s.logger.Warn("rate limit exceeded",
		"policy", p.name,
		"ip", ip,
		"path", path,
	)
}

func retryAfterSeconds(d time.Duration) string {
	return strconv.Itoa(max(int(math.Ceil(d.Seconds())), 1))
}

// clientIP extracts the client IP for a request.
// Checks X-Forwarded-For and X-Real-IP headers before falling back to RemoteAddr.
func clientIP(remoteAddr string, header func(string) string) string {
	// First entry of X-Forwarded-For is the client.
	if xff := header("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := strings.TrimSpace(header("X-Real-IP")); xri != "" {
		return xri
	}

	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
