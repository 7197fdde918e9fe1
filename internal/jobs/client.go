package jobs

import (
	"context"
	"strings"
)

const (
	DefaultClientIP        = "127.0.0.1"
	DefaultClientUserAgent = "goose-guidance/1.0"
)

// ClientInfo identifies the end user a search is made for. Some providers
// require it for attribution.
type ClientInfo struct {
	IP        string
	UserAgent string
}

type clientInfoKey struct{}

// WithClientInfo stores info in ctx.
func WithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, info)
}

// ClientInfoFrom returns the client info stored in ctx, filling gaps with
// the defaults.
func ClientInfoFrom(ctx context.Context) ClientInfo {
	info, _ := ctx.Value(clientInfoKey{}).(ClientInfo)
	if strings.TrimSpace(info.IP) == "" {
		info.IP = DefaultClientIP
	}
	if strings.TrimSpace(info.UserAgent) == "" {
		info.UserAgent = DefaultClientUserAgent
	}
	return info
}
